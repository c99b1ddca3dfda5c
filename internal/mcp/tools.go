package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/stitch/internal/diag"
	"github.com/mvp-joe/stitch/internal/resolver"
)

// Project is what the tools read: generated documentation and on-demand
// resolution of an entry.
type Project interface {
	// Symbols lists the documented symbols.
	Symbols() ([]string, error)
	// Page returns the markdown page for symbol.
	Page(symbol string) (string, error)
	// Resolve resolves an entry without writing any artifact.
	Resolve(entry string) (*resolver.Resolution, []diag.Diagnostic, error)
}

type toolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ListSymbolsResponse is the JSON body of stitch_list_symbols.
type ListSymbolsResponse struct {
	Symbols []string `json:"symbols"`
	Total   int      `json:"total"`
}

// SymbolDocResponse is the JSON body of stitch_symbol_doc.
type SymbolDocResponse struct {
	Symbol   string `json:"symbol"`
	Markdown string `json:"markdown"`
}

// ResolveResponse is the JSON body of stitch_resolve.
type ResolveResponse struct {
	Entry       string           `json:"entry"`
	Seeds       []string         `json:"seeds"`
	Needed      []string         `json:"needed"`
	Order       []string         `json:"order"`
	Diagnostics []DiagnosticJSON `json:"diagnostics,omitempty"`
}

// DiagnosticJSON is a diagnostic as reported to MCP clients.
type DiagnosticJSON struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Symbol   string `json:"symbol,omitempty"`
	Message  string `json:"message"`
}

// AddListSymbolsTool registers the stitch_list_symbols tool with an MCP server.
func AddListSymbolsTool(s *server.MCPServer, project Project) {
	tool := mcp.NewTool(
		"stitch_list_symbols",
		mcp.WithDescription("List the symbols that have generated documentation pages, in lexical order."),
		mcp.WithString("prefix",
			mcp.Description("Only return symbols starting with this prefix (case-sensitive)")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of symbols to return (1-1000, default: 200)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createListSymbolsHandler(project))
}

func createListSymbolsHandler(project Project) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := arguments(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		prefix, err := parseStringArg(argsMap, "prefix", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := parseClampedInt(argsMap, "limit", 200, 1, 1000)

		all, err := project.Symbols()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		response := &ListSymbolsResponse{Symbols: []string{}}
		for _, s := range all {
			if !strings.HasPrefix(s, prefix) {
				continue
			}
			response.Total++
			if len(response.Symbols) < limit {
				response.Symbols = append(response.Symbols, s)
			}
		}
		return jsonResult(response)
	}
}

// AddSymbolDocTool registers the stitch_symbol_doc tool with an MCP server.
func AddSymbolDocTool(s *server.MCPServer, project Project) {
	tool := mcp.NewTool(
		"stitch_symbol_doc",
		mcp.WithDescription("Return the generated markdown documentation page of one symbol: description, parameters, return values and source of each documented declaration."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Symbol name, e.g. 'ChatManager'")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSymbolDocHandler(project))
}

func createSymbolDocHandler(project Project) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := arguments(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		symbol, err := parseStringArg(argsMap, "symbol", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		page, err := project.Page(symbol)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(&SymbolDocResponse{Symbol: symbol, Markdown: page})
	}
}

// AddResolveTool registers the stitch_resolve tool with an MCP server.
func AddResolveTool(s *server.MCPServer, project Project) {
	tool := mcp.NewTool(
		"stitch_resolve",
		mcp.WithDescription("Resolve the dependencies of an entry unit and return the bundle order, without writing anything. Reports unresolved symbols, inheritance cycles and leader conflicts as diagnostics."),
		mcp.WithString("entry",
			mcp.Required(),
			mcp.Description("Entry unit name or path, e.g. 'init_chat.js'")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createResolveHandler(project))
}

func createResolveHandler(project Project) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, err := arguments(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		entry, err := parseStringArg(argsMap, "entry", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, diags, err := project.Resolve(entry)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		response := &ResolveResponse{
			Entry:  entry,
			Seeds:  res.Seeds,
			Needed: res.Needed,
			Order:  res.Order,
		}
		for _, d := range diags {
			response.Diagnostics = append(response.Diagnostics, DiagnosticJSON{
				Kind:     string(d.Kind),
				Severity: string(d.Severity),
				Symbol:   d.Symbol,
				Message:  d.Message,
			})
		}
		return jsonResult(response)
	}
}

// jsonResult returns v as JSON text (mcp-go convention).
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
