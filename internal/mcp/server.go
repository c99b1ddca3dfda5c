// Package mcp serves generated documentation and entry resolution to MCP
// clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/mvp-joe/stitch/internal/diag"
	"github.com/mvp-joe/stitch/internal/docs"
	"github.com/mvp-joe/stitch/internal/pipeline"
	"github.com/mvp-joe/stitch/internal/resolver"
)

// Server manages the MCP server lifecycle.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server with every stitch tool registered.
func NewServer(project Project, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := server.NewMCPServer(
		"stitch-mcp",
		version,
		server.WithToolCapabilities(true),
	)
	AddListSymbolsTool(s, project)
	AddSymbolDocTool(s, project)
	AddResolveTool(s, project)

	return &Server{mcp: s, logger: logger}
}

// Serve serves on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		s.logger.Info("received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PipelineProject reads documentation written by a pipeline and resolves
// entries through it.
type PipelineProject struct {
	pipeline *pipeline.Pipeline
	docs     *docs.Generator
}

// NewPipelineProject creates a Project backed by p.
func NewPipelineProject(p *pipeline.Pipeline) *PipelineProject {
	return &PipelineProject{pipeline: p, docs: p.Docs()}
}

// Symbols implements Project.
func (p *PipelineProject) Symbols() ([]string, error) { return p.docs.Symbols() }

// Page implements Project.
func (p *PipelineProject) Page(symbol string) (string, error) { return p.docs.Page(symbol) }

// Resolve implements Project.
func (p *PipelineProject) Resolve(entry string) (*resolver.Resolution, []diag.Diagnostic, error) {
	return p.pipeline.Resolve(entry)
}
