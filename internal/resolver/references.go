package resolver

import (
	"sort"

	"github.com/mvp-joe/stitch/internal/scanner"
	"github.com/mvp-joe/stitch/internal/symbols"
)

// builtins are platform names that are never project symbols even when a
// source unit happens to share the name.
var builtins = []string{
	"AbortController", "Array", "ArrayBuffer", "Audio", "BigInt", "Blob", "Boolean",
	"CustomEvent", "DOMParser", "DataView", "Date", "Document", "Element", "Error",
	"Event", "EventSource", "EventTarget", "File", "FileReader", "Float32Array",
	"Float64Array", "FormData", "Function", "HTMLButtonElement", "HTMLCanvasElement",
	"HTMLDivElement", "HTMLElement", "HTMLInputElement", "HTMLTextAreaElement", "Headers",
	"Image", "Infinity", "Int32Array", "IntersectionObserver", "Intl", "JSON",
	"KeyboardEvent", "Map", "Math", "MouseEvent", "MutationObserver", "NaN", "Node",
	"Notification", "Number", "Object", "Promise", "Proxy", "RangeError", "ReferenceError",
	"Reflect", "RegExp", "Request", "ResizeObserver", "Response", "Set", "String", "Symbol",
	"SyntaxError", "TextDecoder", "TextEncoder", "TypeError", "URL", "URLSearchParams",
	"Uint8Array", "WeakMap", "WeakSet", "WebSocket", "Window", "Worker",
}

// Blacklist builds the set of names excluded from reference detection.
func Blacklist(ignore []string) map[string]bool {
	set := make(map[string]bool, len(builtins)+len(ignore))
	for _, name := range builtins {
		set[name] = true
	}
	for _, name := range ignore {
		set[name] = true
	}
	return set
}

var declarators = map[string]bool{
	"class":    true,
	"function": true,
	"const":    true,
	"let":      true,
	"var":      true,
}

// candidate is a symbol-shaped identifier found in a text.
type candidate struct {
	name   string
	member bool // only ever seen after "." or "?."
}

// candidates returns the symbol-shaped identifiers in text that are not
// blacklisted or properties of this, plus the set of names text declares
// itself.
func candidates(text string, blacklist map[string]bool) (names []candidate, declared map[string]bool) {
	toks := scanner.SignificantTokens(scanner.Tokenize(text))
	declared = make(map[string]bool)
	seen := make(map[string]int)

	for i, tok := range toks {
		if tok.Kind != scanner.Ident {
			continue
		}
		if i > 0 && declarators[toks[i-1].Text] {
			declared[tok.Text] = true
		}
		if !symbols.IsSymbolShaped(tok.Text) || blacklist[tok.Text] {
			continue
		}
		member := isMemberAccess(toks, i)
		if member && toks[i-2].Kind == scanner.Ident && toks[i-2].Text == "this" {
			continue
		}
		if at, ok := seen[tok.Text]; ok {
			if !member {
				names[at].member = false
			}
			continue
		}
		seen[tok.Text] = len(names)
		names = append(names, candidate{name: tok.Text, member: member})
	}
	return names, declared
}

// isMemberAccess reports whether toks[i] follows "." or "?." but not a "..."
// spread.
func isMemberAccess(toks []scanner.Token, i int) bool {
	if i < 2 || toks[i-1].Kind != scanner.Punct || toks[i-1].Text != "." {
		return false
	}
	return toks[i-2].Text != "."
}

// References returns the provider symbols text refers to, sorted. Only
// identifier tokens count; names inside strings and comments are ignored.
// Provider names reached through a namespace such as window.Logger count,
// properties of this do not.
func References(text string, index *symbols.Index, blacklist map[string]bool) []string {
	refs, _ := scan(text, index, blacklist)
	return refs
}

// Unresolved returns symbol-shaped names text uses that have no provider,
// are not blacklisted, are not declared in text itself and are not only
// used as properties, sorted.
func Unresolved(text string, index *symbols.Index, blacklist map[string]bool) []string {
	_, missing := scan(text, index, blacklist)
	return missing
}

func scan(text string, index *symbols.Index, blacklist map[string]bool) (refs, missing []string) {
	names, declared := candidates(text, blacklist)
	for _, c := range names {
		switch {
		case index.Has(c.name):
			refs = append(refs, c.name)
		case !c.member && !declared[c.name]:
			missing = append(missing, c.name)
		}
	}
	sort.Strings(refs)
	sort.Strings(missing)
	return refs, missing
}
