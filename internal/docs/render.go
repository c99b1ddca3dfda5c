// Package docs renders markdown documentation for resolved symbols from the
// doc comments in their source units.
package docs

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/stitch/internal/scanner"
)

// DefaultCodeFence is the info string used on fenced code blocks.
const DefaultCodeFence = "javascript"

// RenderOptions controls page layout.
type RenderOptions struct {
	CodeFence string
}

var angleSpan = regexp.MustCompile(`<[^<>\s][^<>]*>`)

// Render builds the markdown page for symbol from its unit text. It is a pure
// function of its arguments. Declarations whose block cannot be closed are
// left out of the page and returned as failures.
func Render(symbol, text string, opts RenderOptions) (string, []error) {
	fence := opts.CodeFence
	if fence == "" {
		fence = DefaultCodeFence
	}

	blocks, failures := scanner.Scan(text)

	p := &page{fence: fence}
	p.line("# " + symbol)
	p.blank()

	for _, b := range blocks {
		if b.Kind == scanner.BlockConstruct && b.Name == symbol {
			doc := scanner.ParseDoc(b.Doc)
			if lines := titleFree(doc.Description, symbol); len(lines) > 0 {
				p.prose(lines)
				p.blank()
			}
			p.tags(doc)
			p.rule()
			break
		}
	}

	for _, b := range blocks {
		if b.Kind == scanner.BlockConstruct && b.Name == symbol {
			continue
		}
		p.section(b)
	}

	p.line("## Source")
	p.blank()
	p.code(scanner.StripComments(text))

	return p.String(), failures
}

// Heading returns the markdown heading for a declaration block.
func Heading(b scanner.DeclarationBlock) string {
	switch b.Kind {
	case scanner.BlockConstruct:
		return "## class " + b.Name
	case scanner.Initializer:
		return "## constructor"
	case scanner.NamedOperation:
		return "## " + b.Name + "()"
	case scanner.Accessor:
		return "## " + b.Name
	case scanner.InstanceField:
		return "### this." + b.Name
	default:
		return "### " + b.Name
	}
}

type page struct {
	b     strings.Builder
	fence string
}

func (p *page) String() string { return p.b.String() }

func (p *page) line(s string) {
	p.b.WriteString(s)
	p.b.WriteString("\n")
}

func (p *page) blank() { p.b.WriteString("\n") }

func (p *page) rule() {
	p.line("---")
	p.blank()
}

func (p *page) prose(lines []string) {
	for _, l := range lines {
		p.line(strings.TrimRight(sanitize(l), " \t"))
	}
}

func (p *page) section(b scanner.DeclarationBlock) {
	p.line(Heading(b))
	p.blank()

	doc := scanner.ParseDoc(b.Doc)
	if lines := trimBlank(doc.Description); len(lines) > 0 {
		p.prose(lines)
		p.blank()
	}
	p.tags(doc)
	p.code(b.Body)
	p.rule()
}

func (p *page) tags(doc scanner.Doc) {
	for _, param := range doc.Params {
		s := "- **@param** "
		if param.Type != "" {
			s += "`{" + param.Type + "}` "
		}
		s += "**" + param.Name + "**"
		if param.Description != "" {
			s += " " + sanitize(param.Description)
		}
		p.line(s)
	}
	if len(doc.Params) > 0 {
		p.blank()
	}
	if doc.Returns != nil {
		s := "**@returns** `{" + doc.Returns.Type + "}`"
		if doc.Returns.Description != "" {
			s += " " + sanitize(doc.Returns.Description)
		}
		p.line(s)
		p.blank()
	}
	if doc.Type != "" {
		p.line("**@type** `{" + doc.Type + "}`")
		p.blank()
	}
}

// code writes body as a fenced block whose fence is longer than any backtick
// run inside body.
func (p *page) code(body string) {
	ticks := strings.Repeat("`", max(3, longestRun(body, '`')+1))
	p.line(ticks + p.fence)
	p.line(strings.TrimRight(body, "\n"))
	p.line(ticks)
	p.blank()
}

func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return longest
}

// sanitize wraps <...> spans in backticks so markdown renderers keep them.
// Spans already preceded by a backtick are left alone.
func sanitize(s string) string {
	matches := angleSpan.FindAllStringIndex(s, -1)
	if matches == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m[0] > 0 && s[m[0]-1] == '`' {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString("`")
		b.WriteString(s[m[0]:m[1]])
		b.WriteString("`")
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// titleFree drops lines that repeat the symbol name and decoration lines.
func titleFree(lines []string, symbol string) []string {
	var out []string
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == symbol || isDecoration(t) {
			continue
		}
		out = append(out, l)
	}
	return trimBlank(out)
}

// isDecoration reports whether s is made only of repeated markup characters.
func isDecoration(s string) bool {
	if len(s) < 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune("=-*~_#+", rune(s[i])) {
			return false
		}
	}
	return true
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
