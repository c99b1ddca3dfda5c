package bundler

import (
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
)

const jsMediaType = "application/javascript"

// Compactor removes whitespace and comments from a script without changing
// its meaning.
type Compactor interface {
	Compact(src string) (string, error)
}

// JSCompactor compacts scripts with tdewolff/minify.
type JSCompactor struct {
	m *minify.M
}

// NewJSCompactor creates a compactor for JavaScript.
func NewJSCompactor() *JSCompactor {
	m := minify.New()
	m.AddFunc(jsMediaType, js.Minify)
	return &JSCompactor{m: m}
}

// Compact implements Compactor.
func (c *JSCompactor) Compact(src string) (string, error) {
	return c.m.String(jsMediaType, src)
}

// CompactorFunc adapts a function to Compactor.
type CompactorFunc func(src string) (string, error)

// Compact implements Compactor.
func (f CompactorFunc) Compact(src string) (string, error) { return f(src) }
