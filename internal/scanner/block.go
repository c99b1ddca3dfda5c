package scanner

import (
	"errors"
	"fmt"
)

// ErrExtraction indicates that a block could not be closed.
var ErrExtraction = errors.New("block extraction failed")

// ExtractionError describes a block that could not be extracted.
type ExtractionError struct {
	Offset int    // offset of the presumed opening brace
	Line   int    // 1-based line of Offset
	Name   string // declaration name, when known
	Reason string
}

func (e *ExtractionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s at line %d: %s", ErrExtraction, e.Name, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s at line %d: %s", ErrExtraction, e.Line, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return ErrExtraction }

// ExtractBlock returns text[open:close+1] where close is the brace matching the
// '{' at open. Braces inside strings, template literals, regex literals and
// comments do not count.
func ExtractBlock(text string, open int) (string, error) {
	end, err := blockEnd(Tokenize(text), text, open)
	if err != nil {
		return "", err
	}
	return text[open:end], nil
}

// blockEnd finds the end offset (exclusive) of the block opened at offset open
// using an existing token stream of text.
func blockEnd(tokens []Token, text string, open int) (int, error) {
	if open < 0 || open >= len(text) || text[open] != '{' {
		return 0, &ExtractionError{Offset: open, Line: lineOf(text, open), Reason: "no opening brace at offset"}
	}

	i := tokenAt(tokens, open)
	if i < 0 || tokens[i].Kind != Punct {
		return 0, &ExtractionError{Offset: open, Line: lineOf(text, open), Reason: "opening brace is inside a string or comment"}
	}

	depth := 0
	for ; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind != Punct {
			continue
		}
		switch tok.Text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				return tok.End, nil
			}
		}
	}
	return 0, &ExtractionError{Offset: open, Line: lineOf(text, open), Reason: "end of text before closing brace"}
}

// tokenAt returns the index of the token starting at offset, or -1.
func tokenAt(tokens []Token, offset int) int {
	lo, hi := 0, len(tokens)
	for lo < hi {
		mid := (lo + hi) / 2
		if tokens[mid].Start < offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(tokens) && tokens[lo].Start == offset {
		return lo
	}
	return -1
}

func lineOf(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	line := 1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
		}
	}
	return line
}
