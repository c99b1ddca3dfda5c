package scanner

import (
	"errors"
	"strings"
)

// DeclarationBlock is one documented declaration found in a unit.
type DeclarationBlock struct {
	Kind      Kind
	Name      string
	Signature string
	Body      string // declaration text from its first token through the closing brace or end of line
	Doc       string // cleaned doc comment text
	Offset    int
	Line      int
}

// maxSignatureTokens bounds how far a signature is read when no terminator shows up.
const maxSignatureTokens = 256

// Scan extracts documented declarations from text in source order.
//
// A declaration is documented when a doc comment is followed, after whitespace
// only, by its first token. Declarations that classify as Unknown are skipped.
// Declarations whose block cannot be closed are skipped and reported in the
// returned failures; they never abort the scan.
func Scan(text string) ([]DeclarationBlock, []error) {
	tokens := Tokenize(text)

	var blocks []DeclarationBlock
	var failures []error
	for i, tok := range tokens {
		if tok.Kind != DocComment {
			continue
		}
		j := i + 1
		for j < len(tokens) && tokens[j].Kind == Space {
			j++
		}
		if j >= len(tokens) || tokens[j].IsComment() {
			continue
		}

		sig := readSignature(tokens, text, j)
		kind, name := ClassifyDeclaration(sig.text)
		if kind == Unknown {
			continue
		}

		start := tokens[j].Start
		block := DeclarationBlock{
			Kind:      kind,
			Name:      name,
			Signature: sig.text,
			Doc:       CleanDoc(tok.Text),
			Offset:    start,
			Line:      lineOf(text, start),
		}

		if sig.brace >= 0 {
			end, err := blockEnd(tokens, text, sig.brace)
			if err != nil {
				var ee *ExtractionError
				if errors.As(err, &ee) {
					ee.Name = name
				}
				failures = append(failures, err)
				continue
			}
			block.Body = text[start:end]
		} else {
			block.Body = strings.TrimRight(text[start:sig.end], " \t\r")
		}
		blocks = append(blocks, block)
	}
	return blocks, failures
}

type signature struct {
	text  string
	brace int // offset of the opening brace, -1 when the declaration has none
	end   int
}

// readSignature reads tokens from index j up to the first opening brace at
// depth zero, a ';', or the end of an assignment line.
func readSignature(tokens []Token, text string, j int) signature {
	start := tokens[j].Start
	depth := 0
	sawAssign := false
	lastSignificant := ""
	count := 0

	for k := j; k < len(tokens); k++ {
		tok := tokens[k]
		if tok.Kind == Space {
			if sawAssign && depth == 0 && strings.Contains(tok.Text, "\n") && !continuesLine(lastSignificant) {
				return signature{text: strings.TrimSpace(text[start:tok.Start]), brace: -1, end: tok.Start}
			}
			continue
		}
		if tok.IsComment() {
			continue
		}

		count++
		if count > maxSignatureTokens {
			return signature{text: strings.TrimSpace(text[start:tok.Start]), brace: -1, end: tok.Start}
		}

		if tok.Kind == Punct {
			switch tok.Text {
			case "(", "[":
				depth++
			case ")", "]":
				if depth > 0 {
					depth--
				}
			case "{":
				if depth == 0 {
					return signature{text: strings.TrimSpace(text[start:tok.Start]), brace: tok.Start, end: tok.Start}
				}
			case "}":
				if depth == 0 {
					return signature{text: strings.TrimSpace(text[start:tok.Start]), brace: -1, end: tok.Start}
				}
			case ";":
				if depth == 0 {
					return signature{text: strings.TrimSpace(text[start:tok.End]), brace: -1, end: tok.End}
				}
			case "=":
				if depth == 0 && isPlainAssign(tokens, k) {
					sawAssign = true
				}
			}
		}
		lastSignificant = tok.Text
	}
	return signature{text: strings.TrimSpace(text[start:]), brace: -1, end: len(text)}
}

// isPlainAssign reports whether the '=' token at k is a lone assignment and not
// part of '==', '!=', '<=', '>=' or '=>'.
func isPlainAssign(tokens []Token, k int) bool {
	if k+1 < len(tokens) && tokens[k+1].Kind == Punct && (tokens[k+1].Text == "=" || tokens[k+1].Text == ">") {
		return false
	}
	if k > 0 && tokens[k-1].Kind == Punct {
		switch tokens[k-1].Text {
		case "=", "!", "<", ">":
			return false
		}
	}
	return true
}

func continuesLine(last string) bool {
	switch last {
	case "=", ">", "(", "[", ",", "+", "-", "*", "/", "?", ":", "|", "&", ".":
		return true
	}
	return false
}

// StripComments returns text without comments. Trailing whitespace is trimmed
// from each line and runs of blank lines collapse to one.
func StripComments(text string) string {
	var b strings.Builder
	for _, tok := range Tokenize(text) {
		if tok.IsComment() {
			continue
		}
		b.WriteString(tok.Text)
	}

	var out []string
	blank := true
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
