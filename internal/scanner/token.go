package scanner

// TokenKind classifies a lexical span of source text.
type TokenKind int

const (
	Space TokenKind = iota
	Ident
	Number
	String
	Regex
	LineComment
	BlockComment
	DocComment
	Punct
)

func (k TokenKind) String() string {
	switch k {
	case Space:
		return "space"
	case Ident:
		return "ident"
	case Number:
		return "number"
	case String:
		return "string"
	case Regex:
		return "regex"
	case LineComment:
		return "line-comment"
	case BlockComment:
		return "block-comment"
	case DocComment:
		return "doc-comment"
	case Punct:
		return "punct"
	default:
		return "unknown"
	}
}

// Token is a half-open byte span [Start, End) of the tokenized text.
type Token struct {
	Kind  TokenKind
	Start int
	End   int
	Text  string
}

// IsComment reports whether the token is any kind of comment.
func (t Token) IsComment() bool {
	return t.Kind == LineComment || t.Kind == BlockComment || t.Kind == DocComment
}

// Significant reports whether the token carries code (not whitespace, not a comment).
func (t Token) Significant() bool {
	return t.Kind != Space && !t.IsComment()
}

// Tokenize splits text into tokens. It never fails: unterminated strings and
// comments extend to end of text.
//
// The lexer recognizes single, double and template strings (with nested ${}
// substitutions), line and block comments, "/** */" doc comments and regex
// literals. Regex detection looks at the previous significant token.
func Tokenize(text string) []Token {
	lx := &lexer{src: text, prev: -1}
	lx.run()
	return lx.tokens
}

type lexer struct {
	src    string
	pos    int
	tokens []Token
	prev   int
}

func (lx *lexer) emit(kind TokenKind, start int) {
	lx.tokens = append(lx.tokens, Token{Kind: kind, Start: start, End: lx.pos, Text: lx.src[start:lx.pos]})
	if kind != Space && kind != LineComment && kind != BlockComment && kind != DocComment {
		lx.prev = len(lx.tokens) - 1
	}
}

func (lx *lexer) run() {
	for lx.pos < len(lx.src) {
		start := lx.pos
		c := lx.src[lx.pos]
		switch {
		case isSpace(c):
			for lx.pos < len(lx.src) && isSpace(lx.src[lx.pos]) {
				lx.pos++
			}
			lx.emit(Space, start)
		case c == '/' && lx.peek(1) == '/':
			lx.pos = skipLine(lx.src, lx.pos)
			lx.emit(LineComment, start)
		case c == '/' && lx.peek(1) == '*':
			end := skipBlockComment(lx.src, lx.pos)
			kind := BlockComment
			if isDocOpener(lx.src[start:end]) {
				kind = DocComment
			}
			lx.pos = end
			lx.emit(kind, start)
		case c == '\'' || c == '"':
			lx.pos = skipQuoted(lx.src, lx.pos, c)
			lx.emit(String, start)
		case c == '`':
			lx.pos = skipTemplate(lx.src, lx.pos)
			lx.emit(String, start)
		case c == '/' && lx.regexAllowed():
			lx.pos = skipRegex(lx.src, lx.pos)
			lx.emit(Regex, start)
		case isIdentStart(c):
			for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
				lx.pos++
			}
			lx.emit(Ident, start)
		case isDigit(c):
			for lx.pos < len(lx.src) && (isIdentPart(lx.src[lx.pos]) || lx.src[lx.pos] == '.') {
				lx.pos++
			}
			lx.emit(Number, start)
		default:
			lx.pos++
			lx.emit(Punct, start)
		}
	}
}

func (lx *lexer) peek(n int) byte {
	if lx.pos+n < len(lx.src) {
		return lx.src[lx.pos+n]
	}
	return 0
}

var regexPrecedingKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "new": true, "delete": true, "void": true,
	"throw": true, "instanceof": true, "yield": true, "await": true,
}

// regexAllowed decides whether a '/' at the current position starts a regex
// literal rather than a division operator.
func (lx *lexer) regexAllowed() bool {
	if lx.prev < 0 {
		return true
	}
	prev := lx.tokens[lx.prev]
	switch prev.Kind {
	case Ident:
		return regexPrecedingKeywords[prev.Text]
	case Number, String, Regex:
		return false
	case Punct:
		switch prev.Text {
		case ")", "]", "}":
			return false
		case "+", "-":
			// "++" and "--" end an operand: i++ / 2
			return !lx.doubled(lx.prev)
		}
		return true
	}
	return true
}

// doubled reports whether the punct token at i directly follows an identical
// punct token, forming "++" or "--".
func (lx *lexer) doubled(i int) bool {
	if i < 1 {
		return false
	}
	before, tok := lx.tokens[i-1], lx.tokens[i]
	return before.Kind == Punct && before.Text == tok.Text && before.End == tok.Start
}

func isDocOpener(comment string) bool {
	return len(comment) >= 5 && comment[:3] == "/**" && comment != "/**/"
}

func skipLine(src string, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(src string, i int) int {
	i += 2
	for i < len(src) {
		if src[i] == '*' && i+1 < len(src) && src[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return len(src)
}

func skipQuoted(src string, i int, quote byte) int {
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		case '\n':
			// unterminated single-line string
			return i
		}
		i++
	}
	return len(src)
}

// skipTemplate returns the offset just past the closing backtick of the
// template literal starting at i. Substitutions are skipped as code so that
// nested templates and braces inside them do not end the span early.
func skipTemplate(src string, i int) int {
	i++
	for i < len(src) {
		switch {
		case src[i] == '\\':
			i += 2
			continue
		case src[i] == '`':
			return i + 1
		case src[i] == '$' && i+1 < len(src) && src[i+1] == '{':
			i = skipSubstitution(src, i+2)
			continue
		}
		i++
	}
	return len(src)
}

// skipSubstitution skips code inside ${...} and returns the offset after the
// matching '}'.
func skipSubstitution(src string, i int) int {
	depth := 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			i = skipLine(src, i)
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i = skipBlockComment(src, i)
			continue
		case c == '\'' || c == '"':
			i = skipQuoted(src, i, c)
			continue
		case c == '`':
			i = skipTemplate(src, i)
			continue
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return len(src)
}

func skipRegex(src string, i int) int {
	i++
	inClass := false
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				i++
				for i < len(src) && isIdentPart(src[i]) {
					i++
				}
				return i
			}
		case '\n':
			return i
		}
		i++
	}
	return len(src)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c == '#' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// SignificantTokens filters out whitespace and comments.
func SignificantTokens(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Significant() {
			out = append(out, tok)
		}
	}
	return out
}
