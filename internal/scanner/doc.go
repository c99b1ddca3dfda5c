package scanner

import (
	"regexp"
	"strings"
)

// Param is one documented parameter.
type Param struct {
	Type        string
	Name        string
	Description string
}

// Returns is the documented return value.
type Returns struct {
	Type        string
	Description string
}

// Doc is a parsed doc comment.
type Doc struct {
	Description []string
	Params      []Param
	Returns     *Returns
	Type        string
}

var (
	leadingStar = regexp.MustCompile(`^\s*\*\s?`)
	paramTag    = regexp.MustCompile(`^@param\s+(?:\{(.+?)\}\s*)?(\[[^\]]+\]|[\w$.]+)\s*(?:-\s*)?(.*)$`)
	returnsTag  = regexp.MustCompile(`^@returns?\s+\{(.+?)\}\s*(?:-\s*)?(.*)$`)
	typeTag     = regexp.MustCompile(`^@type\s+\{(.+?)\}\s*(.*)$`)
)

// AssociateDocComment returns the cleaned text of the doc comment that
// documents the declaration starting at declOffset. The nearest preceding doc
// comment qualifies only when nothing but whitespace separates it from the
// declaration.
func AssociateDocComment(text string, declOffset int) (string, bool) {
	return associate(Tokenize(text), declOffset)
}

func associate(tokens []Token, declOffset int) (string, bool) {
	i := 0
	for i < len(tokens) && tokens[i].Start < declOffset {
		i++
	}
	for i--; i >= 0; i-- {
		switch tokens[i].Kind {
		case Space:
			continue
		case DocComment:
			return CleanDoc(tokens[i].Text), true
		default:
			return "", false
		}
	}
	return "", false
}

// CleanDoc strips comment delimiters and leading asterisks from a doc comment.
func CleanDoc(comment string) string {
	body := strings.TrimPrefix(comment, "/**")
	body = strings.TrimSuffix(body, "*/")

	var lines []string
	for _, raw := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "/" {
			continue
		}
		if trimmed == "*" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, leadingStar.ReplaceAllString(strings.TrimRight(raw, " \t\r"), ""))
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimLeft(l, " \t")
	}
	return strings.Join(lines, "\n")
}

// ParseDoc splits cleaned doc text into description lines and recognized tags.
// Tag lines that do not match a known shape are kept as description.
func ParseDoc(text string) Doc {
	var doc Doc
	if text == "" {
		return doc
	}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "@param"):
			if m := paramTag.FindStringSubmatch(line); m != nil {
				doc.Params = append(doc.Params, Param{Type: m[1], Name: m[2], Description: strings.TrimSpace(m[3])})
				continue
			}
		case strings.HasPrefix(line, "@return"):
			if m := returnsTag.FindStringSubmatch(line); m != nil {
				doc.Returns = &Returns{Type: m[1], Description: strings.TrimSpace(m[2])}
				continue
			}
		case strings.HasPrefix(line, "@type"):
			if m := typeTag.FindStringSubmatch(line); m != nil {
				doc.Type = m[1]
				if d := strings.TrimSpace(m[2]); d != "" {
					doc.Description = append(doc.Description, d)
				}
				continue
			}
		}
		doc.Description = append(doc.Description, raw)
	}
	return doc
}
