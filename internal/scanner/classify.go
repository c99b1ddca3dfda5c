package scanner

import (
	"regexp"
	"strings"
)

// Kind is the structural kind of a documented declaration.
type Kind int

const (
	Unknown Kind = iota
	BlockConstruct
	Initializer
	NamedOperation
	Accessor
	Field
	InstanceField
)

func (k Kind) String() string {
	switch k {
	case BlockConstruct:
		return "block-construct"
	case Initializer:
		return "initializer"
	case NamedOperation:
		return "named-operation"
	case Accessor:
		return "accessor"
	case Field:
		return "field"
	case InstanceField:
		return "instance-field"
	default:
		return "unknown"
	}
}

const ident = `#?[A-Za-z_$][\w$]*`

// assign matches a single '=' that is not part of '==', '===' or '=>'.
const assign = `=(?:[^=>]|$)`

var (
	classPattern      = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?class\s+(` + ident + `)`)
	ctorPattern       = regexp.MustCompile(`^(?:async\s+)?constructor\s*\(`)
	functionPattern   = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(` + ident + `)\s*\(`)
	accessorPattern   = regexp.MustCompile(`^(?:static\s+)?(get|set)\s+(` + ident + `)\s*\(`)
	methodPattern     = regexp.MustCompile(`^(?:(?:async|static)\s+)*\*?\s*(` + ident + `)\s*\(`)
	instancePattern   = regexp.MustCompile(`^this\.(` + ident + `)\s*` + assign)
	bindingPattern    = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+(` + ident + `)\s*` + assign)
	fieldPattern      = regexp.MustCompile(`^(?:(?:static|async)\s+)*(` + ident + `)\s*` + assign)
	whitespacePattern = regexp.MustCompile(`\s+`)
	controlKeywords   = map[string]bool{
		"if": true, "for": true, "while": true, "switch": true, "catch": true,
		"return": true, "function": true, "with": true, "do": true, "else": true,
		"new": true, "typeof": true, "await": true, "yield": true, "super": true,
		"throw": true, "import": true, "export": true, "class": true,
		"const": true, "let": true, "var": true,
	}
)

// ClassifyDeclaration classifies the signature text preceding a declaration's
// opening brace (or its assignment) and returns the kind and declared name.
// Anything it does not recognize is Unknown.
func ClassifyDeclaration(signature string) (Kind, string) {
	sig := strings.TrimSpace(whitespacePattern.ReplaceAllString(signature, " "))
	if sig == "" {
		return Unknown, ""
	}

	if m := classPattern.FindStringSubmatch(sig); m != nil {
		return BlockConstruct, m[1]
	}
	if ctorPattern.MatchString(sig) {
		return Initializer, "constructor"
	}
	if m := functionPattern.FindStringSubmatch(sig); m != nil {
		return NamedOperation, m[1]
	}
	if m := accessorPattern.FindStringSubmatch(sig); m != nil {
		return Accessor, m[1] + " " + m[2]
	}
	if m := instancePattern.FindStringSubmatch(sig); m != nil {
		return InstanceField, m[1]
	}
	if m := bindingPattern.FindStringSubmatch(sig); m != nil {
		return Field, m[1]
	}
	if m := methodPattern.FindStringSubmatch(sig); m != nil && !controlKeywords[m[1]] {
		return NamedOperation, m[1]
	}
	if m := fieldPattern.FindStringSubmatch(sig); m != nil && !controlKeywords[m[1]] {
		return Field, m[1]
	}
	return Unknown, ""
}
