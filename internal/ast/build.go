package ast

import (
	"strconv"
	"strings"
)

// Constructors for building trees in Go. They produce exactly the shapes
// documented in the package comment, so a front-end (or a test) does not have
// to spell out every intermediate node.

// New returns an interior node.
func New(t Type, children ...*Node) *Node {
	return &Node{Type: t, Children: children}
}

// Leaf returns a token node.
func Leaf(t Type, text string) *Node {
	return &Node{Type: t, Text: text}
}

// Ident returns an IDENTIFIER token.
func Ident(name string) *Node {
	return Leaf(Identifier, name)
}

// Keyword returns a C keyword token with its canonical spelling.
func Keyword(t Type) *Node {
	return Leaf(t, keywordSpellings[t])
}

// Str returns an unquoted string expression.
func Str(s string) *Node {
	return New(UnaryExpressionString, Ident(s))
}

// Quoted returns a quoted string expression. s is the content without quotes.
func Quoted(s string) *Node {
	return New(UnaryExpressionStringQuotes, Leaf(StringLiteral, s))
}

// Dec returns a decimal integer expression; negative values get one SIGN child.
func Dec(v int64) *Node {
	if v < 0 {
		// Formatting the magnitude through uint64 keeps MinInt64 intact.
		return Literal(UnaryExpressionDec, strconv.FormatUint(uint64(-(v+1))+1, 10), 1)
	}
	return Literal(UnaryExpressionDec, strconv.FormatInt(v, 10), 0)
}

// Hex returns a hexadecimal integer expression, lit including its 0x prefix.
func Hex(lit string) *Node {
	return Literal(UnaryExpressionHex, lit, 0)
}

// Oct returns an octal integer expression, lit including its leading 0.
func Oct(lit string) *Node {
	return Literal(UnaryExpressionOct, lit, 0)
}

// Literal returns an integer expression of kind t whose literal is followed by
// the given number of SIGN tokens.
func Literal(t Type, lit string, signs int) *Node {
	leaf := DecimalLiteral
	switch t {
	case UnaryExpressionHex:
		leaf = HexLiteral
	case UnaryExpressionOct:
		leaf = OctalLiteral
	}
	n := New(t, Leaf(leaf, lit))
	for i := 0; i < signs; i++ {
		n.Children = append(n.Children, Leaf(Sign, "-"))
	}
	return n
}

// Path splits a dotted/arrow path such as "clock.monotonic.value" or
// "a->b" into a unary string chain.
func Path(path string) []*Node {
	var out []*Node
	link := Invalid
	start := 0
	for i := 0; i < len(path); i++ {
		next, width := Invalid, 0
		switch {
		case path[i] == '.':
			next, width = Dot, 1
		case strings.HasPrefix(path[i:], "->"):
			next, width = Arrow, 2
		default:
			continue
		}
		out = appendPathPart(out, link, path[start:i])
		link = next
		start = i + width
		i += width - 1
	}
	return appendPathPart(out, link, path[start:])
}

func appendPathPart(out []*Node, link Type, part string) []*Node {
	if link == Invalid {
		return append(out, Str(part))
	}
	return append(out, New(link, Str(part)))
}

// Assign returns `key = value;`.
func Assign(key string, value ...*Node) *Node {
	return New(CTFExpressionVal, New(CTFLeft, Path(key)...), New(CTFRight, value...))
}

// AssignType returns `key := <type specifiers>;`.
func AssignType(key string, specs ...*Node) *Node {
	return New(CTFExpressionType, New(CTFLeft, Path(key)...), New(CTFRight, Specifiers(specs...)))
}

// Specifiers returns a TYPE_SPECIFIER_LIST.
func Specifiers(specs ...*Node) *Node {
	return New(TypeSpecifierList, specs...)
}

// Declarators returns a TYPE_DECLARATOR_LIST.
func Declarators(decls ...*Node) *Node {
	return New(TypeDeclaratorList, decls...)
}

// Declarator returns a TYPE_DECLARATOR. Pointer suffixes are placed before
// the identifier and subscripts after it, whatever order they are passed in.
// An empty name gives an abstract declarator.
func Declarator(name string, suffixes ...*Node) *Node {
	d := New(TypeDeclarator)
	for _, s := range suffixes {
		if s.Type == Pointer {
			d.Children = append(d.Children, s)
		}
	}
	if name != "" {
		d.Children = append(d.Children, Ident(name))
	}
	for _, s := range suffixes {
		if s.Type != Pointer {
			d.Children = append(d.Children, s)
		}
	}
	return d
}

// Ptr returns a `*` pointer token.
func Ptr() *Node {
	return New(Pointer)
}

// ConstPtr returns a `* const` pointer token.
func ConstPtr() *Node {
	return New(Pointer, Keyword(ConstTok))
}

// Subscript returns a LENGTH node: `[value]`.
func Subscript(value ...*Node) *Node {
	return New(Length, value...)
}

// Field returns a struct or variant member declaration.
func Field(spec *Node, decls ...*Node) *Node {
	return New(SVDeclaration, spec, Declarators(decls...))
}

// TypedefDecl returns `typedef <spec> <decls>;`.
func TypedefDecl(spec *Node, decls ...*Node) *Node {
	return New(Typedef, Declarators(decls...), spec)
}

// TypealiasDecl returns `typealias <target> := <alias>;`.
func TypealiasDecl(target, alias *Node) *Node {
	return New(Typealias, target, alias)
}

// AliasTarget returns a TYPEALIAS_TARGET; decl may be nil.
func AliasTarget(spec *Node, decl *Node) *Node {
	n := New(TypealiasTarget, spec)
	if decl != nil {
		n.Children = append(n.Children, Declarators(decl))
	}
	return n
}

// AliasName returns a TYPEALIAS_ALIAS; decl may be nil.
func AliasName(spec *Node, decl *Node) *Node {
	n := New(TypealiasAlias)
	if spec != nil {
		n.Children = append(n.Children, spec)
	}
	if decl != nil {
		n.Children = append(n.Children, Declarators(decl))
	}
	return n
}

// StructRef returns `struct name` without a body.
func StructRef(name string) *Node {
	return New(Struct, New(StructName, Ident(name)))
}

// StructDef returns `struct name { members }`; name may be empty.
func StructDef(name string, members ...*Node) *Node {
	n := New(Struct)
	if name != "" {
		n.Children = append(n.Children, New(StructName, Ident(name)))
	}
	n.Children = append(n.Children, New(StructBody, members...))
	return n
}

// VariantRef returns `variant name <tag>` without a body; tag may be empty.
func VariantRef(name, tag string) *Node {
	n := New(Variant, New(VariantName, Ident(name)))
	if tag != "" {
		n.Children = append(n.Children, New(VariantTag, Ident(tag)))
	}
	return n
}

// VariantDef returns `variant name <tag> { members }`; name and tag may be empty.
func VariantDef(name, tag string, members ...*Node) *Node {
	n := New(Variant)
	if name != "" {
		n.Children = append(n.Children, New(VariantName, Ident(name)))
	}
	if tag != "" {
		n.Children = append(n.Children, New(VariantTag, Ident(tag)))
	}
	n.Children = append(n.Children, New(VariantBody, members...))
	return n
}

// EnumRef returns `enum name` without a body.
func EnumRef(name string) *Node {
	return New(Enum, New(EnumName, Ident(name)))
}

// EnumDef returns `enum name : container { enumerators }`. name may be empty
// and container nil.
func EnumDef(name string, container *Node, enumerators ...*Node) *Node {
	n := New(Enum)
	if name != "" {
		n.Children = append(n.Children, New(EnumName, Ident(name)))
	}
	if container != nil {
		n.Children = append(n.Children, New(EnumContainerType, container))
	}
	n.Children = append(n.Children, New(EnumBody, enumerators...))
	return n
}

// Enumerator returns `label`, `label = v` or `label = lo ... hi` depending on
// how many values are given.
func Enumerator(label string, values ...*Node) *Node {
	n := New(EnumEnumerator, Str(label))
	switch len(values) {
	case 0:
	case 1:
		n.Children = append(n.Children, New(EnumValue, values[0]))
	default:
		n.Children = append(n.Children, New(EnumValueRange, values[0], values[1]))
	}
	return n
}
