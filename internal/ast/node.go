package ast

import (
	"fmt"
	"strings"
)

// Type is the tag of an AST node. The set is closed: only the constants below
// are valid, and the metadata compiler switches over them exhaustively.
type Type int

const (
	Invalid Type = iota

	// Document structure.
	Root
	Declaration
	Trace
	Stream
	Event
	Clock
	Env
	Callsite

	// Type declarations.
	Typedef
	Typealias
	TypealiasTarget
	TypealiasAlias
	TypeSpecifierList
	TypeDeclaratorList
	TypeDeclarator
	SVDeclaration
	Pointer
	Length

	// CTF assignment expressions.
	CTFExpressionVal
	CTFExpressionType
	CTFLeft
	CTFRight

	// Unary expressions and path chaining.
	UnaryExpressionString
	UnaryExpressionStringQuotes
	UnaryExpressionDec
	UnaryExpressionHex
	UnaryExpressionOct
	Dot
	Arrow

	// Leaf tokens.
	Identifier
	StringLiteral
	DecimalLiteral
	HexLiteral
	OctalLiteral
	Sign

	// CTF type specifiers.
	Integer
	FloatingPoint
	String
	Struct
	StructName
	StructBody
	Align
	Variant
	VariantName
	VariantTag
	VariantBody
	Enum
	EnumName
	EnumContainerType
	EnumBody
	EnumEnumerator
	EnumValue
	EnumValueRange

	// C type keywords.
	ConstTok
	CharTok
	DoubleTok
	FloatTok
	IntTok
	LongTok
	ShortTok
	SignedTok
	UnsignedTok
	VoidTok
	BoolTok
	ComplexTok
	ImaginaryTok

	numTypes
)

var typeNames = [numTypes]string{
	Invalid:                     "INVALID",
	Root:                        "ROOT",
	Declaration:                 "DECLARATION",
	Trace:                       "TRACE",
	Stream:                      "STREAM",
	Event:                       "EVENT",
	Clock:                       "CLOCK",
	Env:                         "ENV",
	Callsite:                    "CALLSITE",
	Typedef:                     "TYPEDEF",
	Typealias:                   "TYPEALIAS",
	TypealiasTarget:             "TYPEALIAS_TARGET",
	TypealiasAlias:              "TYPEALIAS_ALIAS",
	TypeSpecifierList:           "TYPE_SPECIFIER_LIST",
	TypeDeclaratorList:          "TYPE_DECLARATOR_LIST",
	TypeDeclarator:              "TYPE_DECLARATOR",
	SVDeclaration:               "SV_DECLARATION",
	Pointer:                     "POINTER",
	Length:                      "LENGTH",
	CTFExpressionVal:            "CTF_EXPRESSION_VAL",
	CTFExpressionType:           "CTF_EXPRESSION_TYPE",
	CTFLeft:                     "CTF_LEFT",
	CTFRight:                    "CTF_RIGHT",
	UnaryExpressionString:       "UNARY_EXPRESSION_STRING",
	UnaryExpressionStringQuotes: "UNARY_EXPRESSION_STRING_QUOTES",
	UnaryExpressionDec:          "UNARY_EXPRESSION_DEC",
	UnaryExpressionHex:          "UNARY_EXPRESSION_HEX",
	UnaryExpressionOct:          "UNARY_EXPRESSION_OCT",
	Dot:                         "DOT",
	Arrow:                       "ARROW",
	Identifier:                  "IDENTIFIER",
	StringLiteral:               "STRING_LITERAL",
	DecimalLiteral:              "DECIMAL_LITERAL",
	HexLiteral:                  "HEX_LITERAL",
	OctalLiteral:                "OCTAL_LITERAL",
	Sign:                        "SIGN",
	Integer:                     "INTEGER",
	FloatingPoint:               "FLOATING_POINT",
	String:                      "STRING",
	Struct:                      "STRUCT",
	StructName:                  "STRUCT_NAME",
	StructBody:                  "STRUCT_BODY",
	Align:                       "ALIGN",
	Variant:                     "VARIANT",
	VariantName:                 "VARIANT_NAME",
	VariantTag:                  "VARIANT_TAG",
	VariantBody:                 "VARIANT_BODY",
	Enum:                        "ENUM",
	EnumName:                    "ENUM_NAME",
	EnumContainerType:           "ENUM_CONTAINER_TYPE",
	EnumBody:                    "ENUM_BODY",
	EnumEnumerator:              "ENUM_ENUMERATOR",
	EnumValue:                   "ENUM_VALUE",
	EnumValueRange:              "ENUM_VALUE_RANGE",
	ConstTok:                    "CONSTTOK",
	CharTok:                     "CHARTOK",
	DoubleTok:                   "DOUBLETOK",
	FloatTok:                    "FLOATTOK",
	IntTok:                      "INTTOK",
	LongTok:                     "LONGTOK",
	ShortTok:                    "SHORTTOK",
	SignedTok:                   "SIGNEDTOK",
	UnsignedTok:                 "UNSIGNEDTOK",
	VoidTok:                     "VOIDTOK",
	BoolTok:                     "BOOLTOK",
	ComplexTok:                  "COMPLEXTOK",
	ImaginaryTok:                "IMAGINARYTOK",
}

// keywordSpellings gives the source spelling of C keyword tokens, used when a
// front-end leaves Node.Text empty.
var keywordSpellings = map[Type]string{
	ConstTok:     "const",
	CharTok:      "char",
	DoubleTok:    "double",
	FloatTok:     "float",
	IntTok:       "int",
	LongTok:      "long",
	ShortTok:     "short",
	SignedTok:    "signed",
	UnsignedTok:  "unsigned",
	VoidTok:      "void",
	BoolTok:      "_Bool",
	ComplexTok:   "_Complex",
	ImaginaryTok: "_Imaginary",
}

var typesByName = func() map[string]Type {
	m := make(map[string]Type, numTypes)
	for t, name := range typeNames {
		m[name] = Type(t)
	}
	return m
}()

// String returns the grammar name of the tag, e.g. "TYPE_SPECIFIER_LIST".
func (t Type) String() string {
	if t < 0 || t >= numTypes {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType maps a grammar name back to its tag.
func ParseType(name string) (Type, error) {
	t, ok := typesByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok || t == Invalid {
		return Invalid, fmt.Errorf("unknown node type %q", name)
	}
	return t, nil
}

// IsKeyword reports whether t is a C type keyword token.
func (t Type) IsKeyword() bool {
	return t >= ConstTok && t <= ImaginaryTok
}

// IsUnaryInteger reports whether t is one of the integer literal expressions.
func (t Type) IsUnaryInteger() bool {
	return t == UnaryExpressionDec || t == UnaryExpressionHex || t == UnaryExpressionOct
}

// IsUnaryString reports whether t is a bare (unquoted) string expression.
func (t Type) IsUnaryString() bool {
	return t == UnaryExpressionString
}

// IsAnyUnaryString reports whether t is a quoted or unquoted string expression.
func (t Type) IsAnyUnaryString() bool {
	return t == UnaryExpressionString || t == UnaryExpressionStringQuotes
}

// Pos is a position in the TSDL source. The zero value means unknown.
type Pos struct {
	Line   int `yaml:"line,omitempty" json:"line,omitempty"`
	Column int `yaml:"column,omitempty" json:"column,omitempty"`
}

// IsValid reports whether the position carries a line number.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is one node of the tree. Nodes are treated as immutable once built.
type Node struct {
	Type     Type
	Text     string
	Children []*Node
	Pos      Pos
}

// Child returns the i-th child, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// ChildCount returns the number of children; zero for a nil node.
func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// FirstChildOfType returns the first child tagged t, or nil.
func (n *Node) FirstChildOfType(t Type) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Type == t {
			return c
		}
	}
	return nil
}

// Token returns the source text of a leaf, falling back to the keyword
// spelling for keyword tokens without text.
func (n *Node) Token() string {
	if n == nil {
		return ""
	}
	if n.Text == "" {
		if s, ok := keywordSpellings[n.Type]; ok {
			return s
		}
	}
	return n.Text
}

// String renders the subtree in a compact LISP-like form, mostly for test
// failures and debug logs.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n == nil {
		sb.WriteString("nil")
		return
	}
	if len(n.Children) == 0 {
		if n.Text != "" {
			fmt.Fprintf(sb, "%s:%q", n.Type, n.Text)
			return
		}
		sb.WriteString(n.Type.String())
		return
	}
	sb.WriteByte('(')
	sb.WriteString(n.Type.String())
	if n.Text != "" {
		fmt.Fprintf(sb, ":%q", n.Text)
	}
	for _, c := range n.Children {
		sb.WriteByte(' ')
		c.write(sb)
	}
	sb.WriteByte(')')
}
