package metadata

import (
	"strings"

	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
	"github.com/roach88/ctfmeta/internal/tsdl"
)

// parseTypeSpecifierList resolves a TYPE_SPECIFIER_LIST to a declaration.
// The first specifier decides: CTF type blocks and struct/variant/enum are
// parsed, anything else is a named alias looked up under the canonical name
// built from all specifiers and pointers.
func (g *Generator) parseTypeSpecifierList(spec *ast.Node, pointers []*ast.Node) (ctf.Declaration, error) {
	if spec == nil || spec.Type != ast.TypeSpecifierList {
		return nil, errorf(spec, "expected a type specifier list")
	}
	first := spec.Child(0)
	if first == nil {
		return nil, errorf(spec, "empty type specifier list")
	}

	switch first.Type {
	case ast.FloatingPoint:
		return declaration(g.parseFloat(first))
	case ast.Integer:
		return declaration(g.parseInteger(first))
	case ast.String:
		return declaration(g.parseString(first))
	case ast.Struct:
		return declaration(g.parseStruct(first))
	case ast.Variant:
		return declaration(g.parseVariant(first))
	case ast.Enum:
		return declaration(g.parseEnum(first))
	case ast.Identifier:
		return g.lookupNamedType(spec, pointers)
	default:
		if first.Type.IsKeyword() {
			return g.lookupNamedType(spec, pointers)
		}
		return nil, unexpected(first, "type specifier list")
	}
}

// declaration converts a concrete result, keeping a nil interface on error.
func declaration[T ctf.Declaration](d T, err error) (ctf.Declaration, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (g *Generator) lookupNamedType(spec *ast.Node, pointers []*ast.Node) (ctf.Declaration, error) {
	name, err := typeDeclarationString(spec, pointers)
	if err != nil {
		return nil, err
	}
	d := g.scope.RLookupType(name)
	if d == nil {
		return nil, errorf(spec, "type %s has not been defined", name)
	}
	return d, nil
}

// typeDeclarationString builds the canonical alias key of a specifier list,
// e.g. "unsigned long", "uint8_t *" or "char * const".
func typeDeclarationString(spec *ast.Node, pointers []*ast.Node) (string, error) {
	if spec == nil {
		return "", errorf(nil, "missing type specifier list")
	}
	parts := make([]string, 0, spec.ChildCount())
	for _, child := range spec.Children {
		switch child.Type {
		case ast.Struct, ast.Variant, ast.Enum:
			nameNode := child.Child(0)
			if nameNode == nil || !isNameNode(nameNode.Type) {
				return "", errorf(child, "nameless %s in type name", strings.ToLower(child.Type.String()))
			}
			parts = append(parts, nameNode.Child(0).Token())
		case ast.Integer, ast.FloatingPoint, ast.String:
			return "", errorf(child, "%s block cannot be used as a type name", child.Type)
		case ast.Identifier:
			parts = append(parts, child.Token())
		default:
			if !child.Type.IsKeyword() {
				return "", unexpected(child, "type name")
			}
			parts = append(parts, child.Token())
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(parts, " "))
	for _, p := range pointers {
		sb.WriteString(" *")
		if p.ChildCount() > 0 {
			sb.WriteString(" const")
		}
	}
	return sb.String(), nil
}

func isNameNode(t ast.Type) bool {
	return t == ast.StructName || t == ast.VariantName || t == ast.EnumName
}

// attributes walks the `key = value;` children of an integer, float or string
// block. Duplicate keys fail unless AllowDuplicateAttributes is set.
func (g *Generator) attributes(block *ast.Node, what string, fn func(key string, right *ast.Node) error) error {
	seen := make(map[string]bool, block.ChildCount())
	for _, child := range block.Children {
		if child.Type != ast.CTFExpressionVal {
			return unexpected(child, what)
		}
		key, right, err := tsdl.Expression(child)
		if err != nil {
			return err
		}
		if seen[key] && !g.opts.AllowDuplicateAttributes {
			return errorf(child, "%s: duplicate attribute %s", what, key)
		}
		seen[key] = true
		if err := fn(key, right); err != nil {
			return err
		}
	}
	return nil
}

// defaultAlignment is 1 for byte-multiple sizes and 8 otherwise.
func defaultAlignment(size int64) int64 {
	if size%8 == 0 {
		return 1
	}
	return 8
}

func (g *Generator) parseInteger(n *ast.Node) (*ctf.Integer, error) {
	var (
		size     int64
		align    int64
		hasAlign bool
	)
	d := &ctf.Integer{
		Base:      10,
		ByteOrder: g.trace.ByteOrder,
		Encoding:  ctf.EncodingNone,
	}

	err := g.attributes(n, "integer", func(key string, right *ast.Node) error {
		var err error
		switch key {
		case tsdl.KeySigned:
			d.Signed, err = tsdl.Signed(right)
		case tsdl.KeyByteOrder:
			d.ByteOrder, err = tsdl.ByteOrder(right, g.trace.ByteOrder)
		case tsdl.KeySize:
			size, err = tsdl.Size(right)
		case tsdl.KeyAlign:
			align, err = tsdl.Alignment(right)
			hasAlign = true
		case tsdl.KeyBase:
			d.Base, err = tsdl.Base(right)
		case tsdl.KeyEncoding:
			d.Encoding, err = tsdl.Encoding(right)
		case tsdl.KeyMap:
			d.Clock = tsdl.ClockName(right)
		default:
			return errorf(right, "integer: unknown attribute %s", key)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if size == 0 {
		return nil, errorf(n, "integer size not specified")
	}
	if !hasAlign {
		align = defaultAlignment(size)
	}
	d.Size = size
	d.Align = align
	return d, nil
}

func (g *Generator) parseFloat(n *ast.Node) (*ctf.Float, error) {
	var (
		align    int64
		hasAlign bool
	)
	d := &ctf.Float{ByteOrder: g.trace.ByteOrder}

	err := g.attributes(n, "float", func(key string, right *ast.Node) error {
		var err error
		switch key {
		case tsdl.KeyExponentDigit:
			d.ExponentDigits, err = tsdl.NonNegative(right, tsdl.KeyExponentDigit)
		case tsdl.KeyMantissaDigit:
			d.MantissaDigits, err = tsdl.NonNegative(right, tsdl.KeyMantissaDigit)
		case tsdl.KeyByteOrder:
			d.ByteOrder, err = tsdl.ByteOrder(right, g.trace.ByteOrder)
		case tsdl.KeyAlign:
			align, err = tsdl.Alignment(right)
			hasAlign = true
		default:
			return errorf(right, "float: unknown attribute %s", key)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if d.Size() == 0 {
		return nil, errorf(n, "float missing size attribute")
	}
	if !hasAlign {
		align = defaultAlignment(d.Size())
	}
	d.Align = align
	return d, nil
}

func (g *Generator) parseString(n *ast.Node) (*ctf.String, error) {
	d := &ctf.String{Encoding: ctf.EncodingUTF8}
	err := g.attributes(n, "string", func(key string, right *ast.Node) error {
		if key != tsdl.KeyEncoding {
			return errorf(right, "string: unknown attribute %s", key)
		}
		var err error
		d.Encoding, err = tsdl.Encoding(right)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
