package metadata

import (
	"errors"

	"go.uber.org/zap"

	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
	"github.com/roach88/ctfmeta/internal/tsdl"
)

// Struct, variant and enum specifiers share one protocol:
//
//	body + name      fail if the name exists in the current scope, else build
//	                 and register in the current scope
//	body, no name    build, anonymous
//	no body + name   look the name up outwards
//	neither          fail

// nameOf returns the identifier under a STRUCT_NAME, VARIANT_NAME,
// VARIANT_TAG or ENUM_NAME node.
func nameOf(n *ast.Node) (string, error) {
	id := n.Child(0)
	if id == nil || (id.Type != ast.Identifier && !id.Type.IsKeyword() && !id.Type.IsAnyUnaryString()) {
		return "", errorf(n, "malformed %s", n.Type)
	}
	if id.Type.IsAnyUnaryString() {
		return tsdl.UnaryString(id)
	}
	return id.Token(), nil
}

func (g *Generator) parseStruct(n *ast.Node) (*ctf.Struct, error) {
	var (
		name     string
		hasName  bool
		body     *ast.Node
		align    int64
		hasAlign bool
	)
	for _, child := range n.Children {
		var err error
		switch child.Type {
		case ast.StructName:
			name, err = nameOf(child)
			hasName = true
		case ast.StructBody:
			body = child
		case ast.Align:
			align, err = tsdl.Alignment(child.Child(0))
			hasAlign = true
		default:
			err = unexpected(child, "struct")
		}
		if err != nil {
			return nil, err
		}
	}

	if body == nil {
		if !hasName {
			return nil, errorf(n, "struct with no name and no body")
		}
		s := g.scope.RLookupStruct(name)
		if s == nil {
			return nil, errorf(n, "struct %s is not defined", name)
		}
		return s, nil
	}

	if hasName && g.scope.LookupStruct(name) != nil {
		return nil, errorf(n, "struct %s already defined", name)
	}
	s := &ctf.Struct{Name: name}
	if hasAlign {
		s.Align = align
	}
	err := g.withScope("struct", func() error {
		return g.parseStructBody(body, s)
	})
	if err != nil {
		return nil, err
	}
	if hasName {
		g.scope.RegisterStruct(name, s)
	}
	return s, nil
}

func (g *Generator) parseStructBody(body *ast.Node, s *ctf.Struct) error {
	for _, child := range body.Children {
		var err error
		switch child.Type {
		case ast.SVDeclaration:
			err = g.parseFields(child, "struct", s.AddField)
		case ast.Typedef:
			err = g.parseTypedef(child)
		case ast.Typealias:
			err = g.parseTypealias(child)
		default:
			err = unexpected(child, "struct body")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// parseFields handles one SV_DECLARATION, which may declare several fields
// sharing a type specifier (`uint8_t a, b[2];`). Each field is added with add
// and registered as an identifier of the current scope.
func (g *Generator) parseFields(decl *ast.Node, what string, add func(string, ctf.Declaration) error) error {
	spec := decl.FirstChildOfType(ast.TypeSpecifierList)
	list := decl.FirstChildOfType(ast.TypeDeclaratorList)
	if spec == nil || list == nil {
		return errorf(decl, "%s: malformed field declaration", what)
	}
	for _, declarator := range list.Children {
		d, name, err := g.parseTypeDeclarator(declarator, spec)
		if err != nil {
			return err
		}
		if name == "" {
			return errorf(declarator, "%s: field without a name", what)
		}
		if err := add(name, d); err != nil {
			if errors.Is(err, ctf.ErrDuplicateField) {
				return errorf(declarator, "%s: duplicate field %s", what, name)
			}
			return wrapf(declarator, err, "%s: cannot add field %s", what, name)
		}
		g.scope.RegisterIdentifier(name, d)
	}
	return nil
}

func (g *Generator) parseVariant(n *ast.Node) (*ctf.Variant, error) {
	var (
		name    string
		hasName bool
		tag     string
		tagNode *ast.Node
		body    *ast.Node
	)
	for _, child := range n.Children {
		var err error
		switch child.Type {
		case ast.VariantName:
			name, err = nameOf(child)
			hasName = true
		case ast.VariantTag:
			tag, err = nameOf(child)
			tagNode = child
		case ast.VariantBody:
			body = child
		default:
			err = unexpected(child, "variant")
		}
		if err != nil {
			return nil, err
		}
	}

	var v *ctf.Variant
	if body == nil {
		if !hasName {
			return nil, errorf(n, "variant with no name and no body")
		}
		v = g.scope.RLookupVariant(name)
		if v == nil {
			return nil, errorf(n, "variant %s is not defined", name)
		}
	} else {
		if hasName && g.scope.LookupVariant(name) != nil {
			return nil, errorf(n, "variant %s already defined", name)
		}
		v = &ctf.Variant{Name: name}
		err := g.withScope("variant", func() error {
			return g.parseVariantBody(body, v)
		})
		if err != nil {
			return nil, err
		}
		if hasName {
			g.scope.RegisterVariant(name, v)
		}
	}

	if tagNode == nil {
		return v, nil
	}
	if d := g.scope.RLookupIdentifier(tag); d != nil {
		if _, ok := d.(*ctf.Enum); !ok {
			return nil, errorf(tagNode, "variant tag %s is a %s, not an enum", tag, d.Kind())
		}
	}
	return v.WithTag(tag), nil
}

func (g *Generator) parseVariantBody(body *ast.Node, v *ctf.Variant) error {
	for _, child := range body.Children {
		var err error
		switch child.Type {
		case ast.SVDeclaration:
			err = g.parseFields(child, "variant", v.AddField)
		case ast.Typedef:
			err = g.parseTypedef(child)
		case ast.Typealias:
			err = g.parseTypealias(child)
		default:
			err = unexpected(child, "variant body")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// defaultEnumContainer is the alias an enum without explicit container uses.
const defaultEnumContainer = "int"

func (g *Generator) parseEnum(n *ast.Node) (*ctf.Enum, error) {
	var (
		name      string
		hasName   bool
		container *ast.Node
		body      *ast.Node
	)
	for _, child := range n.Children {
		var err error
		switch child.Type {
		case ast.EnumName:
			name, err = nameOf(child)
			hasName = true
		case ast.EnumContainerType:
			container = child
		case ast.EnumBody:
			body = child
		default:
			err = unexpected(child, "enum")
		}
		if err != nil {
			return nil, err
		}
	}

	if body == nil {
		if !hasName {
			return nil, errorf(n, "enum with no name and no body")
		}
		e := g.scope.RLookupEnum(name)
		if e == nil {
			return nil, errorf(n, "enum %s is not defined", name)
		}
		return e, nil
	}

	if hasName && g.scope.LookupEnum(name) != nil {
		return nil, errorf(n, "enum %s already defined", name)
	}
	ci, err := g.enumContainer(n, container)
	if err != nil {
		return nil, err
	}
	e := &ctf.Enum{Name: name, Container: ci}
	err = g.withScope("enum", func() error {
		return g.parseEnumBody(body, e)
	})
	if err != nil {
		return nil, err
	}
	if hasName {
		g.scope.RegisterEnum(name, e)
	}
	return e, nil
}

func (g *Generator) enumContainer(n, container *ast.Node) (*ctf.Integer, error) {
	if container == nil {
		d := g.scope.RLookupType(defaultEnumContainer)
		if d == nil {
			return nil, errorf(n, "enum container type implicit and type %s not defined", defaultEnumContainer)
		}
		ci, ok := d.(*ctf.Integer)
		if !ok {
			return nil, errorf(n, "enum container type implicit and type %s is not an integer", defaultEnumContainer)
		}
		return ci, nil
	}

	d, err := g.parseTypeSpecifierList(container.Child(0), nil)
	if err != nil {
		return nil, err
	}
	ci, ok := d.(*ctf.Integer)
	if !ok {
		return nil, errorf(container, "enum container type must be an integer, got %s", d.Kind())
	}
	return ci, nil
}

func (g *Generator) parseEnumBody(body *ast.Node, e *ctf.Enum) error {
	// The first implicit value is 0.
	lastHigh := int64(-1)
	for _, child := range body.Children {
		if child.Type != ast.EnumEnumerator {
			return unexpected(child, "enum body")
		}
		high, err := g.parseEnumerator(child, e, lastHigh)
		if err != nil {
			return err
		}
		lastHigh = high
	}
	return nil
}

// parseEnumerator adds one `label`, `label = v` or `label = lo ... hi` and
// returns the high bound it used.
func (g *Generator) parseEnumerator(n *ast.Node, e *ctf.Enum, lastHigh int64) (int64, error) {
	var (
		label    string
		hasLabel bool
		low      int64
		high     int64
		explicit bool
	)
	for _, child := range n.Children {
		var err error
		switch {
		case child.Type.IsAnyUnaryString():
			label, err = tsdl.UnaryString(child)
			hasLabel = true
		case child.Type == ast.EnumValue:
			low, err = tsdl.UnaryInteger(child.Child(0))
			high = low
			explicit = true
		case child.Type == ast.EnumValueRange:
			low, err = tsdl.UnaryInteger(child.Child(0))
			if err == nil {
				high, err = tsdl.UnaryInteger(child.Child(1))
			}
			explicit = true
		default:
			err = unexpected(child, "enumerator")
		}
		if err != nil {
			return 0, err
		}
	}
	if !hasLabel {
		return 0, errorf(n, "enumerator without a label")
	}

	if !explicit {
		low = lastHigh + 1
		high = low
	}
	if low > high {
		return 0, errorf(n, "enum low value greater than high value for %s", label)
	}
	if explicit && (!inContainerRange(e.Container, low) || !inContainerRange(e.Container, high)) {
		return 0, errorf(n, "enum value %s out of range of its container", label)
	}
	if err := e.Add(low, high, label); err != nil {
		return 0, wrapf(n, err, "enum declarator values overlap")
	}
	g.log.Debug("enumerator",
		zap.String("label", label), zap.Int64("low", low), zap.Int64("high", high))
	return high, nil
}

// inContainerRange checks v against the container. Unsigned 64-bit values
// arrive reinterpreted as int64 and always fit.
func inContainerRange(c *ctf.Integer, v int64) bool {
	if !c.Signed && c.Size >= 64 {
		return true
	}
	return c.InRange(v)
}
