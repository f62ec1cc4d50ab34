package metadata

import (
	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
	"github.com/roach88/ctfmeta/internal/tsdl"
)

// parseTypeDeclarator applies one declarator (`*p`, `a[3][len]`) to the type
// given by spec and returns the resulting declaration and the declared
// identifier, "" for abstract declarators. declarator may be nil.
//
// Pointers only take part in alias names; they never produce a declaration.
// Subscripts are applied last-first, so `int a[3][len]` is an array of three
// sequences of int.
func (g *Generator) parseTypeDeclarator(declarator, spec *ast.Node) (ctf.Declaration, string, error) {
	var (
		pointers []*ast.Node
		lengths  []*ast.Node
		name     string
	)
	if declarator != nil {
		if declarator.Type != ast.TypeDeclarator {
			return nil, "", unexpected(declarator, "declarator list")
		}
		for _, child := range declarator.Children {
			switch child.Type {
			case ast.Pointer:
				pointers = append(pointers, child)
			case ast.Identifier:
				name = child.Token()
			case ast.Length:
				lengths = append(lengths, child)
			default:
				return nil, "", unexpected(child, "declarator")
			}
		}
	}

	d, err := g.parseTypeSpecifierList(spec, pointers)
	if err != nil {
		return nil, "", err
	}

	for i := len(lengths) - 1; i >= 0; i-- {
		length := lengths[i]
		first := length.Child(0)
		switch {
		case first != nil && first.Type.IsUnaryInteger():
			n, err := tsdl.UnaryInteger(first)
			if err != nil {
				return nil, "", err
			}
			if n < 1 {
				return nil, "", errorf(length, "array length must be at least 1, got %d", n)
			}
			d = &ctf.Array{Length: n, Element: d}
		case first != nil && first.Type.IsAnyUnaryString():
			path, err := tsdl.ConcatenateUnaryStrings(length.Children)
			if err != nil {
				return nil, "", err
			}
			if lf, ok := g.scope.RLookupIdentifier(path).(*ctf.Integer); ok && lf.Signed {
				return nil, "", errorf(length, "sequence length %s is not an unsigned integer", path)
			}
			d = &ctf.Sequence{LengthName: path, Element: d}
		default:
			return nil, "", errorf(length, "invalid array or sequence length")
		}
	}
	return d, name, nil
}

// parseTypedef handles `typedef <spec> <declarators>;`. Each declarator
// registers one alias in the current scope.
func (g *Generator) parseTypedef(n *ast.Node) error {
	list := n.FirstChildOfType(ast.TypeDeclaratorList)
	spec := n.FirstChildOfType(ast.TypeSpecifierList)
	if list == nil || spec == nil {
		return errorf(n, "malformed typedef")
	}

	for _, declarator := range list.Children {
		d, name, err := g.parseTypeDeclarator(declarator, spec)
		if err != nil {
			return err
		}
		if name == "" {
			return errorf(declarator, "typedef without a name")
		}
		if v, ok := d.(*ctf.Variant); ok && v.Tagged() {
			return errorf(declarator, "typedef of tagged variant is not permitted")
		}
		if err := g.registerAlias(declarator, name, d); err != nil {
			return err
		}
	}
	return nil
}

// parseTypealias handles `typealias <target> := <alias>;`.
func (g *Generator) parseTypealias(n *ast.Node) error {
	var target, alias *ast.Node
	for _, child := range n.Children {
		switch child.Type {
		case ast.TypealiasTarget:
			target = child
		case ast.TypealiasAlias:
			alias = child
		default:
			return unexpected(child, "typealias")
		}
	}
	if target == nil || alias == nil {
		return errorf(n, "malformed typealias")
	}

	d, err := g.parseTypealiasTarget(target)
	if err != nil {
		return err
	}
	if v, ok := d.(*ctf.Variant); ok && v.Tagged() {
		return errorf(target, "typealias of tagged variant is not permitted")
	}

	name, err := parseTypealiasAlias(alias)
	if err != nil {
		return err
	}
	return g.registerAlias(alias, name, d)
}

func (g *Generator) parseTypealiasTarget(target *ast.Node) (ctf.Declaration, error) {
	var spec, list *ast.Node
	for _, child := range target.Children {
		switch child.Type {
		case ast.TypeSpecifierList:
			spec = child
		case ast.TypeDeclaratorList:
			list = child
		default:
			return nil, unexpected(child, "typealias target")
		}
	}

	var declarator *ast.Node
	if list != nil {
		if list.ChildCount() != 1 {
			return nil, errorf(list, "only one type declarator is allowed in the typealias target")
		}
		declarator = list.Child(0)
	}

	d, name, err := g.parseTypeDeclarator(declarator, spec)
	if err != nil {
		return nil, err
	}
	if name != "" {
		return nil, errorf(target, "identifier (%s) not expected in the typealias target", name)
	}
	return d, nil
}

// parseTypealiasAlias returns the alias key: the specifier names followed by
// the pointers of the optional declarator.
func parseTypealiasAlias(alias *ast.Node) (string, error) {
	var spec, list *ast.Node
	for _, child := range alias.Children {
		switch child.Type {
		case ast.TypeSpecifierList:
			spec = child
		case ast.TypeDeclaratorList:
			list = child
		default:
			return "", unexpected(child, "typealias alias")
		}
	}

	var pointers []*ast.Node
	if list != nil {
		if list.ChildCount() != 1 {
			return "", errorf(list, "only one type declarator is allowed in the typealias alias")
		}
		for _, child := range list.Child(0).Children {
			switch child.Type {
			case ast.Pointer:
				pointers = append(pointers, child)
			case ast.Identifier:
				return "", errorf(child, "identifier (%s) not expected in the typealias alias", child.Token())
			default:
				return "", unexpected(child, "typealias alias")
			}
		}
	}
	if spec == nil {
		return "", errorf(alias, "typealias alias without a type name")
	}
	return typeDeclarationString(spec, pointers)
}

func (g *Generator) registerAlias(n *ast.Node, name string, d ctf.Declaration) error {
	if g.scope.LookupType(name) != nil {
		return errorf(n, "type %s has already been defined", name)
	}
	g.scope.RegisterType(name, d)
	return nil
}
