package metadata

import (
	"sort"

	"github.com/roach88/ctfmeta/internal/ctf"
)

// Scope is one lexical level of the TSDL namespace. Each level has separate
// namespaces for struct, enum and variant names, one for type aliases
// (typedef/typealias) and one for field identifiers.
//
// Scopes form a chain through parent links that are only used for lookup.
// The Generator pushes a scope when it enters a trace, stream, event, struct,
// variant or enum body and pops it on exit; the root scope lives for the
// whole document.
//
// Register* never fails and silently overwrites. Callers that must reject
// duplicates check Lookup* first.
type Scope struct {
	parent      *Scope
	types       map[string]ctf.Declaration
	structs     map[string]*ctf.Struct
	enums       map[string]*ctf.Enum
	variants    map[string]*ctf.Variant
	identifiers map[string]ctf.Declaration
}

// NewScope returns an empty scope nested in parent. parent is nil for the
// root scope.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:      parent,
		types:       make(map[string]ctf.Declaration),
		structs:     make(map[string]*ctf.Struct),
		enums:       make(map[string]*ctf.Enum),
		variants:    make(map[string]*ctf.Variant),
		identifiers: make(map[string]ctf.Declaration),
	}
}

// Parent returns the enclosing scope, nil at the root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Depth is the number of enclosing scopes.
func (s *Scope) Depth() int {
	d := 0
	for p := s.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// RegisterType binds a type alias in this scope.
func (s *Scope) RegisterType(name string, d ctf.Declaration) { s.types[name] = d }

// RegisterStruct binds a struct name in this scope.
func (s *Scope) RegisterStruct(name string, d *ctf.Struct) { s.structs[name] = d }

// RegisterEnum binds an enum name in this scope.
func (s *Scope) RegisterEnum(name string, d *ctf.Enum) { s.enums[name] = d }

// RegisterVariant binds a variant name in this scope.
func (s *Scope) RegisterVariant(name string, d *ctf.Variant) { s.variants[name] = d }

// RegisterIdentifier binds a field identifier in this scope.
func (s *Scope) RegisterIdentifier(name string, d ctf.Declaration) { s.identifiers[name] = d }

// ReplaceType overwrites the alias name in this scope.
func (s *Scope) ReplaceType(name string, d ctf.Declaration) { s.types[name] = d }

// LookupType looks up an alias in this scope only.
func (s *Scope) LookupType(name string) ctf.Declaration { return s.types[name] }

// LookupStruct looks up a struct name in this scope only.
func (s *Scope) LookupStruct(name string) *ctf.Struct { return s.structs[name] }

// LookupEnum looks up an enum name in this scope only.
func (s *Scope) LookupEnum(name string) *ctf.Enum { return s.enums[name] }

// LookupVariant looks up a variant name in this scope only.
func (s *Scope) LookupVariant(name string) *ctf.Variant { return s.variants[name] }

// LookupIdentifier looks up a field identifier in this scope only.
func (s *Scope) LookupIdentifier(name string) ctf.Declaration { return s.identifiers[name] }

// RLookupType looks up an alias from this scope outwards; the nearest
// binding wins.
func (s *Scope) RLookupType(name string) ctf.Declaration {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.types[name]; ok {
			return d
		}
	}
	return nil
}

// RLookupStruct looks up a struct name from this scope outwards.
func (s *Scope) RLookupStruct(name string) *ctf.Struct {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.structs[name]; ok {
			return d
		}
	}
	return nil
}

// RLookupEnum looks up an enum name from this scope outwards.
func (s *Scope) RLookupEnum(name string) *ctf.Enum {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.enums[name]; ok {
			return d
		}
	}
	return nil
}

// RLookupVariant looks up a variant name from this scope outwards.
func (s *Scope) RLookupVariant(name string) *ctf.Variant {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.variants[name]; ok {
			return d
		}
	}
	return nil
}

// RLookupIdentifier looks up a field identifier from this scope outwards.
func (s *Scope) RLookupIdentifier(name string) ctf.Declaration {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.identifiers[name]; ok {
			return d
		}
	}
	return nil
}

// TypeNames returns the aliases bound in this scope, sorted.
func (s *Scope) TypeNames() []string {
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
