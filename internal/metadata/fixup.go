package metadata

import (
	"go.uber.org/zap"

	"github.com/roach88/ctfmeta/internal/ctf"
)

// fixupByteOrder rewrites the declarations registered in s and its parents
// that were built before the trace byte order was known. Only unset byte
// orders change; explicit le/be attributes are kept.
func (g *Generator) fixupByteOrder(s *Scope, bo ctf.ByteOrder) {
	n := 0
	for ; s != nil; s = s.parent {
		for name, d := range s.types {
			s.ReplaceType(name, applyByteOrder(d, bo))
			n++
		}
		for name, d := range s.structs {
			s.RegisterStruct(name, applyByteOrder(d, bo).(*ctf.Struct))
			n++
		}
		for name, d := range s.enums {
			s.RegisterEnum(name, applyByteOrder(d, bo).(*ctf.Enum))
			n++
		}
		for name, d := range s.variants {
			s.RegisterVariant(name, applyByteOrder(d, bo).(*ctf.Variant))
			n++
		}
	}
	g.log.Debug("byte order fixup", zap.Stringer("byte_order", bo), zap.Int("declarations", n))
}

// applyByteOrder returns d with every unset byte order below it replaced by
// bo. Declarations without a byte order are returned as is.
func applyByteOrder(d ctf.Declaration, bo ctf.ByteOrder) ctf.Declaration {
	switch d := d.(type) {
	case *ctf.Integer:
		if d.ByteOrder.IsSet() {
			return d
		}
		return d.WithByteOrder(bo)
	case *ctf.Float:
		if d.ByteOrder.IsSet() {
			return d
		}
		return d.WithByteOrder(bo)
	case *ctf.Enum:
		c := *d
		c.Container = applyByteOrder(d.Container, bo).(*ctf.Integer)
		return &c
	case *ctf.Struct:
		c := *d
		c.Fields = fixupFields(d.Fields, bo)
		return &c
	case *ctf.Variant:
		c := *d
		c.Fields = fixupFields(d.Fields, bo)
		return &c
	case *ctf.Array:
		return &ctf.Array{Length: d.Length, Element: applyByteOrder(d.Element, bo)}
	case *ctf.Sequence:
		return &ctf.Sequence{LengthName: d.LengthName, Element: applyByteOrder(d.Element, bo)}
	default:
		return d
	}
}

func fixupFields(fields []ctf.Field, bo ctf.ByteOrder) []ctf.Field {
	out := make([]ctf.Field, len(fields))
	for i, f := range fields {
		out[i] = ctf.Field{Name: f.Name, Type: applyByteOrder(f.Type, bo)}
	}
	return out
}
