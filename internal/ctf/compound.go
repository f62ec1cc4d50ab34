package ctf

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateField is returned when a struct or variant already has a field
// of the given name.
var ErrDuplicateField = errors.New("duplicate field")

// Field is one named member of a struct or variant.
type Field struct {
	Name string
	Type Declaration
}

// fieldList is the ordered, name-unique member list shared by structs and
// variants.
type fieldList []Field

func (l fieldList) lookup(name string) (Declaration, bool) {
	for _, f := range l {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

func (l fieldList) names() []string {
	out := make([]string, len(l))
	for i, f := range l {
		out[i] = f.Name
	}
	return out
}

func (l fieldList) render(sb *strings.Builder) {
	sb.WriteString(" { ")
	for _, f := range l {
		fmt.Fprintf(sb, "%s %s; ", f.Type, f.Name)
	}
	sb.WriteString("}")
}

// Struct is an ordered aggregate of named fields.
type Struct struct {
	Name   string // registered name, "" for anonymous structs
	Align  int64  // explicit minimum alignment, 0 or 1 if none
	Fields []Field
}

func (*Struct) declaration() {}

// Kind implements Declaration.
func (*Struct) Kind() Kind { return KindStruct }

// Alignment implements Declaration: the largest of the explicit alignment and
// the alignments of the fields.
func (s *Struct) Alignment() int64 {
	align := s.Align
	if align < 1 {
		align = 1
	}
	for _, f := range s.Fields {
		if a := f.Type.Alignment(); a > align {
			align = a
		}
	}
	return align
}

func (s *Struct) String() string {
	var sb strings.Builder
	sb.WriteString("struct")
	if s.Name != "" {
		sb.WriteString(" " + s.Name)
	}
	fieldList(s.Fields).render(&sb)
	return sb.String()
}

// AddField appends a field, failing with ErrDuplicateField on a name clash.
func (s *Struct) AddField(name string, d Declaration) error {
	if s.HasField(name) {
		return fmt.Errorf("%w %q", ErrDuplicateField, name)
	}
	s.Fields = append(s.Fields, Field{Name: name, Type: d})
	return nil
}

// Field returns the declaration of the named field.
func (s *Struct) Field(name string) (Declaration, bool) {
	return fieldList(s.Fields).lookup(name)
}

// HasField reports whether the struct has a field of that name.
func (s *Struct) HasField(name string) bool {
	_, ok := s.Field(name)
	return ok
}

// FieldNames returns the field names in declaration order.
func (s *Struct) FieldNames() []string {
	return fieldList(s.Fields).names()
}

// Variant is a tagged union: exactly one field is present in the binary
// stream, selected by the value of the enum named by Tag.
type Variant struct {
	Name   string // registered name, "" for anonymous variants
	Tag    string // path of the selector enum, "" while untagged
	Fields []Field
}

func (*Variant) declaration() {}

// Kind implements Declaration.
func (*Variant) Kind() Kind { return KindVariant }

// Alignment implements Declaration. A variant itself imposes no alignment;
// the selected field aligns itself.
func (*Variant) Alignment() int64 { return 1 }

func (v *Variant) String() string {
	var sb strings.Builder
	sb.WriteString("variant")
	if v.Name != "" {
		sb.WriteString(" " + v.Name)
	}
	if v.Tag != "" {
		sb.WriteString(" <" + v.Tag + ">")
	}
	fieldList(v.Fields).render(&sb)
	return sb.String()
}

// Tagged reports whether a tag has been bound.
func (v *Variant) Tagged() bool {
	return v.Tag != ""
}

// WithTag returns a copy of v bound to tag. The receiver is left untouched so
// a registered variant can be used with different tags at different sites.
func (v *Variant) WithTag(tag string) *Variant {
	c := *v
	c.Tag = tag
	c.Fields = append([]Field(nil), v.Fields...)
	return &c
}

// AddField appends a choice, failing with ErrDuplicateField on a name clash.
func (v *Variant) AddField(name string, d Declaration) error {
	if v.HasField(name) {
		return fmt.Errorf("%w %q", ErrDuplicateField, name)
	}
	v.Fields = append(v.Fields, Field{Name: name, Type: d})
	return nil
}

// Field returns the declaration of the named choice.
func (v *Variant) Field(name string) (Declaration, bool) {
	return fieldList(v.Fields).lookup(name)
}

// HasField reports whether the variant has a choice of that name.
func (v *Variant) HasField(name string) bool {
	_, ok := v.Field(name)
	return ok
}

// FieldNames returns the choice names in declaration order.
func (v *Variant) FieldNames() []string {
	return fieldList(v.Fields).names()
}

// Array is a fixed-length sequence of elements.
type Array struct {
	Length  int64 // >= 1
	Element Declaration
}

func (*Array) declaration() {}

// Kind implements Declaration.
func (*Array) Kind() Kind { return KindArray }

// Alignment implements Declaration.
func (a *Array) Alignment() int64 { return a.Element.Alignment() }

func (a *Array) String() string {
	return fmt.Sprintf("%s[%d]", a.Element, a.Length)
}

// Sequence is a variable-length sequence whose length is read from another
// field of the stream at decode time.
type Sequence struct {
	LengthName string // field path, e.g. "len" or "stream.event.context.n"
	Element    Declaration
}

func (*Sequence) declaration() {}

// Kind implements Declaration.
func (*Sequence) Kind() Kind { return KindSequence }

// Alignment implements Declaration.
func (s *Sequence) Alignment() int64 { return s.Element.Alignment() }

func (s *Sequence) String() string {
	return fmt.Sprintf("%s[%s]", s.Element, s.LengthName)
}
