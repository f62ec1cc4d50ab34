package ctf

import (
	"fmt"
	"math/big"
)

// Declaration is a sealed interface over the CTF type declarations.
// Only the types in this package implement it, so switches over the concrete
// types are exhaustive.
type Declaration interface {
	// Kind identifies the concrete declaration.
	Kind() Kind

	// Alignment is the alignment in bits, always a power of two >= 1.
	Alignment() int64

	fmt.Stringer

	declaration() // Sealed
}

// Integer is a fixed-size integer declaration.
type Integer struct {
	Size      int64 // bits, > 0
	Signed    bool
	Base      int // 2, 8, 10 or 16
	ByteOrder ByteOrder
	Encoding  Encoding
	Align     int64
	Clock     string // clock this integer maps to, "" if none
}

func (*Integer) declaration() {}

// Kind implements Declaration.
func (*Integer) Kind() Kind { return KindInteger }

// Alignment implements Declaration.
func (i *Integer) Alignment() int64 { return i.Align }

func (i *Integer) String() string {
	sign := "u"
	if i.Signed {
		sign = "s"
	}
	return fmt.Sprintf("integer(%s%d, base %d, %s, align %d)", sign, i.Size, i.Base, i.ByteOrder, i.Align)
}

// Min returns the smallest representable value.
func (i *Integer) Min() *big.Int {
	if !i.Signed || i.Size <= 0 {
		return new(big.Int)
	}
	m := new(big.Int).Lsh(big.NewInt(1), uint(i.Size-1))
	return m.Neg(m)
}

// Max returns the largest representable value.
func (i *Integer) Max() *big.Int {
	if i.Size <= 0 {
		return new(big.Int)
	}
	bits := uint(i.Size)
	if i.Signed {
		bits--
	}
	m := new(big.Int).Lsh(big.NewInt(1), bits)
	return m.Sub(m, big.NewInt(1))
}

// InRange reports whether v is representable.
func (i *Integer) InRange(v int64) bool {
	b := big.NewInt(v)
	return b.Cmp(i.Min()) >= 0 && b.Cmp(i.Max()) <= 0
}

// WithByteOrder returns a copy of i using byte order bo.
func (i *Integer) WithByteOrder(bo ByteOrder) *Integer {
	c := *i
	c.ByteOrder = bo
	return &c
}

// Float is an IEEE-754 style floating point declaration.
type Float struct {
	ExponentDigits int64
	MantissaDigits int64
	ByteOrder      ByteOrder
	Align          int64
}

func (*Float) declaration() {}

// Kind implements Declaration.
func (*Float) Kind() Kind { return KindFloat }

// Alignment implements Declaration.
func (f *Float) Alignment() int64 { return f.Align }

func (f *Float) String() string {
	return fmt.Sprintf("float(exp %d, mant %d, %s, align %d)", f.ExponentDigits, f.MantissaDigits, f.ByteOrder, f.Align)
}

// Size is the total width in bits.
func (f *Float) Size() int64 {
	return f.ExponentDigits + f.MantissaDigits
}

// WithByteOrder returns a copy of f using byte order bo.
func (f *Float) WithByteOrder(bo ByteOrder) *Float {
	c := *f
	c.ByteOrder = bo
	return &c
}

// String is a null-terminated string declaration.
type String struct {
	Encoding Encoding
}

func (*String) declaration() {}

// Kind implements Declaration.
func (*String) Kind() Kind { return KindString }

// Alignment implements Declaration. Strings are byte aligned.
func (*String) Alignment() int64 { return 8 }

func (s *String) String() string {
	return fmt.Sprintf("string(%s)", s.Encoding)
}

// IsPowerOfTwo reports whether v is a valid alignment.
func IsPowerOfTwo(v int64) bool {
	return v > 0 && v&(v-1) == 0
}
