package tsdl

import (
	"math"

	"github.com/google/uuid"

	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
)

// The functions below read the right-hand side (CTF_RIGHT) of one
// `key = value;` attribute. They are pure: the only context they need, the
// trace byte order for "native", is passed explicitly.

// singleInteger returns the value of a right-hand side made of exactly one
// integer literal.
func singleInteger(right *ast.Node) (int64, bool, error) {
	first := right.Child(0)
	if first == nil || !first.Type.IsUnaryInteger() || right.ChildCount() != 1 {
		return 0, false, nil
	}
	v, err := UnaryInteger(first)
	return v, true, err
}

// stringValue concatenates a right-hand side made of a string path.
func stringValue(right *ast.Node) (string, bool, error) {
	if right == nil || !IsUnaryStringChain(right.Children) {
		return "", false, nil
	}
	s, err := ConcatenateUnaryStrings(right.Children)
	return s, err == nil, err
}

// Size reads an integer or float size: one integer >= 1.
func Size(right *ast.Node) (int64, error) {
	v, ok, err := singleInteger(right)
	if err != nil {
		return 0, Wrapf(right, err, "invalid size")
	}
	if !ok || v < 1 {
		return 0, Errorf(right, "invalid size")
	}
	return v, nil
}

// Alignment reads an alignment in bits. It accepts either an integer literal,
// as in `align(8)` after a struct body, or a CTF_RIGHT holding one.
func Alignment(n *ast.Node) (int64, error) {
	if n == nil {
		return 0, Errorf(nil, "invalid alignment")
	}
	if n.Type == ast.CTFRight {
		if n.ChildCount() != 1 {
			return 0, Errorf(n, "invalid alignment")
		}
		return Alignment(n.Child(0))
	}
	if !n.Type.IsUnaryInteger() {
		return 0, Errorf(n, "invalid alignment")
	}
	v, err := UnaryInteger(n)
	if err != nil {
		return 0, Wrapf(n, err, "invalid alignment")
	}
	if !ctf.IsPowerOfTwo(v) {
		return 0, Errorf(n, "invalid value for alignment: %d", v)
	}
	return v, nil
}

// Base reads an integer display base.
func Base(right *ast.Node) (int, error) {
	if v, ok, err := singleInteger(right); ok || err != nil {
		if err != nil {
			return 0, Wrapf(right, err, "invalid base")
		}
		switch v {
		case 2, 8, 10, 16:
			return int(v), nil
		}
		return 0, Errorf(right, "invalid value for base: %d", v)
	}

	s, ok, err := stringValue(right)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, Errorf(right, "invalid value for base")
	}
	switch s {
	case "decimal", "dec", "d", "i", "u":
		return 10, nil
	case "hexadecimal", "hex", "x", "X", "p":
		return 16, nil
	case "octal", "oct", "o":
		return 8, nil
	case "binary", "b":
		return 2, nil
	}
	return 0, Errorf(right, "invalid value for base: %s", s)
}

// Encoding reads UTF8, ASCII or none.
func Encoding(right *ast.Node) (ctf.Encoding, error) {
	s, ok, err := stringValue(right)
	if err != nil {
		return ctf.EncodingNone, err
	}
	if ok {
		switch s {
		case EncodingUTF8:
			return ctf.EncodingUTF8, nil
		case EncodingASCII:
			return ctf.EncodingASCII, nil
		case EncodingNone:
			return ctf.EncodingNone, nil
		}
	}
	return ctf.EncodingNone, Errorf(right, "invalid value for encoding")
}

// Signed reads true/TRUE/false/FALSE or 1/0.
func Signed(right *ast.Node) (bool, error) {
	if v, ok, err := singleInteger(right); ok || err != nil {
		if err != nil {
			return false, Wrapf(right, err, "invalid boolean value")
		}
		switch v {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
		return false, Errorf(right, "invalid boolean value %d", v)
	}

	s, ok, err := stringValue(right)
	if err != nil {
		return false, err
	}
	if ok {
		switch s {
		case "true", "TRUE":
			return true, nil
		case "false", "FALSE":
			return false, nil
		}
	}
	return false, Errorf(right, "invalid boolean value")
}

// ByteOrder reads le, be, network or native. native resolves to def, the
// byte order of the trace being compiled; it may be ctf.ByteOrderUnset while
// the trace block itself is being read.
func ByteOrder(right *ast.Node, def ctf.ByteOrder) (ctf.ByteOrder, error) {
	s, ok, err := stringValue(right)
	if err != nil {
		return ctf.ByteOrderUnset, err
	}
	if ok {
		switch s {
		case ByteOrderLE:
			return ctf.LittleEndian, nil
		case ByteOrderBE, ByteOrderNetwork:
			return ctf.BigEndian, nil
		case ByteOrderNative:
			return def, nil
		}
	}
	return ctf.ByteOrderUnset, Errorf(right, "invalid value for byte order")
}

// Int reads a right-hand side made of exactly one integer literal.
func Int(right *ast.Node) (int64, error) {
	v, ok, err := singleInteger(right)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, Errorf(right, "expected an integer")
	}
	return v, nil
}

// Text reads a right-hand side made of a string, joining dotted paths.
func Text(right *ast.Node) (string, error) {
	s, ok, err := stringValue(right)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", Errorf(right, "expected a string")
	}
	return s, nil
}

// NonNegative reads a single integer >= 0; what names the attribute in
// errors.
func NonNegative(right *ast.Node, what string) (int64, error) {
	v, ok, err := singleInteger(right)
	if err != nil {
		return 0, Wrapf(right, err, "invalid value for %s", what)
	}
	if !ok || v < 0 {
		return 0, Errorf(right, "invalid value for %s", what)
	}
	return v, nil
}

// MajorOrMinor reads a trace version component.
func MajorOrMinor(right *ast.Node) (int64, error) {
	return NonNegative(right, "major/minor")
}

// StreamID reads a stream id.
func StreamID(right *ast.Node) (int64, error) {
	return NonNegative(right, "stream id")
}

// EventID reads an event id. Ids above MaxInt32 cannot come from a sane
// producer and are rejected.
func EventID(right *ast.Node) (int64, error) {
	v, err := NonNegative(right, "event id")
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt32 {
		return 0, Errorf(right, "event id larger than int32, something is amiss: %d", v)
	}
	return v, nil
}

// EventName reads an event name, quoted or not. Dotted names are joined.
func EventName(right *ast.Node) (string, error) {
	s, ok, err := stringValue(right)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", Errorf(right, "invalid value for event name")
	}
	return s, nil
}

// UUID reads a UUID string in the canonical 8-4-4-4-12 form.
func UUID(right *ast.Node) (uuid.UUID, error) {
	first := right.Child(0)
	if first == nil || !first.Type.IsAnyUnaryString() || right.ChildCount() != 1 {
		return uuid.Nil, Errorf(right, "invalid value for UUID")
	}
	s, err := UnaryString(first)
	if err != nil {
		return uuid.Nil, err
	}
	if !isCanonicalUUID(s) {
		return uuid.Nil, Errorf(right, "invalid format for UUID: %q", s)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, Wrapf(right, err, "invalid format for UUID")
	}
	return id, nil
}

// isCanonicalUUID checks the 8-4-4-4-12 layout. uuid.Parse alone also accepts
// the braced, urn and 32-digit forms.
func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch i {
		case 8, 13, 18, 23:
			if s[i] != '-' {
				return false
			}
		default:
			c := s[i]
			if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
				return false
			}
		}
	}
	return true
}

// ClockName extracts the clock name from an integer `map` attribute of the
// form `clock.<name>.value`. It never fails: any other shape gives "".
func ClockName(right *ast.Node) string {
	return right.Child(1).Child(0).Child(0).Token()
}
