package ctf

import "fmt"

// Kind identifies the variant of a Declaration.
type Kind int

const (
	KindInteger Kind = iota + 1
	KindFloat
	KindString
	KindStruct
	KindEnum
	KindVariant
	KindArray
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindVariant:
		return "variant"
	case KindArray:
		return "array"
	case KindSequence:
		return "sequence"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ByteOrder of a multi-byte value. The zero value is ByteOrderUnset.
type ByteOrder int

const (
	// ByteOrderUnset means no explicit order; the trace's order applies.
	ByteOrderUnset ByteOrder = iota
	LittleEndian
	BigEndian
)

func (b ByteOrder) String() string {
	switch b {
	case LittleEndian:
		return "le"
	case BigEndian:
		return "be"
	default:
		return "unset"
	}
}

// IsSet reports whether b names an actual byte order.
func (b ByteOrder) IsSet() bool {
	return b == LittleEndian || b == BigEndian
}

// ParseByteOrder accepts the spellings used by configuration and seeds:
// "le"/"little", "be"/"big"/"network". The empty string gives ByteOrderUnset.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "":
		return ByteOrderUnset, nil
	case "le", "little":
		return LittleEndian, nil
	case "be", "big", "network":
		return BigEndian, nil
	default:
		return ByteOrderUnset, fmt.Errorf("invalid byte order %q: must be le or be", s)
	}
}

// Encoding of integer characters and strings.
type Encoding int

const (
	EncodingNone Encoding = iota
	EncodingUTF8
	EncodingASCII
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "UTF8"
	case EncodingASCII:
		return "ASCII"
	default:
		return "none"
	}
}
