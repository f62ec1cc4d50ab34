package tsdl

// Attribute keys and value tokens of the TSDL grammar.
const (
	// Integer, float and string attributes.
	KeySize          = "size"
	KeyAlign         = "align"
	KeySigned        = "signed"
	KeyByteOrder     = "byte_order"
	KeyBase          = "base"
	KeyEncoding      = "encoding"
	KeyMap           = "map"
	KeyExponentDigit = "exp_dig"
	KeyMantissaDigit = "mant_dig"

	// Trace attributes.
	KeyMajor        = "major"
	KeyMinor        = "minor"
	KeyUUID         = "uuid"
	KeyPacketHeader = "packet.header"

	// Stream attributes.
	KeyID            = "id"
	KeyEventHeader   = "event.header"
	KeyEventContext  = "event.context"
	KeyPacketContext = "packet.context"

	// Event attributes.
	KeyName     = "name"
	KeyStreamID = "stream_id"
	KeyContext  = "context"
	KeyFields   = "fields"
	KeyLogLevel = "loglevel"

	// Callsite attributes.
	KeyFunc = "func"
	KeyFile = "file"
	KeyLine = "line"
	KeyIP   = "ip"
)

// Byte order tokens.
const (
	ByteOrderLE      = "le"
	ByteOrderBE      = "be"
	ByteOrderNetwork = "network"
	ByteOrderNative  = "native"
)

// Encoding tokens.
const (
	EncodingUTF8  = "UTF8"
	EncodingASCII = "ASCII"
	EncodingNone  = "none"
)

// Path separators used by ConcatenateUnaryStrings.
const (
	SeparatorDot   = "."
	SeparatorArrow = "->"
)
