package tsdl

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
)

func rhs(values ...*ast.Node) *ast.Node {
	return ast.New(ast.CTFRight, values...)
}

func word(path string) *ast.Node {
	return rhs(ast.Path(path)...)
}

func TestSize(t *testing.T) {
	v, err := Size(rhs(ast.Dec(32)))
	require.NoError(t, err)
	assert.Equal(t, int64(32), v)

	for name, right := range map[string]*ast.Node{
		"zero":     rhs(ast.Dec(0)),
		"negative": rhs(ast.Dec(-8)),
		"string":   word("eight"),
		"two":      rhs(ast.Dec(8), ast.Dec(8)),
		"empty":    rhs(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Size(right)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid size")
		})
	}
}

func TestAlignment(t *testing.T) {
	v, err := Alignment(rhs(ast.Dec(8)))
	require.NoError(t, err)
	assert.Equal(t, int64(8), v)

	v, err = Alignment(ast.Hex("0x40"))
	require.NoError(t, err)
	assert.Equal(t, int64(64), v)

	for name, n := range map[string]*ast.Node{
		"zero":          rhs(ast.Dec(0)),
		"not pow2":      rhs(ast.Dec(12)),
		"negative":      ast.Dec(-4),
		"string":        word("eight"),
		"two children":  rhs(ast.Dec(8), ast.Dec(8)),
		"nil":           nil,
		"wrong wrapper": ast.New(ast.CTFLeft, ast.Dec(8)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Alignment(n)
			assert.Error(t, err)
		})
	}
}

func TestBase(t *testing.T) {
	tests := []struct {
		right *ast.Node
		want  int
	}{
		{rhs(ast.Dec(2)), 2},
		{rhs(ast.Dec(8)), 8},
		{rhs(ast.Dec(10)), 10},
		{rhs(ast.Dec(16)), 16},
		{word("decimal"), 10},
		{word("dec"), 10},
		{word("d"), 10},
		{word("i"), 10},
		{word("u"), 10},
		{word("hexadecimal"), 16},
		{word("hex"), 16},
		{word("x"), 16},
		{word("X"), 16},
		{word("p"), 16},
		{word("octal"), 8},
		{word("oct"), 8},
		{word("o"), 8},
		{word("binary"), 2},
		{word("b"), 2},
	}
	for _, tt := range tests {
		got, err := Base(tt.right)
		require.NoError(t, err, tt.right.String())
		assert.Equal(t, tt.want, got, tt.right.String())
	}

	for _, bad := range []*ast.Node{rhs(ast.Dec(3)), word("hexa"), rhs(ast.Quoted("")), rhs()} {
		_, err := Base(bad)
		assert.Error(t, err, bad.String())
	}
}

func TestEncoding(t *testing.T) {
	tests := map[string]ctf.Encoding{
		"UTF8":  ctf.EncodingUTF8,
		"ASCII": ctf.EncodingASCII,
		"none":  ctf.EncodingNone,
	}
	for in, want := range tests {
		got, err := Encoding(word(in))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := Encoding(word("utf8"))
	assert.Error(t, err)
	_, err = Encoding(rhs(ast.Dec(1)))
	assert.Error(t, err)
}

func TestSigned(t *testing.T) {
	tests := []struct {
		right *ast.Node
		want  bool
	}{
		{word("true"), true},
		{word("TRUE"), true},
		{word("false"), false},
		{word("FALSE"), false},
		{rhs(ast.Dec(1)), true},
		{rhs(ast.Dec(0)), false},
	}
	for _, tt := range tests {
		got, err := Signed(tt.right)
		require.NoError(t, err, tt.right.String())
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []*ast.Node{word("True"), word("yes"), rhs(ast.Dec(2)), rhs(ast.Dec(-1))} {
		_, err := Signed(bad)
		assert.Error(t, err, bad.String())
	}
}

func TestByteOrder(t *testing.T) {
	tests := []struct {
		token string
		def   ctf.ByteOrder
		want  ctf.ByteOrder
	}{
		{"le", ctf.BigEndian, ctf.LittleEndian},
		{"be", ctf.LittleEndian, ctf.BigEndian},
		{"network", ctf.LittleEndian, ctf.BigEndian},
		{"native", ctf.LittleEndian, ctf.LittleEndian},
		{"native", ctf.BigEndian, ctf.BigEndian},
		{"native", ctf.ByteOrderUnset, ctf.ByteOrderUnset},
	}
	for _, tt := range tests {
		got, err := ByteOrder(word(tt.token), tt.def)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s with default %s", tt.token, tt.def)
	}

	_, err := ByteOrder(word("middle"), ctf.LittleEndian)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "byte order")
	_, err = ByteOrder(rhs(ast.Dec(1)), ctf.LittleEndian)
	assert.Error(t, err)
}

func TestMajorMinorStreamID(t *testing.T) {
	v, err := MajorOrMinor(rhs(ast.Dec(1)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = StreamID(rhs(ast.Hex("0x2")))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	for _, fn := range []func(*ast.Node) (int64, error){MajorOrMinor, StreamID, EventID} {
		_, err := fn(rhs(ast.Dec(-1)))
		assert.Error(t, err)
		_, err = fn(rhs(ast.Dec(1), ast.Dec(2)))
		assert.Error(t, err)
		_, err = fn(word("one"))
		assert.Error(t, err)
	}
}

func TestEventID(t *testing.T) {
	v, err := EventID(rhs(ast.Dec(2147483647)))
	require.NoError(t, err)
	assert.Equal(t, int64(2147483647), v)

	_, err = EventID(rhs(ast.Dec(2147483648)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "something is amiss")
}

func TestEventName(t *testing.T) {
	got, err := EventName(rhs(ast.Quoted("sched_switch")))
	require.NoError(t, err)
	assert.Equal(t, "sched_switch", got)

	got, err = EventName(word("ust.tracepoint"))
	require.NoError(t, err)
	assert.Equal(t, "ust.tracepoint", got)

	_, err = EventName(rhs(ast.Dec(3)))
	assert.Error(t, err)
}

func TestUUID(t *testing.T) {
	const text = "2a6422d0-6cee-11e0-8c08-cb07d7b3a564"
	got, err := UUID(rhs(ast.Quoted(text)))
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse(text), got)

	for _, bad := range []string{
		"not-a-uuid",
		"{2a6422d0-6cee-11e0-8c08-cb07d7b3a564}",
		"2a6422d06cee11e08c08cb07d7b3a564",
		"urn:uuid:2a6422d0-6cee-11e0-8c08-cb07d7b3a564",
		"2a6422d0-6cee-11e0-8c08-cb07d7b3a56g",
		"2a6422d0_6cee-11e0-8c08-cb07d7b3a564",
	} {
		t.Run(bad, func(t *testing.T) {
			_, err := UUID(rhs(ast.Quoted(bad)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid format for UUID")
		})
	}

	_, err = UUID(rhs(ast.Dec(1)))
	assert.Error(t, err)
}

func TestClockName(t *testing.T) {
	assert.Equal(t, "monotonic", ClockName(word("clock.monotonic.value")))
	assert.Equal(t, "", ClockName(word("clock")))
	assert.Equal(t, "", ClockName(rhs(ast.Dec(1))))
	assert.Equal(t, "", ClockName(nil))
}

func TestAttributeErrorsCarryPosition(t *testing.T) {
	right := rhs(ast.Dec(0))
	right.Pos = ast.Pos{Line: 12, Column: 4}

	_, err := Size(right)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 12, pe.Pos.Line)
	assert.Equal(t, "12:4: invalid size", err.Error())
}
