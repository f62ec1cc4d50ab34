package tsdl

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctfmeta/internal/ast"
)

func TestUnaryIntegerSignParity(t *testing.T) {
	tests := []struct {
		name    string
		signs   int
		want    int64
		wantErr bool
	}{
		{"one child is positive", 0, 42, false},
		{"two children negate", 1, -42, false},
		{"three children are positive", 2, 42, false},
		{"four children negate", 3, -42, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := ast.Literal(ast.UnaryExpressionDec, "42", tt.signs)
			require.Equal(t, tt.signs+1, n.ChildCount())

			got, err := UnaryInteger(n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnaryIntegerNoChildren(t *testing.T) {
	_, err := UnaryInteger(ast.New(ast.UnaryExpressionDec))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "empty integer literal")
}

func TestUnaryIntegerWrongNode(t *testing.T) {
	_, err := UnaryInteger(ast.Str("x"))
	require.Error(t, err)
	_, err = UnaryInteger(nil)
	require.Error(t, err)
}

func TestUnaryIntegerNegativeBuilders(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 255, -128, math.MaxInt64, math.MinInt64} {
		got, err := UnaryInteger(ast.Dec(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestParseIntegerLiteral(t *testing.T) {
	tests := []struct {
		t       ast.Type
		lit     string
		want    int64
		wantErr bool
	}{
		{ast.UnaryExpressionDec, "0", 0, false},
		{ast.UnaryExpressionDec, "1234", 1234, false},
		{ast.UnaryExpressionDec, "32U", 32, false},
		{ast.UnaryExpressionDec, "32ul", 32, false},
		{ast.UnaryExpressionDec, "64LL", 64, false},
		{ast.UnaryExpressionHex, "0x10", 16, false},
		{ast.UnaryExpressionHex, "0XfF", 255, false},
		{ast.UnaryExpressionHex, "0xFFFFFFFFFFFFFFFF", -1, false},
		{ast.UnaryExpressionHex, "0x8000000000000000", math.MinInt64, false},
		{ast.UnaryExpressionOct, "017", 15, false},
		{ast.UnaryExpressionOct, "0", 0, false},
		{ast.UnaryExpressionDec, "18446744073709551616", 0, true},
		{ast.UnaryExpressionDec, "12a", 0, true},
		{ast.UnaryExpressionOct, "09", 0, true},
		{ast.UnaryExpressionHex, "0x", 0, true},
		{ast.UnaryExpressionDec, "u", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.t.String()+"/"+tt.lit, func(t *testing.T) {
			got, err := ParseIntegerLiteral(tt.t, tt.lit)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnaryIntegerWrapsCause(t *testing.T) {
	_, err := UnaryInteger(ast.Literal(ast.UnaryExpressionDec, "99999999999999999999", 0))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.True(t, errors.Is(err, strconv.ErrRange))
	assert.Contains(t, pe.Message, "invalid integer literal")
}

func TestUnaryString(t *testing.T) {
	s, err := UnaryString(ast.Str("name"))
	require.NoError(t, err)
	assert.Equal(t, "name", s)

	s, err = UnaryString(ast.Quoted("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", s)

	s, err = UnaryString(ast.New(ast.UnaryExpressionStringQuotes, ast.Leaf(ast.StringLiteral, `"quoted"`)))
	require.NoError(t, err)
	assert.Equal(t, "quoted", s)

	s, err = UnaryString(ast.New(ast.UnaryExpressionString, ast.Keyword(ast.IntTok)))
	require.NoError(t, err)
	assert.Equal(t, "int", s)

	_, err = UnaryString(ast.Dec(1))
	assert.Error(t, err)
	_, err = UnaryString(ast.New(ast.UnaryExpressionString))
	assert.Error(t, err)
}

func TestConcatenateUnaryStrings(t *testing.T) {
	tests := []struct {
		path string
	}{
		{"a"},
		{"packet.header"},
		{"clock.monotonic.value"},
		{"a->b"},
		{"stream.event.context->len"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			nodes := ast.Path(tt.path)
			assert.True(t, IsUnaryStringChain(nodes))
			got, err := ConcatenateUnaryStrings(nodes)
			require.NoError(t, err)
			assert.Equal(t, tt.path, got)
		})
	}
}

func TestConcatenateUnaryStringsRejects(t *testing.T) {
	nodes := []*ast.Node{ast.Str("a"), ast.Str("b")}
	assert.False(t, IsUnaryStringChain(nodes))
	_, err := ConcatenateUnaryStrings(nodes)
	assert.Error(t, err)

	assert.False(t, IsUnaryStringChain(nil))
	assert.False(t, IsUnaryStringChain([]*ast.Node{ast.Dec(1)}))
	assert.False(t, IsUnaryStringChain([]*ast.Node{ast.Str("a"), ast.New(ast.Dot, ast.Dec(1))}))
}

func TestExpression(t *testing.T) {
	key, right, err := Expression(ast.Assign("packet.header", ast.Dec(3)))
	require.NoError(t, err)
	assert.Equal(t, "packet.header", key)
	assert.Equal(t, ast.CTFRight, right.Type)
	assert.Equal(t, 1, right.ChildCount())

	_, _, err = Expression(ast.Str("x"))
	assert.Error(t, err)
	_, _, err = Expression(ast.New(ast.CTFExpressionVal, ast.New(ast.CTFLeft, ast.Str("k")), ast.New(ast.CTFRight)))
	assert.Error(t, err)
}

func TestParseErrorFormat(t *testing.T) {
	n := ast.Str("x")
	n.Pos = ast.Pos{Line: 3, Column: 7}

	err := Errorf(n, "bad %s", "thing")
	assert.Equal(t, "3:7: bad thing", err.Error())

	cause := errors.New("cause")
	werr := Wrapf(nil, cause, "outer")
	assert.Equal(t, "outer: cause", werr.Error())
	assert.True(t, errors.Is(werr, cause))

	assert.False(t, IsParseError(cause))
	assert.True(t, IsParseError(werr))
}
