package metadata

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
)

func TestGenerateMinimalTrace(t *testing.T) {
	tr := generate(t, doc(leTrace()))

	assert.Equal(t, ctf.LittleEndian, tr.ByteOrder)
	assert.Equal(t, "1.8", tr.Version())
	require.Len(t, tr.Streams, 1, "a stream without id is synthesized")
	assert.Nil(t, tr.Streams[0].ID)
	assert.Empty(t, tr.Streams[0].Events)
	assert.Nil(t, tr.PacketHeader)
}

func TestGenerateTraceBlockCount(t *testing.T) {
	err := generateErr(t, doc(), Options{})
	assert.Contains(t, err.Error(), "missing trace block")

	err = generateErr(t, doc(leTrace(), leTrace()), Options{})
	assert.Contains(t, err.Error(), "only one trace block is allowed")
}

func TestGenerateRejectsUnexpectedRootChild(t *testing.T) {
	err := generateErr(t, doc(leTrace(), integer(8)), Options{})
	assert.Contains(t, err.Error(), "unexpected INTEGER in document root")

	_, err = Generate(ast.New(ast.Trace), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a ROOT node")
}

func TestGeneratorSingleUse(t *testing.T) {
	g := NewGenerator(Options{})
	_, err := g.Generate(doc(leTrace()))
	require.NoError(t, err)

	_, err = g.Generate(doc(leTrace()))
	assert.ErrorIs(t, err, errGeneratorUsed)
}

func TestGenerateErrorIsPositioned(t *testing.T) {
	trace := traceBlock(ast.Assign("major", ast.Dec(1)))
	trace.Pos = ast.Pos{Line: 3, Column: 1}

	err := generateErr(t, doc(trace), Options{})

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ast.Pos{Line: 3, Column: 1}, pe.Pos)
	assert.Equal(t, "3:1: trace byte order not set", err.Error())
}

func TestTraceAttributesOnce(t *testing.T) {
	tests := []struct {
		name string
		attr *ast.Node
		want string
	}{
		{"major", ast.Assign("major", ast.Dec(2)), "major is already set"},
		{"minor", ast.Assign("minor", ast.Dec(2)), "minor is already set"},
		{"byte_order", ast.Assign("byte_order", ast.Str("le")), "byte_order is already set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := generateErr(t, doc(leTrace(tt.attr)), Options{})
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	err := generateErr(t, withStd(leTrace(headerWithStreamID(), headerWithStreamID())), Options{})
	assert.Contains(t, err.Error(), "packet.header already defined")
}

func TestTraceVersionValues(t *testing.T) {
	err := generateErr(t, doc(traceBlock(
		ast.Assign("major", ast.Dec(-1)),
		ast.Assign("byte_order", ast.Str("le")),
	)), Options{})
	assert.Contains(t, err.Error(), "invalid value for major/minor")
}

func TestByteOrderPrecedence(t *testing.T) {
	t.Run("seed and text agree", func(t *testing.T) {
		tr, err := Generate(doc(leTrace()), Options{ByteOrder: ctf.LittleEndian})
		require.NoError(t, err)
		assert.Equal(t, ctf.LittleEndian, tr.ByteOrder)
	})

	t.Run("seed and text disagree", func(t *testing.T) {
		err := generateErr(t, doc(leTrace()), Options{ByteOrder: ctf.BigEndian})
		assert.Contains(t, err.Error(), "byte order mismatch: magic number says be but metadata says le")
	})

	t.Run("seed only", func(t *testing.T) {
		trace := traceBlock(ast.Assign("major", ast.Dec(1)), ast.Assign("minor", ast.Dec(8)))
		tr, err := Generate(doc(trace), Options{ByteOrder: ctf.BigEndian})
		require.NoError(t, err)
		assert.Equal(t, ctf.BigEndian, tr.ByteOrder)
	})

	t.Run("neither", func(t *testing.T) {
		trace := traceBlock(ast.Assign("major", ast.Dec(1)))
		err := generateErr(t, doc(trace), Options{})
		assert.Contains(t, err.Error(), "trace byte order not set")
	})

	t.Run("native resolves to seed", func(t *testing.T) {
		trace := traceBlock(ast.Assign("byte_order", ast.Str("native")))
		tr, err := Generate(doc(trace), Options{ByteOrder: ctf.BigEndian})
		require.NoError(t, err)
		assert.Equal(t, ctf.BigEndian, tr.ByteOrder)
	})

	t.Run("native without seed", func(t *testing.T) {
		trace := traceBlock(ast.Assign("byte_order", ast.Str("native")))
		err := generateErr(t, doc(trace), Options{})
		assert.Contains(t, err.Error(), "trace byte order not set")
	})

	t.Run("network is big endian", func(t *testing.T) {
		trace := traceBlock(ast.Assign("byte_order", ast.Str("network")))
		tr := generate(t, doc(trace))
		assert.Equal(t, ctf.BigEndian, tr.ByteOrder)
	})
}

func TestByteOrderFixup(t *testing.T) {
	root := withStd(
		alias(integer(32, ast.Assign("byte_order", ast.Str("be"))), "be32"),
		alias(ast.New(ast.FloatingPoint,
			ast.Assign("exp_dig", ast.Dec(8)),
			ast.Assign("mant_dig", ast.Dec(24)),
		), "float"),
		decl(spec(ast.StructDef("pair", field("uint32_t", "a"), field("be32", "b")))),
		traceBlock(
			ast.Assign("major", ast.Dec(1)),
			ast.Assign("minor", ast.Dec(8)),
			headerWithStreamID(),
			ast.Assign("byte_order", ast.Str("le")),
		),
	)
	g := NewGenerator(Options{})
	tr, err := g.Generate(root)
	require.NoError(t, err)

	scope := g.RootScope()
	assert.Equal(t, ctf.LittleEndian, scope.LookupType("uint32_t").(*ctf.Integer).ByteOrder)
	assert.Equal(t, ctf.BigEndian, scope.LookupType("be32").(*ctf.Integer).ByteOrder, "explicit byte order is kept")
	assert.Equal(t, ctf.LittleEndian, scope.LookupType("float").(*ctf.Float).ByteOrder)

	pair := scope.LookupStruct("pair")
	require.NotNil(t, pair)
	assert.Equal(t, ctf.LittleEndian, fieldOf(t, pair, "a").(*ctf.Integer).ByteOrder)
	assert.Equal(t, ctf.BigEndian, fieldOf(t, pair, "b").(*ctf.Integer).ByteOrder)

	require.NotNil(t, tr.PacketHeader)
	magic := fieldOf(t, tr.PacketHeader, "magic").(*ctf.Integer)
	assert.Equal(t, ctf.LittleEndian, magic.ByteOrder, "packet header declared before byte_order")
}

func TestUUID(t *testing.T) {
	const text = "2a6422d0-6cee-11e0-8c08-cb07d7b3a564"
	want := uuid.MustParse(text)

	t.Run("from text", func(t *testing.T) {
		tr := generate(t, doc(leTrace(ast.Assign("uuid", ast.Quoted(text)))))
		require.NotNil(t, tr.UUID)
		assert.Equal(t, want, *tr.UUID)
	})

	t.Run("seed agrees", func(t *testing.T) {
		seed := want
		tr, err := Generate(doc(leTrace(ast.Assign("uuid", ast.Quoted(text)))), Options{UUID: &seed})
		require.NoError(t, err)
		assert.Equal(t, want, *tr.UUID)
	})

	t.Run("seed disagrees", func(t *testing.T) {
		seed := uuid.MustParse("00000000-0000-0000-0000-000000000001")
		err := generateErr(t, doc(leTrace(ast.Assign("uuid", ast.Quoted(text)))), Options{UUID: &seed})
		assert.Contains(t, err.Error(), "UUID mismatch")
	})

	t.Run("seed only", func(t *testing.T) {
		seed := want
		tr, err := Generate(doc(leTrace()), Options{UUID: &seed})
		require.NoError(t, err)
		assert.Equal(t, want, *tr.UUID)
	})

	t.Run("malformed", func(t *testing.T) {
		err := generateErr(t, doc(leTrace(ast.Assign("uuid", ast.Quoted("2a6422d06cee11e08c08cb07d7b3a564")))), Options{})
		assert.Contains(t, err.Error(), "invalid format for UUID")
	})

	t.Run("twice", func(t *testing.T) {
		err := generateErr(t, doc(leTrace(
			ast.Assign("uuid", ast.Quoted(text)),
			ast.Assign("uuid", ast.Quoted(text)),
		)), Options{})
		assert.Contains(t, err.Error(), "uuid is already set")
	})
}

func TestTraceBlockTypedefIsLocal(t *testing.T) {
	root := withStd(
		leTrace(ast.TypedefDecl(named("uint8_t"), ast.Declarator("trace_byte_t"))),
		event(ast.Assign("name", ast.Str("e")), fields(field("trace_byte_t", "b"))),
	)
	err := generateErr(t, root, Options{})
	assert.Contains(t, err.Error(), "type trace_byte_t has not been defined")
}

func TestUnknownTraceAttributeWarns(t *testing.T) {
	log, logs := observed()
	_, err := Generate(doc(leTrace(ast.Assign("frobnicate", ast.Dec(1)))), Options{Logger: log})
	require.NoError(t, err)

	entries := logs.FilterMessage("unknown attribute").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "trace", ctx["block"])
	assert.Equal(t, "frobnicate", ctx["key"])
}

func TestFingerprintIgnoresAliasOrder(t *testing.T) {
	ev := event(ast.Assign("name", ast.Str("e")), fields(field("uint8_t", "a"), field("uint32_t", "b")))

	a := generate(t, doc(
		alias(integer(8, ast.Assign("align", ast.Dec(8))), "uint8_t"),
		alias(integer(32, ast.Assign("align", ast.Dec(8))), "uint32_t"),
		leTrace(), ev,
	))
	b := generate(t, doc(
		alias(integer(32, ast.Assign("align", ast.Dec(8))), "uint32_t"),
		alias(integer(8, ast.Assign("align", ast.Dec(8))), "uint8_t"),
		leTrace(), ev,
	))

	fa, err := ctf.Fingerprint(a)
	require.NoError(t, err)
	fb, err := ctf.Fingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}
