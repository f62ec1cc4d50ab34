package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
)

func doc(children ...*ast.Node) *ast.Node {
	return ast.New(ast.Root, children...)
}

func decl(n *ast.Node) *ast.Node {
	return ast.New(ast.Declaration, n)
}

func spec(specs ...*ast.Node) *ast.Node {
	return ast.Specifiers(specs...)
}

func named(name string) *ast.Node {
	return spec(ast.Ident(name))
}

func integer(size int64, attrs ...*ast.Node) *ast.Node {
	return ast.New(ast.Integer, append([]*ast.Node{ast.Assign("size", ast.Dec(size))}, attrs...)...)
}

func signed(size int64, attrs ...*ast.Node) *ast.Node {
	return integer(size, append([]*ast.Node{ast.Assign("signed", ast.Str("true"))}, attrs...)...)
}

// alias returns the root declaration `typealias <target> := name;`.
func alias(target *ast.Node, name string) *ast.Node {
	return decl(aliasStmt(target, name))
}

func aliasStmt(target *ast.Node, name string) *ast.Node {
	return ast.TypealiasDecl(ast.AliasTarget(spec(target), nil), ast.AliasName(named(name), nil))
}

func field(typeName, name string, suffixes ...*ast.Node) *ast.Node {
	return ast.Field(named(typeName), ast.Declarator(name, suffixes...))
}

func traceBlock(attrs ...*ast.Node) *ast.Node {
	return ast.New(ast.Trace, attrs...)
}

// leTrace is a minimal valid trace block.
func leTrace(extra ...*ast.Node) *ast.Node {
	return traceBlock(append([]*ast.Node{
		ast.Assign("major", ast.Dec(1)),
		ast.Assign("minor", ast.Dec(8)),
		ast.Assign("byte_order", ast.Str("le")),
	}, extra...)...)
}

// headerWithStreamID is `packet.header := struct { uint32_t magic; uint32_t stream_id; };`.
func headerWithStreamID() *ast.Node {
	return ast.AssignType("packet.header", ast.StructDef("",
		field("uint32_t", "magic"),
		field("uint32_t", "stream_id"),
	))
}

func stream(attrs ...*ast.Node) *ast.Node {
	return ast.New(ast.Stream, attrs...)
}

func event(attrs ...*ast.Node) *ast.Node {
	return ast.New(ast.Event, attrs...)
}

func fields(members ...*ast.Node) *ast.Node {
	return ast.AssignType("fields", ast.StructDef("", members...))
}

// stdTypes declares the usual fixed-width aliases.
func stdTypes() []*ast.Node {
	return []*ast.Node{
		alias(integer(8, ast.Assign("align", ast.Dec(8))), "uint8_t"),
		alias(integer(16, ast.Assign("align", ast.Dec(8))), "uint16_t"),
		alias(integer(32, ast.Assign("align", ast.Dec(8))), "uint32_t"),
		alias(integer(64, ast.Assign("align", ast.Dec(8))), "uint64_t"),
		alias(signed(32, ast.Assign("align", ast.Dec(8))), "int32_t"),
	}
}

func withStd(children ...*ast.Node) *ast.Node {
	return doc(append(stdTypes(), children...)...)
}

func generate(t *testing.T, root *ast.Node) *ctf.Trace {
	t.Helper()
	tr, err := Generate(root, Options{})
	require.NoError(t, err)
	require.NotNil(t, tr)
	return tr
}

func generateErr(t *testing.T, root *ast.Node, opts Options) error {
	t.Helper()
	tr, err := Generate(root, opts)
	require.Error(t, err)
	require.Nil(t, tr)
	return err
}

// observed returns a logger capturing entries at warn level and above.
func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return zap.New(core), logs
}

// eventFields returns the field struct of the only event of the only stream.
func eventFields(t *testing.T, tr *ctf.Trace) *ctf.Struct {
	t.Helper()
	require.Len(t, tr.Streams, 1)
	require.Len(t, tr.Streams[0].Events, 1)
	s := tr.Streams[0].Events[0].Fields
	require.NotNil(t, s)
	return s
}

func fieldOf(t *testing.T, s *ctf.Struct, name string) ctf.Declaration {
	t.Helper()
	d, ok := s.Field(name)
	require.True(t, ok, "missing field %s in %s", name, s)
	return d
}
