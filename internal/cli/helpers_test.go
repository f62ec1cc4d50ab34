package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ctfmeta/internal/ast"
)

func u32Alias() *ast.Node {
	target := ast.New(ast.Integer,
		ast.Assign("size", ast.Dec(32)),
		ast.Assign("align", ast.Dec(8)),
	)
	return ast.New(ast.Declaration, ast.TypealiasDecl(
		ast.AliasTarget(ast.Specifiers(target), nil),
		ast.AliasName(ast.Specifiers(ast.Ident("uint32_t")), nil),
	))
}

func u32Field(name string) *ast.Node {
	return ast.Field(ast.Specifiers(ast.Ident("uint32_t")), ast.Declarator(name))
}

// sampleDocument is a one-stream, one-event document. Without byteOrder the
// trace block has no byte_order attribute and compiling needs a seed.
func sampleDocument(byteOrder string) *ast.Node {
	traceAttrs := []*ast.Node{
		ast.Assign("major", ast.Dec(1)),
		ast.Assign("minor", ast.Dec(8)),
	}
	if byteOrder != "" {
		traceAttrs = append(traceAttrs, ast.Assign("byte_order", ast.Str(byteOrder)))
	}
	traceAttrs = append(traceAttrs,
		ast.AssignType("packet.header", ast.StructDef("", u32Field("stream_id"))))

	trace := ast.New(ast.Trace, traceAttrs...)
	trace.Pos = ast.Pos{Line: 4, Column: 1}

	return ast.New(ast.Root,
		u32Alias(),
		ast.New(ast.Clock,
			ast.Assign("name", ast.Str("monotonic")),
			ast.Assign("freq", ast.Dec(1000000000)),
		),
		ast.New(ast.Env, ast.Assign("hostname", ast.Quoted("box"))),
		trace,
		ast.New(ast.Stream, ast.Assign("id", ast.Dec(0))),
		ast.New(ast.Event,
			ast.Assign("name", ast.Str("sched_switch")),
			ast.Assign("id", ast.Dec(0)),
			ast.Assign("stream_id", ast.Dec(0)),
			ast.AssignType("fields", ast.StructDef("", u32Field("prev_tid"))),
		),
	)
}

// writeAST serializes root into a temporary file and returns its path.
func writeAST(t *testing.T, root *ast.Node) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.yaml")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, ast.Encode(f, root))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// jsonResponse decodes a CLIResponse whose data is decoded into data.
func jsonResponse(t *testing.T, output string, data any) CLIResponse {
	t.Helper()
	var resp struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp), "output: %s", output)
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp.CLIResponse
}
