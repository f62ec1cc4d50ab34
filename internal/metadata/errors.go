package metadata

import (
	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/tsdl"
)

// ParseError is the error kind returned by Generate.
type ParseError = tsdl.ParseError

func errorf(n *ast.Node, format string, args ...any) error {
	return tsdl.Errorf(n, format, args...)
}

func wrapf(n *ast.Node, err error, format string, args ...any) error {
	return tsdl.Wrapf(n, err, format, args...)
}

// unexpected reports a child whose tag is not allowed under its parent.
func unexpected(child *ast.Node, where string) error {
	return tsdl.Errorf(child, "unexpected %s in %s", child.Type, where)
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	return tsdl.IsParseError(err)
}
