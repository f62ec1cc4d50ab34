package tsdl

import (
	"errors"
	"fmt"

	"github.com/roach88/ctfmeta/internal/ast"
)

// ParseError is the single error kind of the metadata compiler. Structural
// problems (unexpected node shapes) and semantic problems (duplicates, range
// violations, missing attributes) are both reported through it.
type ParseError struct {
	// Message is a human-readable description.
	Message string

	// Pos is the source position of the offending node, if known.
	Pos ast.Pos

	// Err is the lower-level cause, e.g. a malformed UUID.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Message
	if e.Pos.IsValid() {
		msg = fmt.Sprintf("%s: %s", e.Pos, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Errorf returns a ParseError positioned at n. n may be nil.
func Errorf(n *ast.Node, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Pos: nodePos(n)}
}

// Wrapf returns a ParseError positioned at n that wraps err.
func Wrapf(n *ast.Node, err error, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Pos: nodePos(n), Err: err}
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func nodePos(n *ast.Node) ast.Pos {
	if n == nil {
		return ast.Pos{}
	}
	return n.Pos
}
