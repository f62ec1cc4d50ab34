package tsdl

import (
	"errors"
	"strconv"
	"strings"

	"github.com/roach88/ctfmeta/internal/ast"
)

// UnaryInteger decodes an UNARY_EXPRESSION_DEC/HEX/OCT node.
//
// The first child holds the literal; the remaining children are SIGN tokens.
// The value is negated when the node has an even number of children, so a
// bare literal is positive, one sign negates, two signs cancel out.
func UnaryInteger(n *ast.Node) (int64, error) {
	if n == nil || !n.Type.IsUnaryInteger() {
		return 0, Errorf(n, "expected an integer literal")
	}
	if n.ChildCount() == 0 {
		return 0, Errorf(n, "empty integer literal")
	}

	lit := n.Child(0).Token()
	v, err := ParseIntegerLiteral(n.Type, lit)
	if err != nil {
		return 0, Wrapf(n, err, "invalid integer literal %q", lit)
	}
	if n.ChildCount()%2 == 0 {
		v = -v
	}
	return v, nil
}

// ParseIntegerLiteral decodes the text of an integer literal of kind t. C
// integer suffixes (u, l, ul, ll, ...) are accepted and ignored. Values above
// MaxInt64 are accepted up to MaxUint64 and reinterpreted as two's complement,
// so 64-bit masks such as 0xFFFFFFFFFFFFFFFF survive.
func ParseIntegerLiteral(t ast.Type, lit string) (int64, error) {
	digits := strings.TrimRight(lit, "uUlL")
	base := 10
	switch t {
	case ast.UnaryExpressionHex:
		base = 16
		digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
	case ast.UnaryExpressionOct:
		base = 8
	}
	if digits == "" {
		return 0, errors.New("no digits")
	}

	v, err := strconv.ParseInt(digits, base, 64)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	u, uerr := strconv.ParseUint(digits, base, 64)
	if uerr != nil {
		return 0, uerr
	}
	return int64(u), nil
}

// UnaryString returns the text of a quoted or unquoted string expression.
func UnaryString(n *ast.Node) (string, error) {
	if n == nil || !n.Type.IsAnyUnaryString() {
		return "", Errorf(n, "expected a string expression")
	}
	tok := n.Child(0)
	if tok == nil {
		return "", Errorf(n, "empty string expression")
	}
	s := tok.Token()
	if n.Type == ast.UnaryExpressionStringQuotes && len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s, nil
}

// ConcatenateUnaryStrings joins a path chain such as
//
//	UNARY_EXPRESSION_STRING(a) DOT(UNARY_EXPRESSION_STRING(b)) ARROW(UNARY_EXPRESSION_STRING(c))
//
// into "a.b->c".
func ConcatenateUnaryStrings(nodes []*ast.Node) (string, error) {
	var sb strings.Builder
	for i, n := range nodes {
		part := n
		if i > 0 {
			switch n.Type {
			case ast.Dot:
				sb.WriteString(SeparatorDot)
			case ast.Arrow:
				sb.WriteString(SeparatorArrow)
			default:
				return "", Errorf(n, "unexpected %s in path", n.Type)
			}
			part = n.Child(0)
		}
		s, err := UnaryString(part)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

// IsUnaryStringChain reports whether nodes form a path accepted by
// ConcatenateUnaryStrings.
func IsUnaryStringChain(nodes []*ast.Node) bool {
	if len(nodes) == 0 || !nodes[0].Type.IsAnyUnaryString() {
		return false
	}
	for _, n := range nodes[1:] {
		if n.Type != ast.Dot && n.Type != ast.Arrow {
			return false
		}
		if c := n.Child(0); c == nil || !c.Type.IsAnyUnaryString() {
			return false
		}
	}
	return true
}

// Expression splits a CTF_EXPRESSION_VAL or CTF_EXPRESSION_TYPE node into its
// key and right-hand side.
func Expression(n *ast.Node) (string, *ast.Node, error) {
	if n == nil || (n.Type != ast.CTFExpressionVal && n.Type != ast.CTFExpressionType) {
		return "", nil, Errorf(n, "expected a CTF expression")
	}
	left := n.FirstChildOfType(ast.CTFLeft)
	right := n.FirstChildOfType(ast.CTFRight)
	if left == nil || right == nil || right.ChildCount() == 0 {
		return "", nil, Errorf(n, "malformed CTF expression")
	}
	key, err := ConcatenateUnaryStrings(left.Children)
	if err != nil {
		return "", nil, err
	}
	return key, right, nil
}
