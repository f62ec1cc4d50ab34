// Package tsdl reads TSDL literals and attribute values from AST fragments.
//
// Every function is pure: it looks at one node (usually the CTF_RIGHT half of
// a `key = value;` expression) and returns a typed value or a *ParseError.
// Integer literals follow the sign convention of the front-end: the literal is
// the first child and SIGN tokens follow, negating the value when the child
// count is even.
package tsdl
