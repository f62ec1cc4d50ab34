// Package ctf provides the CTF declaration model and the trace-wide container
// produced by the metadata compiler.
//
// This package contains the model only. internal/metadata builds it from a
// TSDL tree; binary decoders and the catalog store consume it. ctf imports
// nothing internal.
//
// Key design constraints:
//   - Declarations are built incrementally during one parse and are not
//     mutated afterwards; copies (WithByteOrder, WithTag) are used instead
//   - ByteOrderUnset on an integer or float means "inherit the trace's"
//   - Struct and variant fields keep declaration order (binary layout order)
//   - Canonical JSON (MarshalCanonical) is the only serialization used for
//     fingerprints
package ctf
