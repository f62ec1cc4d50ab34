// Package metadata compiles a TSDL syntax tree into the CTF model.
//
// A Generator walks one document in fixed phases:
//
//  1. classify the top-level blocks
//  2. environment blocks
//  3. clock blocks
//  4. callsite blocks
//  5. root declarations (typedef, typealias, named struct/variant/enum)
//  6. the trace block, which must occur exactly once
//  7. stream blocks, or one synthesized stream without id
//  8. event blocks
//
// Later phases depend on state committed by earlier ones: stream ids are
// checked against the packet header, events are attached to streams.
//
// Named types live in a chain of Scopes. A scope is pushed for each trace,
// stream, event, struct, variant and enum body, so typedefs declared inside a
// body are not visible outside it.
//
// Errors abort the whole document: Generate returns the first *ParseError and
// no partial trace. The one exception is an unparseable integer clock
// attribute, which is replaced by ClockOffsetFallback.
//
// A Generator is single-use and not safe for concurrent use. Independent
// documents can be compiled in parallel with separate Generators.
package metadata
