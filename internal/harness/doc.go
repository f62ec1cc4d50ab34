// Package harness runs conformance scenarios against the metadata compiler.
//
// A scenario names a serialized syntax tree, the generator options to compile
// it with, and what must hold afterwards: either the compiler rejects the
// document with a given message, or the compiled trace satisfies a list of
// assertions.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: single_stream
//	description: "Two events share one stream"
//	document: documents/single_stream.yaml
//	options:
//	  byte_order: le
//	assertions:
//	  - type: event_count
//	    count: 2
//	  - type: event_order
//	    events: [sched_switch, sched_wakeup]
//	  - type: catalog_row
//	    table: events
//	    where: { name: sched_wakeup }
//	    expect: { event_id: 1 }
//
// A failing scenario replaces assertions with an expected error:
//
//	expect:
//	  error: "trace byte order not set"
//
// The document path is relative to the scenario file.
//
// # Assertion Types
//
//   - byte_order: the trace byte order is value
//   - event_count: the trace declares exactly count events
//   - event_order: events appear in this declaration order
//   - event_declared: event exists, in stream when given
//   - field_kind: field of event's payload has the given kind
//   - catalog_row: after recording the trace in a fresh in-memory catalog,
//     exactly one row of table matches where, with the expect values
//
// # Golden Files
//
// RunWithGolden compares the canonical document of a passing scenario with
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
