package harness

import "github.com/roach88/ctfmeta/internal/ctf"

// EventRef locates one event class in declaration order.
type EventRef struct {
	Name   string `json:"name"`
	Stream *int64 `json:"stream,omitempty"` // nil for the id-less stream
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if the expected error matched or all assertions held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// CompileError is the compiler's message when compilation failed.
	CompileError string `json:"compile_error,omitempty"`

	// Fingerprint and Document describe the compiled trace.
	Fingerprint string `json:"fingerprint,omitempty"`
	Document    []byte `json:"-"`

	// Events lists every event class across streams in declaration order.
	Events []EventRef `json:"events"`

	// Trace is the compiled trace, nil when compilation failed.
	Trace *ctf.Trace `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Events: []EventRef{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// recordTrace fills the trace-derived fields of r.
func (r *Result) recordTrace(t *ctf.Trace, fingerprint string, doc []byte) {
	r.Trace = t
	r.Fingerprint = fingerprint
	r.Document = doc
	for _, s := range t.Streams {
		for _, e := range s.Events {
			r.Events = append(r.Events, EventRef{Name: e.Name, Stream: s.ID})
		}
	}
}
