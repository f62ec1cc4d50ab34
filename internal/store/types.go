package store

// TraceSummary is one catalog row.
type TraceSummary struct {
	Fingerprint string `json:"fingerprint"`
	Seq         int64  `json:"seq"`
	Source      string `json:"source"` // where the document came from, e.g. the AST file path
	ByteOrder   string `json:"byte_order"`
	Version     string `json:"version,omitempty"` // "major.minor", "" if unset
	UUID        string `json:"uuid,omitempty"`    // "" if unset
	Streams     int    `json:"streams"`
	Events      int    `json:"events"`
}

// TraceRecord is a catalog row with its trace-wide attributes and the
// canonical document.
type TraceRecord struct {
	TraceSummary
	Document    string            `json:"document"` // canonical JSON, see ctf.Canonical
	Environment map[string]string `json:"environment"`
	Clocks      []ClockRecord     `json:"clocks"` // ordered by name
}

// ClockRecord is one stored clock.
type ClockRecord struct {
	Name          string `json:"name"`
	Frequency     int64  `json:"freq"`
	OffsetSeconds int64  `json:"offset_s"`
	Offset        int64  `json:"offset"`
	Attributes    string `json:"attributes"` // canonical JSON of all attributes
}

// EventRecord is one stored event class.
type EventRecord struct {
	Fingerprint string `json:"fingerprint"`
	Name        string `json:"name"`
	ID          *int64 `json:"id,omitempty"`
	StreamID    *int64 `json:"stream_id,omitempty"`
	LogLevel    *int64 `json:"loglevel,omitempty"`
	Fields      string `json:"fields,omitempty"` // canonical JSON of the field struct, "" if none
}
