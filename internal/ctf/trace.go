package ctf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrStreamWithoutID is returned when an id-less stream would share the
	// trace with other streams.
	ErrStreamWithoutID = errors.New("stream without id with multiple streams")

	// ErrDuplicateStreamID is returned when two streams share an id.
	ErrDuplicateStreamID = errors.New("stream id already exists")

	// ErrEventWithoutID is returned when an id-less event would share its
	// stream with other events.
	ErrEventWithoutID = errors.New("event without id with multiple events in stream")

	// ErrDuplicateEventID is returned when two events of a stream share an id.
	ErrDuplicateEventID = errors.New("event id already exists in stream")
)

// Trace is the trace-wide container. Exactly one is produced per document.
// Optional attributes are nil while unset.
type Trace struct {
	ByteOrder    ByteOrder
	Major        *int64
	Minor        *int64
	UUID         *uuid.UUID
	PacketHeader *Struct
	Streams      []*Stream // in declaration order
	Environment  map[string]string
	Clocks       map[string]*Clock
	Callsites    []Callsite
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{
		Environment: make(map[string]string),
		Clocks:      make(map[string]*Clock),
	}
}

// AddStream registers s. A stream without id must be the only stream, and
// ids must be unique.
func (t *Trace) AddStream(s *Stream) error {
	if _, ok := t.DefaultStream(); ok {
		return ErrStreamWithoutID
	}
	if s.ID == nil {
		if len(t.Streams) > 0 {
			return ErrStreamWithoutID
		}
		t.Streams = append(t.Streams, s)
		return nil
	}
	if _, ok := t.Stream(*s.ID); ok {
		return fmt.Errorf("%w: %d", ErrDuplicateStreamID, *s.ID)
	}
	t.Streams = append(t.Streams, s)
	return nil
}

// Stream returns the stream with the given id.
func (t *Trace) Stream(id int64) (*Stream, bool) {
	for _, s := range t.Streams {
		if s.ID != nil && *s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// DefaultStream returns the stream without id, if any.
func (t *Trace) DefaultStream() (*Stream, bool) {
	for _, s := range t.Streams {
		if s.ID == nil {
			return s, true
		}
	}
	return nil, false
}

// Version renders "major.minor", or "" when either is unset.
func (t *Trace) Version() string {
	if t.Major == nil || t.Minor == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d", *t.Major, *t.Minor)
}

// EventCount returns the number of events across all streams.
func (t *Trace) EventCount() int {
	n := 0
	for _, s := range t.Streams {
		n += len(s.Events)
	}
	return n
}

// Stream groups the events sharing one packet layout.
type Stream struct {
	ID            *int64
	EventHeader   *Struct
	EventContext  *Struct
	PacketContext *Struct
	Events        []*Event // in declaration order
}

// AddEvent appends e. Event ids are unique within a stream, and an event
// without id must be the only event of its stream.
func (s *Stream) AddEvent(e *Event) error {
	for _, existing := range s.Events {
		if existing.ID == nil || e.ID == nil {
			return ErrEventWithoutID
		}
		if *existing.ID == *e.ID {
			return fmt.Errorf("%w: %d", ErrDuplicateEventID, *e.ID)
		}
	}
	s.Events = append(s.Events, e)
	return nil
}

// Event returns the event with the given id.
func (s *Stream) Event(id int64) (*Event, bool) {
	for _, e := range s.Events {
		if e.ID != nil && *e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Event is one event class.
type Event struct {
	Name     string
	ID       *int64
	StreamID *int64 // id of the owning stream, nil for the id-less stream
	LogLevel *int64
	Context  *Struct
	Fields   *Struct

	// Attributes holds string attributes the compiler does not interpret,
	// such as "model.emf.uri".
	Attributes map[string]string
}

// Callsite records the source location of a tracepoint.
type Callsite struct {
	Name string
	Func string
	File string
	Line int64
	IP   int64
}

// ClockValue is a clock attribute: either an integer or a text value.
type ClockValue struct {
	Int    int64
	Text   string
	IsText bool
}

// IntValue returns an integer clock attribute value.
func IntValue(v int64) ClockValue {
	return ClockValue{Int: v}
}

// TextValue returns a text clock attribute value.
func TextValue(s string) ClockValue {
	return ClockValue{Text: s, IsText: true}
}

func (v ClockValue) String() string {
	if v.IsText {
		return v.Text
	}
	return fmt.Sprintf("%d", v.Int)
}

// DefaultClockFrequency is the frequency of a clock without freq attribute.
const DefaultClockFrequency = 1000000000

// Clock describes one clock block.
type Clock struct {
	Name       string
	Attributes map[string]ClockValue
}

// NewClock returns an empty clock.
func NewClock() *Clock {
	return &Clock{Attributes: make(map[string]ClockValue)}
}

func (c *Clock) intAttr(key string, def int64) int64 {
	v, ok := c.Attributes[key]
	if !ok || v.IsText {
		return def
	}
	return v.Int
}

// Frequency in Hz.
func (c *Clock) Frequency() int64 { return c.intAttr("freq", DefaultClockFrequency) }

// Offset in clock cycles.
func (c *Clock) Offset() int64 { return c.intAttr("offset", 0) }

// OffsetSeconds is the offset_s attribute.
func (c *Clock) OffsetSeconds() int64 { return c.intAttr("offset_s", 0) }

// Precision in clock cycles.
func (c *Clock) Precision() int64 { return c.intAttr("precision", 0) }

// Description is the free-form description attribute.
func (c *Clock) Description() string {
	return c.Attributes["description"].Text
}

// Absolute reports whether the clock is a global reference.
func (c *Clock) Absolute() bool {
	v, ok := c.Attributes["absolute"]
	if !ok {
		return false
	}
	if v.IsText {
		return strings.EqualFold(v.Text, "true")
	}
	return v.Int == 1
}

// UUID returns the clock's uuid attribute when it parses.
func (c *Clock) UUID() (uuid.UUID, bool) {
	v, ok := c.Attributes["uuid"]
	if !ok || !v.IsText {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(v.Text)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
