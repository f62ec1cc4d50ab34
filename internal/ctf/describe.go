package ctf

import "sort"

// Describe renders a declaration as a tree of plain values suitable for
// MarshalCanonical. Unset optional attributes are omitted.
func Describe(d Declaration) map[string]any {
	switch d := d.(type) {
	case *Integer:
		out := map[string]any{
			"kind":     d.Kind().String(),
			"size":     d.Size,
			"signed":   d.Signed,
			"base":     d.Base,
			"encoding": d.Encoding.String(),
			"align":    d.Align,
		}
		if d.ByteOrder.IsSet() {
			out["byte_order"] = d.ByteOrder.String()
		}
		if d.Clock != "" {
			out["map"] = d.Clock
		}
		return out
	case *Float:
		out := map[string]any{
			"kind":     d.Kind().String(),
			"exp_dig":  d.ExponentDigits,
			"mant_dig": d.MantissaDigits,
			"align":    d.Align,
		}
		if d.ByteOrder.IsSet() {
			out["byte_order"] = d.ByteOrder.String()
		}
		return out
	case *String:
		return map[string]any{
			"kind":     d.Kind().String(),
			"encoding": d.Encoding.String(),
		}
	case *Struct:
		out := map[string]any{
			"kind":   d.Kind().String(),
			"align":  d.Alignment(),
			"fields": describeFields(d.Fields),
		}
		if d.Name != "" {
			out["name"] = d.Name
		}
		return out
	case *Variant:
		out := map[string]any{
			"kind":   d.Kind().String(),
			"fields": describeFields(d.Fields),
		}
		if d.Name != "" {
			out["name"] = d.Name
		}
		if d.Tag != "" {
			out["tag"] = d.Tag
		}
		return out
	case *Enum:
		ranges := make([]any, len(d.Ranges))
		for i, r := range d.Ranges {
			ranges[i] = map[string]any{"label": r.Label, "low": r.Low, "high": r.High}
		}
		out := map[string]any{
			"kind":      d.Kind().String(),
			"container": Describe(d.Container),
			"ranges":    ranges,
		}
		if d.Name != "" {
			out["name"] = d.Name
		}
		return out
	case *Array:
		return map[string]any{
			"kind":    d.Kind().String(),
			"length":  d.Length,
			"element": Describe(d.Element),
		}
	case *Sequence:
		return map[string]any{
			"kind":    d.Kind().String(),
			"length":  d.LengthName,
			"element": Describe(d.Element),
		}
	}
	return map[string]any{"kind": "unknown"}
}

func describeFields(fields []Field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = map[string]any{"name": f.Name, "type": Describe(f.Type)}
	}
	return out
}

// DescribeTrace renders the whole trace container.
func DescribeTrace(t *Trace) map[string]any {
	out := map[string]any{}
	if t.ByteOrder.IsSet() {
		out["byte_order"] = t.ByteOrder.String()
	}
	if t.Major != nil {
		out["major"] = *t.Major
	}
	if t.Minor != nil {
		out["minor"] = *t.Minor
	}
	if t.UUID != nil {
		out["uuid"] = t.UUID.String()
	}
	if t.PacketHeader != nil {
		out["packet_header"] = Describe(t.PacketHeader)
	}

	streams := make([]any, len(t.Streams))
	for i, s := range t.Streams {
		streams[i] = describeStream(s)
	}
	out["streams"] = streams

	if len(t.Environment) > 0 {
		env := make(map[string]any, len(t.Environment))
		for k, v := range t.Environment {
			env[k] = v
		}
		out["env"] = env
	}
	if len(t.Clocks) > 0 {
		clocks := make(map[string]any, len(t.Clocks))
		for name, c := range t.Clocks {
			clocks[name] = describeClock(c)
		}
		out["clocks"] = clocks
	}
	if len(t.Callsites) > 0 {
		callsites := make([]any, len(t.Callsites))
		for i, cs := range t.Callsites {
			callsites[i] = map[string]any{
				"name": cs.Name,
				"func": cs.Func,
				"file": cs.File,
				"line": cs.Line,
				"ip":   cs.IP,
			}
		}
		out["callsites"] = callsites
	}
	return out
}

func describeStream(s *Stream) map[string]any {
	out := map[string]any{}
	if s.ID != nil {
		out["id"] = *s.ID
	}
	if s.PacketContext != nil {
		out["packet_context"] = Describe(s.PacketContext)
	}
	if s.EventHeader != nil {
		out["event_header"] = Describe(s.EventHeader)
	}
	if s.EventContext != nil {
		out["event_context"] = Describe(s.EventContext)
	}
	events := make([]any, len(s.Events))
	for i, e := range s.Events {
		events[i] = describeEvent(e)
	}
	out["events"] = events
	return out
}

func describeEvent(e *Event) map[string]any {
	out := map[string]any{"name": e.Name}
	if e.ID != nil {
		out["id"] = *e.ID
	}
	if e.StreamID != nil {
		out["stream_id"] = *e.StreamID
	}
	if e.LogLevel != nil {
		out["loglevel"] = *e.LogLevel
	}
	if e.Context != nil {
		out["context"] = Describe(e.Context)
	}
	if e.Fields != nil {
		out["fields"] = Describe(e.Fields)
	}
	if len(e.Attributes) > 0 {
		attrs := make(map[string]any, len(e.Attributes))
		for k, v := range e.Attributes {
			attrs[k] = v
		}
		out["attributes"] = attrs
	}
	return out
}

func describeClock(c *Clock) map[string]any {
	out := make(map[string]any, len(c.Attributes))
	for k, v := range c.Attributes {
		if v.IsText {
			out[k] = v.Text
		} else {
			out[k] = v.Int
		}
	}
	return out
}

// ClockNames returns the clock names in sorted order.
func (t *Trace) ClockNames() []string {
	names := make([]string, 0, len(t.Clocks))
	for name := range t.Clocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
