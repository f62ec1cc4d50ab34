package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrAmbiguousFingerprint is returned by ResolveFingerprint when a prefix
// matches more than one trace.
var ErrAmbiguousFingerprint = errors.New("ambiguous fingerprint prefix")

const summaryColumns = `
	t.fingerprint, t.seq, t.source, t.byte_order, t.version, t.uuid,
	(SELECT COUNT(*) FROM streams s WHERE s.trace_fingerprint = t.fingerprint),
	(SELECT COUNT(*) FROM events e WHERE e.trace_fingerprint = t.fingerprint)
`

// ListTraces returns every catalogued trace in insertion order.
//
// Returns an empty slice (not nil) if the catalog is empty.
func (s *Store) ListTraces(ctx context.Context) ([]TraceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+`
		FROM traces t
		ORDER BY t.seq ASC, t.fingerprint COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	traces := []TraceSummary{}
	for rows.Next() {
		ts, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		traces = append(traces, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}
	return traces, nil
}

// ResolveFingerprint expands a fingerprint prefix to the full fingerprint.
// Returns sql.ErrNoRows if nothing matches and ErrAmbiguousFingerprint if
// several traces do.
func (s *Store) ResolveFingerprint(ctx context.Context, prefix string) (string, error) {
	if prefix == "" || strings.ContainsAny(prefix, "%_") {
		return "", fmt.Errorf("resolve fingerprint %q: %w", prefix, sql.ErrNoRows)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint FROM traces
		WHERE fingerprint LIKE ? || '%'
		ORDER BY fingerprint COLLATE BINARY ASC
		LIMIT 2
	`, prefix)
	if err != nil {
		return "", fmt.Errorf("resolve fingerprint: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return "", fmt.Errorf("scan fingerprint: %w", err)
		}
		matches = append(matches, fp)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate fingerprints: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("resolve fingerprint %q: %w", prefix, sql.ErrNoRows)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q", ErrAmbiguousFingerprint, prefix)
	}
}

// ReadTrace retrieves a trace with its environment, clocks and canonical
// document. Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadTrace(ctx context.Context, fingerprint string) (TraceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+summaryColumns+`, t.document
		FROM traces t
		WHERE t.fingerprint = ?
	`, fingerprint)

	var (
		rec  TraceRecord
		uuid sql.NullString
	)
	err := row.Scan(
		&rec.Fingerprint, &rec.Seq, &rec.Source, &rec.ByteOrder, &rec.Version, &uuid,
		&rec.Streams, &rec.Events, &rec.Document,
	)
	if err != nil {
		return TraceRecord{}, fmt.Errorf("read trace %s: %w", fingerprint, err)
	}
	rec.UUID = uuid.String

	if rec.Environment, err = s.readEnvironment(ctx, fingerprint); err != nil {
		return TraceRecord{}, err
	}
	if rec.Clocks, err = s.readClocks(ctx, fingerprint); err != nil {
		return TraceRecord{}, err
	}
	return rec, nil
}

func (s *Store) readEnvironment(ctx context.Context, fingerprint string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value FROM environment
		WHERE trace_fingerprint = ?
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query environment: %w", err)
	}
	defer rows.Close()

	env := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan environment: %w", err)
		}
		env[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate environment: %w", err)
	}
	return env, nil
}

func (s *Store) readClocks(ctx context.Context, fingerprint string) ([]ClockRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, freq, offset_seconds, offset_cycles, attributes
		FROM clocks
		WHERE trace_fingerprint = ?
		ORDER BY name COLLATE BINARY ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query clocks: %w", err)
	}
	defer rows.Close()

	clocks := []ClockRecord{}
	for rows.Next() {
		var c ClockRecord
		if err := rows.Scan(&c.Name, &c.Frequency, &c.OffsetSeconds, &c.Offset, &c.Attributes); err != nil {
			return nil, fmt.Errorf("scan clock: %w", err)
		}
		clocks = append(clocks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clocks: %w", err)
	}
	return clocks, nil
}

// FindEvents returns the event classes named name. An empty fingerprint
// searches the whole catalog. Results are ordered by trace seq, then stream
// and event position.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) FindEvents(ctx context.Context, fingerprint, name string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.trace_fingerprint, e.name, e.event_id, e.stream_id, e.loglevel, e.fields
		FROM events e
		JOIN traces t ON t.fingerprint = e.trace_fingerprint
		WHERE e.name = ? AND (? = '' OR e.trace_fingerprint = ?)
		ORDER BY t.seq ASC, e.stream_position ASC, e.position ASC
	`, name, fingerprint, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var (
			e                      EventRecord
			id, streamID, loglevel sql.NullInt64
			fields                 sql.NullString
		)
		if err := rows.Scan(&e.Fingerprint, &e.Name, &id, &streamID, &loglevel, &fields); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.ID = intPtr(id)
		e.StreamID = intPtr(streamID)
		e.LogLevel = intPtr(loglevel)
		e.Fields = fields.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanSummary(rows *sql.Rows) (TraceSummary, error) {
	var (
		ts   TraceSummary
		uuid sql.NullString
	)
	err := rows.Scan(&ts.Fingerprint, &ts.Seq, &ts.Source, &ts.ByteOrder, &ts.Version, &uuid, &ts.Streams, &ts.Events)
	if err != nil {
		return TraceSummary{}, fmt.Errorf("scan trace: %w", err)
	}
	ts.UUID = uuid.String
	return ts, nil
}
