package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ctfmeta/internal/ctf"
)

// WriteTrace stores a compiled trace and returns its fingerprint.
//
// Uses ON CONFLICT(fingerprint) DO NOTHING for idempotency: a trace that is
// already catalogued, possibly under another source, is left untouched and
// inserted is false. Streams, events, clocks and environment are written in
// the same transaction as the trace row.
func (s *Store) WriteTrace(ctx context.Context, source string, t *ctf.Trace) (fingerprint string, inserted bool, err error) {
	doc, err := ctf.Canonical(t)
	if err != nil {
		return "", false, fmt.Errorf("write trace: %w", err)
	}
	fingerprint, err = ctf.Fingerprint(t)
	if err != nil {
		return "", false, fmt.Errorf("write trace: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("write trace: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var uuid sql.NullString
	if t.UUID != nil {
		uuid = sql.NullString{String: t.UUID.String(), Valid: true}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO traces
		(fingerprint, seq, source, byte_order, version, uuid, document)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM traces), ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		fingerprint,
		source,
		t.ByteOrder.String(),
		t.Version(),
		uuid,
		string(doc),
	)
	if err != nil {
		return "", false, fmt.Errorf("write trace: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("write trace: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fingerprint, false, nil
	}

	if err := writeStreams(ctx, tx, fingerprint, t.Streams); err != nil {
		return "", false, fmt.Errorf("write trace: %w", err)
	}
	if err := writeClocks(ctx, tx, fingerprint, t); err != nil {
		return "", false, fmt.Errorf("write trace: %w", err)
	}
	for key, value := range t.Environment {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO environment (trace_fingerprint, key, value)
			VALUES (?, ?, ?)
		`, fingerprint, key, value)
		if err != nil {
			return "", false, fmt.Errorf("write trace: environment %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("write trace: commit: %w", err)
	}

	return fingerprint, true, nil
}

func writeStreams(ctx context.Context, tx *sql.Tx, fingerprint string, streams []*ctf.Stream) error {
	for sp, st := range streams {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO streams (trace_fingerprint, position, stream_id)
			VALUES (?, ?, ?)
		`, fingerprint, sp, nullInt(st.ID))
		if err != nil {
			return fmt.Errorf("stream %d: %w", sp, err)
		}

		for ep, e := range st.Events {
			fields, err := marshalStruct(e.Fields)
			if err != nil {
				return fmt.Errorf("event %s: %w", e.Name, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO events
				(trace_fingerprint, stream_position, position, name, event_id, stream_id, loglevel, fields)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
				fingerprint,
				sp,
				ep,
				e.Name,
				nullInt(e.ID),
				nullInt(st.ID),
				nullInt(e.LogLevel),
				fields,
			)
			if err != nil {
				return fmt.Errorf("event %s: %w", e.Name, err)
			}
		}
	}
	return nil
}

func writeClocks(ctx context.Context, tx *sql.Tx, fingerprint string, t *ctf.Trace) error {
	for _, name := range t.ClockNames() {
		c := t.Clocks[name]
		attrs, err := marshalClockAttributes(c)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO clocks
			(trace_fingerprint, name, freq, offset_seconds, offset_cycles, attributes)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			fingerprint,
			name,
			c.Frequency(),
			c.OffsetSeconds(),
			c.Offset(),
			attrs,
		)
		if err != nil {
			return fmt.Errorf("clock %s: %w", name, err)
		}
	}
	return nil
}
