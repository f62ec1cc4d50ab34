package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/ctfmeta/internal/ctf"
)

// marshalStruct converts an optional struct declaration to canonical JSON
// TEXT, NULL when absent.
func marshalStruct(s *ctf.Struct) (sql.NullString, error) {
	if s == nil {
		return sql.NullString{}, nil
	}
	data, err := ctf.MarshalCanonical(ctf.Describe(s))
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal struct: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// marshalClockAttributes converts clock attributes to canonical JSON TEXT.
func marshalClockAttributes(c *ctf.Clock) (string, error) {
	m := make(map[string]any, len(c.Attributes))
	for k, v := range c.Attributes {
		if v.IsText {
			m[k] = v.Text
		} else {
			m[k] = v.Int
		}
	}
	data, err := ctf.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal clock %s: %w", c.Name, err)
	}
	return string(data), nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}
