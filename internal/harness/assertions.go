package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/ctfmeta/internal/ctf"
	"github.com/roach88/ctfmeta/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Identifiers cannot be bound as parameters, so they are checked against this
// pattern before interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	Events   []EventRef // Declared events for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nDeclared events:\n")
		for i, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] %s (stream %s)\n", i+1, ev.Name, streamLabel(ev.Stream))
		}
	}

	return buf.String()
}

func streamLabel(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}

func assertByteOrder(result *Result, assertion Assertion) error {
	want, err := ctf.ParseByteOrder(assertion.Value)
	if err != nil {
		return fmt.Errorf("byte_order assertion: %w", err)
	}
	if got := result.Trace.ByteOrder; got != want {
		return &AssertionError{
			Type:     AssertByteOrder,
			Expected: want.String(),
			Actual:   got.String(),
		}
	}
	return nil
}

func assertEventCount(result *Result, assertion Assertion) error {
	if len(result.Events) != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d events", assertion.Count),
			Actual:   fmt.Sprintf("%d events", len(result.Events)),
			Events:   result.Events,
		}
	}
	return nil
}

// assertEventOrder checks that the listed events appear in this relative
// order. Other events may be interleaved.
func assertEventOrder(result *Result, assertion Assertion) error {
	next := 0
	for _, ev := range result.Events {
		if next < len(assertion.Events) && ev.Name == assertion.Events[next] {
			next++
		}
	}
	if next < len(assertion.Events) {
		return &AssertionError{
			Type:     AssertEventOrder,
			Expected: fmt.Sprintf("events in order %v", assertion.Events),
			Actual:   fmt.Sprintf("%q not found after %v", assertion.Events[next], assertion.Events[:next]),
			Events:   result.Events,
		}
	}
	return nil
}

func assertEventDeclared(result *Result, assertion Assertion) error {
	if findEvent(result.Trace, assertion.Event, assertion.Stream) != nil {
		return nil
	}
	expected := fmt.Sprintf("event %q", assertion.Event)
	if assertion.Stream != nil {
		expected += fmt.Sprintf(" in stream %d", *assertion.Stream)
	}
	return &AssertionError{
		Type:     AssertEventDeclared,
		Expected: expected,
		Actual:   "not declared",
		Events:   result.Events,
	}
}

func assertFieldKind(result *Result, assertion Assertion) error {
	e := findEvent(result.Trace, assertion.Event, nil)
	if e == nil {
		return &AssertionError{
			Type:     AssertFieldKind,
			Expected: fmt.Sprintf("event %q", assertion.Event),
			Actual:   "not declared",
			Events:   result.Events,
		}
	}
	var field ctf.Declaration
	if e.Fields != nil {
		field, _ = e.Fields.Field(assertion.Field)
	}
	if field == nil {
		return &AssertionError{
			Type:     AssertFieldKind,
			Expected: fmt.Sprintf("field %q in %s", assertion.Field, assertion.Event),
			Actual:   "field not found",
		}
	}
	if got := field.Kind().String(); got != assertion.Kind {
		return &AssertionError{
			Type:     AssertFieldKind,
			Expected: fmt.Sprintf("%s.%s of kind %s", assertion.Event, assertion.Field, assertion.Kind),
			Actual:   got,
		}
	}
	return nil
}

// findEvent returns the first event named name, restricted to stream id when
// given.
func findEvent(t *ctf.Trace, name string, stream *int64) *ctf.Event {
	for _, s := range t.Streams {
		if stream != nil && (s.ID == nil || *s.ID != *stream) {
			continue
		}
		for _, e := range s.Events {
			if e.Name == name {
				return e
			}
		}
	}
	return nil
}

// assertCatalogRow checks that exactly one row of the table matches Where and
// that it carries the Expect values (subset semantics).
func assertCatalogRow(ctx context.Context, st *store.Store, assertion Assertion) error {
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.Query(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertCatalogRow,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertCatalogRow,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	if rows.Next() {
		return &AssertionError{
			Type:     AssertCatalogRow,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]any, len(columns))
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertCatalogRow,
				Expected: fmt.Sprintf("column %q to exist", key),
				Actual:   fmt.Sprintf("column %q not present in result columns: %v", key, columns),
			}
		}
		if !rowValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertCatalogRow,
				Expected: fmt.Sprintf("column %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("column %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// buildWhereClause constructs a parameterized WHERE clause. Keys are sorted
// for determinism; a nil value matches SQL NULL.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		if where[key] == nil {
			clauses = append(clauses, fmt.Sprintf("%s IS NULL", key))
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML scalar to a SQL-compatible value.
func toSQLValue(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case string, int64, bool, float64:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// rowValuesEqual compares a YAML value with a scanned SQLite value. SQLite
// returns int64 for integers, string or []byte for text, and stores booleans
// as 0/1.
func rowValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		act, ok := actual.(string)
		return ok && exp == act
	case int:
		act, ok := actual.(int64)
		return ok && int64(exp) == act
	case int64:
		act, ok := actual.(int64)
		return ok && exp == act
	case bool:
		if act, ok := actual.(bool); ok {
			return exp == act
		}
		if act, ok := actual.(int64); ok {
			return exp == (act != 0)
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for catalog_row assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch {
		case result.Trace == nil && assertion.Type != AssertCatalogRow:
			err = fmt.Errorf("%s requires a compiled trace", assertion.Type)
		case assertion.Type == AssertByteOrder:
			err = assertByteOrder(result, assertion)
		case assertion.Type == AssertEventCount:
			err = assertEventCount(result, assertion)
		case assertion.Type == AssertEventOrder:
			err = assertEventOrder(result, assertion)
		case assertion.Type == AssertEventDeclared:
			err = assertEventDeclared(result, assertion)
		case assertion.Type == AssertFieldKind:
			err = assertFieldKind(result, assertion)
		case assertion.Type == AssertCatalogRow:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("catalog_row requires database context")
			} else {
				err = assertCatalogRow(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}

	return errors
}
