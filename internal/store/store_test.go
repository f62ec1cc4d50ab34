package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ctfmeta/internal/ctf"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func id(v int64) *int64 { return &v }

// createTestTrace builds a two-stream trace with one clock.
func createTestTrace(hostname string) *ctf.Trace {
	u8 := &ctf.Integer{Size: 8, Base: 10, ByteOrder: ctf.LittleEndian, Align: 8}
	u32 := &ctf.Integer{Size: 32, Base: 10, ByteOrder: ctf.LittleEndian, Align: 8}

	t := ctf.NewTrace()
	t.ByteOrder = ctf.LittleEndian
	t.Major, t.Minor = id(1), id(8)
	u := uuid.MustParse("2a6422d0-6cee-11e0-8c08-cb07d7b3a564")
	t.UUID = &u
	t.PacketHeader = &ctf.Struct{Fields: []ctf.Field{{Name: "stream_id", Type: u32}}}
	t.Environment["hostname"] = hostname

	c := ctf.NewClock()
	c.Name = "monotonic"
	c.Attributes["name"] = ctf.TextValue("monotonic")
	c.Attributes["freq"] = ctf.IntValue(1000)
	c.Attributes["offset_s"] = ctf.IntValue(17)
	t.Clocks[c.Name] = c

	s0 := &ctf.Stream{ID: id(0)}
	s0.Events = []*ctf.Event{
		{Name: "sched_switch", ID: id(0), StreamID: id(0), LogLevel: id(13),
			Fields: &ctf.Struct{Fields: []ctf.Field{{Name: "prev_tid", Type: u32}}}},
		{Name: "sched_wakeup", ID: id(1), StreamID: id(0)},
	}
	s1 := &ctf.Stream{ID: id(1)}
	s1.Events = []*ctf.Event{
		{Name: "sched_switch", ID: id(0), StreamID: id(1),
			Fields: &ctf.Struct{Fields: []ctf.Field{{Name: "cpu", Type: u8}}}},
	}
	t.Streams = []*ctf.Stream{s0, s1}
	return t
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"traces", "streams", "events", "clocks", "environment"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_events_name'",
	).Scan(&name)
	assert.NoError(t, err)
}

func TestWriteTrace_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tr := createTestTrace("box")

	fp, inserted, err := s.WriteTrace(ctx, "kernel.yaml", tr)
	require.NoError(t, err)
	assert.True(t, inserted)

	want, err := ctf.Fingerprint(tr)
	require.NoError(t, err)
	assert.Equal(t, want, fp)

	rec, err := s.ReadTrace(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, TraceSummary{
		Fingerprint: fp,
		Seq:         1,
		Source:      "kernel.yaml",
		ByteOrder:   "le",
		Version:     "1.8",
		UUID:        "2a6422d0-6cee-11e0-8c08-cb07d7b3a564",
		Streams:     2,
		Events:      3,
	}, rec.TraceSummary)
	assert.Equal(t, map[string]string{"hostname": "box"}, rec.Environment)

	doc, err := ctf.Canonical(tr)
	require.NoError(t, err)
	assert.Equal(t, string(doc), rec.Document)

	require.Len(t, rec.Clocks, 1)
	c := rec.Clocks[0]
	assert.Equal(t, "monotonic", c.Name)
	assert.Equal(t, int64(1000), c.Frequency)
	assert.Equal(t, int64(17), c.OffsetSeconds)
	assert.Equal(t, int64(0), c.Offset)
	assert.JSONEq(t, `{"freq":1000,"name":"monotonic","offset_s":17}`, c.Attributes)
}

func TestWriteTrace_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	fp1, inserted, err := s.WriteTrace(ctx, "a.yaml", createTestTrace("box"))
	require.NoError(t, err)
	require.True(t, inserted)

	fp2, inserted, err := s.WriteTrace(ctx, "b.yaml", createTestTrace("box"))
	require.NoError(t, err)
	assert.False(t, inserted, "same document under another source")
	assert.Equal(t, fp1, fp2)

	traces, err := s.ListTraces(ctx)
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, "a.yaml", traces[0].Source)

	var events int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&events))
	assert.Equal(t, 3, events, "child rows are not duplicated")
}

func TestListTraces_Order(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListTraces(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	var want []string
	for _, host := range []string{"c", "a", "b"} {
		fp, _, err := s.WriteTrace(ctx, host+".yaml", createTestTrace(host))
		require.NoError(t, err)
		want = append(want, fp)
	}

	traces, err := s.ListTraces(ctx)
	require.NoError(t, err)
	var got []string
	for i, tr := range traces {
		got = append(got, tr.Fingerprint)
		assert.Equal(t, int64(i+1), tr.Seq)
	}
	assert.Equal(t, want, got)
}

func TestReadTrace_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadTrace(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestResolveFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	fp, _, err := s.WriteTrace(ctx, "a.yaml", createTestTrace("a"))
	require.NoError(t, err)

	got, err := s.ResolveFingerprint(ctx, fp[:12])
	require.NoError(t, err)
	assert.Equal(t, fp, got)

	got, err = s.ResolveFingerprint(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, fp, got)

	_, err = s.ResolveFingerprint(ctx, "zz")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = s.ResolveFingerprint(ctx, "%")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = s.ResolveFingerprint(ctx, "")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestResolveFingerprint_Ambiguous(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Insert two rows sharing a prefix directly; real fingerprints rarely collide.
	for i, fp := range []string{"abc1", "abc2"} {
		_, err := s.db.Exec(`
			INSERT INTO traces (fingerprint, seq, source, byte_order, version, document)
			VALUES (?, ?, 'x', 'le', '', '{}')
		`, fp, i+1)
		require.NoError(t, err)
	}

	_, err := s.ResolveFingerprint(ctx, "abc")
	assert.ErrorIs(t, err, ErrAmbiguousFingerprint)
}

func TestFindEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	fpA, _, err := s.WriteTrace(ctx, "a.yaml", createTestTrace("a"))
	require.NoError(t, err)
	fpB, _, err := s.WriteTrace(ctx, "b.yaml", createTestTrace("b"))
	require.NoError(t, err)

	all, err := s.FindEvents(ctx, "", "sched_switch")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, fpA, all[0].Fingerprint)
	assert.Equal(t, int64(0), *all[0].StreamID)
	assert.Equal(t, int64(1), *all[1].StreamID)
	assert.Equal(t, fpB, all[2].Fingerprint)

	first := all[0]
	assert.Equal(t, int64(13), *first.LogLevel)
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(first.Fields), &fields))
	assert.Equal(t, "struct", fields["kind"])

	inB, err := s.FindEvents(ctx, fpB, "sched_wakeup")
	require.NoError(t, err)
	require.Len(t, inB, 1)
	assert.Nil(t, inB[0].LogLevel)
	assert.Empty(t, inB[0].Fields)

	none, err := s.FindEvents(ctx, "", "nope")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestWriteTrace_IDLessStream(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tr := ctf.NewTrace()
	tr.ByteOrder = ctf.BigEndian
	tr.Streams = []*ctf.Stream{{Events: []*ctf.Event{{Name: "only"}}}}

	fp, inserted, err := s.WriteTrace(ctx, "min.yaml", tr)
	require.NoError(t, err)
	require.True(t, inserted)

	rec, err := s.ReadTrace(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, "", rec.Version)
	assert.Equal(t, "", rec.UUID)
	assert.Empty(t, rec.Clocks)

	events, err := s.FindEvents(ctx, fp, "only")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].StreamID)
	assert.Nil(t, events[0].ID)
}
