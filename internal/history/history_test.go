package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/dripbot/internal/logic"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	first, err := s.Record(ctx, Entry{Time: base, Event: "FRESH", Phrase: "Fresk dromp.", Sent: true})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = s.Record(ctx, Entry{Time: base.Add(time.Minute), Event: "ANNOUNCE_FAILED", Phrase: "Frild dap.", Error: "status 502"})
	require.NoError(t, err)

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "ANNOUNCE_FAILED", got[0].Event)
	assert.False(t, got[0].Sent)
	assert.Equal(t, "status 502", got[0].Error)
	assert.True(t, got[0].Time.Equal(base.Add(time.Minute)))

	assert.Equal(t, first.ID, got[1].ID)
	assert.Equal(t, "Fresk dromp.", got[1].Phrase)
	assert.True(t, got[1].Sent)
	assert.Empty(t, got[1].Error)
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, Entry{Time: base.Add(time.Duration(i) * time.Minute), Event: "FRESH", Phrase: "p", Sent: true})
		require.NoError(t, err)
	}

	got, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Time.Equal(base.Add(4*time.Minute)), "newest first")

	none, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordAssignsTime(t *testing.T) {
	s := newTestStore(t)
	e, err := s.Record(context.Background(), Entry{Event: "FRESH", Phrase: "p", Sent: true})
	require.NoError(t, err)
	assert.False(t, e.Time.IsZero())
	assert.Len(t, e.ID, 26)
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.Record(ctx, Entry{Event: "FRESH", Phrase: "Fop dep.", Sent: true})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fop dep.", got[0].Phrase)
}

func TestRecorderFiltersEvents(t *testing.T) {
	s := newTestStore(t)
	r := NewRecorder(s)
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	r.BrewEvent(logic.Event{Timestamp: at, Type: logic.EventDash, Mode: logic.ModeDashPending})
	r.BrewEvent(logic.Event{Timestamp: at.Add(time.Second), Type: logic.EventFresh, Phrase: "Flab dip."})
	r.BrewEvent(logic.Event{Timestamp: at.Add(2 * time.Second), Type: logic.EventExpired})
	r.BrewEvent(logic.Event{Timestamp: at.Add(3 * time.Second), Type: logic.EventAnnounceFailed, Phrase: "Fen drop.", Err: errors.New("boom")})

	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ANNOUNCE_FAILED", got[0].Event)
	assert.Equal(t, "boom", got[0].Error)
	assert.Equal(t, "FRESH", got[1].Event)
	assert.True(t, got[1].Sent)
}

type failingStore struct{ Store }

func (failingStore) Record(context.Context, Entry) (Entry, error) {
	return Entry{}, errors.New("disk full")
}

func TestRecorderSurvivesStoreError(t *testing.T) {
	r := NewRecorder(failingStore{})
	assert.NotPanics(t, func() {
		r.BrewEvent(logic.Event{Type: logic.EventFresh, Phrase: "x"})
	})
}
