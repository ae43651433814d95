// ABOUTME: Tests for the SQLite decision audit log
// ABOUTME: Covers append/list round-trips, filtering, limits, and recorder integration

package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaggalex/authgate/internal/auth"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AppendAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := &Entry{Subject: "u1", Path: "/api/docs", OrgID: "org1", Outcome: "allowed"}
	require.NoError(t, s.Append(ctx, e))
	assert.NotEmpty(t, e.ID, "Append must generate an id")
	assert.False(t, e.At.IsZero(), "Append must stamp the entry")

	entries, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].Subject)
	assert.Equal(t, "/api/docs", entries[0].Path)
	assert.Equal(t, "org1", entries[0].OrgID)
	assert.Equal(t, "allowed", entries[0].Outcome)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, outcome := range []string{"allowed", "denied", "allowed"} {
		require.NoError(t, s.Append(ctx, &Entry{
			Subject: "u1",
			Path:    "/x",
			Outcome: outcome,
			At:      base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "allowed", entries[0].Outcome)
	assert.True(t, entries[0].At.After(entries[2].At))
}

func TestStore_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, s.Append(ctx, &Entry{Subject: "u1", Path: "/a", Outcome: "allowed", At: base}))
	require.NoError(t, s.Append(ctx, &Entry{Subject: "u2", Path: "/b", Outcome: "denied", At: base.Add(time.Second)}))
	require.NoError(t, s.Append(ctx, &Entry{Subject: "u2", Path: "/c", Outcome: "allowed", At: base.Add(2 * time.Second)}))

	subject := "u2"
	entries, err := s.List(ctx, Filter{Subject: &subject})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	outcome := "denied"
	entries, err = s.List(ctx, Filter{Outcome: &outcome})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/b", entries[0].Path)

	since := base.Add(time.Second)
	entries, err = s.List(ctx, Filter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, &Entry{Subject: "u1", Path: "/x", Outcome: "allowed"}))
	}

	entries, err := s.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_RecordDecision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.RecordDecision(ctx, auth.Decision{
		Subject: "u1",
		Path:    "/api/docs",
		OrgID:   "org1",
		Outcome: "denied",
		At:      time.Now().UTC(),
	})

	entries, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "denied", entries[0].Outcome)
}
