package syncservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/echovault/internal/apperr"
	"github.com/starford/echovault/internal/models"
	"github.com/starford/echovault/internal/orchestrator"
	"github.com/starford/echovault/internal/testutil"
)

type fakeSyncer struct {
	running bool
	calls   int
}

func (f *fakeSyncer) RunOnce(context.Context) orchestrator.Result {
	f.calls++
	return orchestrator.Result{RunID: "run-1", Captures: 2}
}

func (f *fakeSyncer) Running() bool              { return f.running }
func (f *fakeSyncer) Last() *orchestrator.Result { return nil }

type fakeBacklog struct {
	pending models.Pending
	err     error
}

func (f fakeBacklog) PendingCount(context.Context) (models.Pending, error) { return f.pending, f.err }

var day = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func TestSync(t *testing.T) {
	syncer := &fakeSyncer{}
	notes, _ := testutil.TestNotes(t)
	svc := New(syncer, testutil.TestCheckpoints(t), nil, notes, "🎤")

	res := svc.Sync(context.Background())
	require.Equal(t, "run-1", res.RunID)
	require.Equal(t, 1, syncer.calls)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.TestCheckpoints(t)
	_, err := db.Advance(ctx, day)
	require.NoError(t, err)
	require.NoError(t, db.RecordRun(ctx, models.SyncRun{ID: "r1", StartedAt: day, FinishedAt: day.Add(time.Second), Captures: 4}))

	notes, _ := testutil.TestNotes(t)
	svc := New(&fakeSyncer{running: true}, db, nil, notes, "🎤")

	st, err := svc.Status(ctx)
	require.NoError(t, err)
	require.True(t, st.Running)
	require.True(t, st.Checkpoint.Equal(day))
	require.NotNil(t, st.LastRun)
	require.Equal(t, 4, st.LastRun.Captures)
}

func TestPending(t *testing.T) {
	notes, _ := testutil.TestNotes(t)
	db := testutil.TestCheckpoints(t)

	svc := New(&fakeSyncer{}, db, nil, notes, "🎤")
	_, err := svc.Pending(context.Background())
	require.ErrorIs(t, err, apperr.ErrNotConfigured)

	svc = New(&fakeSyncer{}, db, fakeBacklog{pending: models.Pending{Count: 3}}, notes, "🎤")
	p, err := svc.Pending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, p.Count)

	svc = New(&fakeSyncer{}, db, fakeBacklog{err: errors.New("offline")}, notes, "🎤")
	_, err = svc.Pending(context.Background())
	require.ErrorContains(t, err, "offline")
}

func TestDailyNote(t *testing.T) {
	ctx := context.Background()
	notes, fs := testutil.TestNotes(t)
	svc := New(&fakeSyncer{}, testutil.TestCheckpoints(t), nil, notes, "🎤")

	_, err := svc.DailyNote(ctx, day, false)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	n, err := svc.DailyNote(ctx, day, true)
	require.NoError(t, err)
	require.Equal(t, "Daily/2025/2025-01-01.md", n.Path)
	require.Equal(t, "daily", n.Kind)
	require.Equal(t, "2025-01-01", n.Title)
	require.Empty(t, n.Tasks)

	require.NoError(t, fs.Write(n.Path, []byte(n.Content+"\n- [ ] 🎤 Call the plumber #📼t 12\n")))
	n, err = svc.DailyNote(ctx, day, false)
	require.NoError(t, err)
	require.Len(t, n.Tasks, 1)
	require.Equal(t, int64(12), n.Tasks[0].TodoID)
	require.Equal(t, "Call the plumber", n.Tasks[0].Text)
}

func TestParseDate(t *testing.T) {
	now := time.Date(2025, 3, 5, 8, 30, 0, 0, time.UTC) // a Wednesday
	tests := []struct {
		raw  string
		want string
	}{
		{"", "2025-03-05"},
		{"today", "2025-03-05"},
		{"2024-12-31", "2024-12-31"},
		{"yesterday", "2025-03-04"},
		{"tomorrow", "2025-03-06"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDate(tt.raw, now, time.UTC)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Format(time.DateOnly))
			require.Equal(t, 12, got.Hour())
		})
	}

	_, err := ParseDate("the colour blue", now, time.UTC)
	require.Error(t, err)
}

func TestParseDate_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	now := time.Date(2025, 3, 5, 20, 0, 0, 0, time.UTC) // already Mar 6 in Tokyo
	got, err := ParseDate("today", now, tokyo)
	require.NoError(t, err)
	require.Equal(t, "2025-03-06", got.Format(time.DateOnly))
}
