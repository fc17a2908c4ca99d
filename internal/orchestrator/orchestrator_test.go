package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/echovault/internal/capturesync"
	"github.com/starford/echovault/internal/models"
	"github.com/starford/echovault/internal/notestore"
	"github.com/starford/echovault/internal/sse"
	"github.com/starford/echovault/internal/todosync"
)

type fakeCaptures struct {
	res     capturesync.Result
	err     error
	calls   int
	block   chan struct{}
	started chan struct{}
	cfg     capturesync.Config
}

func (f *fakeCaptures) Run(context.Context) (capturesync.Result, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.res, f.err
}

func (f *fakeCaptures) Refresh(cfg capturesync.Config) { f.cfg = cfg }

type fakeTodos struct {
	res   todosync.Result
	err   error
	calls int
	cfg   todosync.Config
}

func (f *fakeTodos) Run(context.Context) (todosync.Result, error) {
	f.calls++
	return f.res, f.err
}

func (f *fakeTodos) Refresh(cfg todosync.Config) { f.cfg = cfg }

type fakeNotes struct {
	cfg notestore.Config
}

func (f *fakeNotes) Refresh(cfg notestore.Config) { f.cfg = cfg }

type fakeHistory struct {
	runs []models.SyncRun
}

func (f *fakeHistory) RecordRun(_ context.Context, run models.SyncRun) error {
	f.runs = append(f.runs, run)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
	notes  []string
}

func (f *fakeNotifier) Publish(e sse.Event) {
	f.mu.Lock()
	f.events = append(f.events, e.Type)
	f.mu.Unlock()
}

func (f *fakeNotifier) PublishNoteEvent(kind, path string) {
	f.mu.Lock()
	f.notes = append(f.notes, kind+":"+path)
	f.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_AggregatesStages(t *testing.T) {
	caps := &fakeCaptures{res: capturesync.Result{Added: 3, Skipped: 1, Acknowledged: 3, Errors: 1, Touched: []string{"Daily/2025/2025-01-01.md"}}}
	todos := &fakeTodos{res: todosync.Result{Pushed: 1, Created: 2, Pulled: 4, Errors: 1, Today: "Daily/2025/2025-01-02.md"}}
	hist := &fakeHistory{}
	events := &fakeNotifier{}
	o := New(caps, todos, &fakeNotes{}, discardLogger(), true, WithHistory(hist), WithNotifier(events))

	res := o.RunOnce(context.Background())
	require.False(t, res.Skipped)
	require.NotEmpty(t, res.RunID)
	require.Equal(t, 3, res.Captures)
	require.Equal(t, 1, res.Duplicates)
	require.Equal(t, 1, res.TodosPushed)
	require.Equal(t, 2, res.TodosCreated)
	require.Equal(t, 4, res.TodosPulled)
	require.Equal(t, 2, res.Errors)
	require.False(t, res.FinishedAt.Before(res.StartedAt))

	require.Len(t, hist.runs, 1)
	require.Equal(t, res.RunID, hist.runs[0].ID)
	require.Equal(t, 2, hist.runs[0].TodosCreated)

	require.Equal(t, []string{sse.TypeSyncStarted, sse.TypeSyncCompleted}, events.events)
	require.Equal(t, []string{"updated:Daily/2025/2025-01-01.md", "updated:Daily/2025/2025-01-02.md"}, events.notes)

	last := o.Last()
	require.NotNil(t, last)
	require.Equal(t, res.RunID, last.RunID)
}

func TestRunOnce_StageErrorsCountedAndIsolated(t *testing.T) {
	caps := &fakeCaptures{res: capturesync.Result{Added: 1}, err: errors.New("fetch failed")}
	todos := &fakeTodos{err: errors.New("todo fetch failed")}
	o := New(caps, todos, nil, discardLogger(), true)

	res := o.RunOnce(context.Background())
	require.Equal(t, 1, res.Captures)
	require.Equal(t, 2, res.Errors)
	require.Equal(t, 1, todos.calls, "todo stage runs after a capture failure")
	require.False(t, o.Running())
}

func TestRunOnce_TodosDisabled(t *testing.T) {
	caps := &fakeCaptures{}
	todos := &fakeTodos{}
	o := New(caps, todos, nil, discardLogger(), false)

	o.RunOnce(context.Background())
	require.Equal(t, 1, caps.calls)
	require.Zero(t, todos.calls)
}

func TestRunOnce_SingleFlight(t *testing.T) {
	caps := &fakeCaptures{block: make(chan struct{}), started: make(chan struct{})}
	o := New(caps, &fakeTodos{}, nil, discardLogger(), false)

	done := make(chan Result)
	go func() { done <- o.RunOnce(context.Background()) }()

	select {
	case <-caps.started:
	case <-time.After(time.Second):
		t.Fatal("first run did not start")
	}
	require.True(t, o.Running())

	second := o.RunOnce(context.Background())
	require.True(t, second.Skipped)
	require.Empty(t, second.RunID)

	close(caps.block)
	first := <-done
	require.False(t, first.Skipped)
	require.False(t, o.Running())
	require.Equal(t, 1, caps.calls)

	caps.block, caps.started = nil, nil
	third := o.RunOnce(context.Background())
	require.False(t, third.Skipped)
}

func TestRunOnce_ReleasesFlagOnPanic(t *testing.T) {
	o := New(panicCaptures{}, nil, nil, discardLogger(), false)

	require.Panics(t, func() { o.RunOnce(context.Background()) })
	require.False(t, o.Running())
}

type panicCaptures struct{}

func (panicCaptures) Run(context.Context) (capturesync.Result, error) { panic("boom") }
func (panicCaptures) Refresh(capturesync.Config)                       {}

func TestRefresh_FansOut(t *testing.T) {
	caps := &fakeCaptures{}
	todos := &fakeTodos{}
	notes := &fakeNotes{}
	o := New(caps, todos, notes, discardLogger(), false)

	o.Refresh(Settings{
		Notes:       notestore.Config{DailyFolder: "Journal"},
		Capture:     capturesync.Config{PageSize: 25},
		Todo:        todosync.Config{ScanWindow: 7},
		TodoEnabled: true,
	})
	require.Equal(t, "Journal", notes.cfg.DailyFolder)
	require.Equal(t, 25, caps.cfg.PageSize)
	require.Equal(t, 7, todos.cfg.ScanWindow)

	o.RunOnce(context.Background())
	require.Equal(t, 1, todos.calls)
}
