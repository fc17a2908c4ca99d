// Package orchestrator sequences capture sync and todo reconciliation into a
// single-flight sync run.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/starford/echovault/internal/capturesync"
	"github.com/starford/echovault/internal/models"
	"github.com/starford/echovault/internal/notestore"
	"github.com/starford/echovault/internal/sse"
	"github.com/starford/echovault/internal/todosync"
)

// CaptureStage pulls captures into the vault.
type CaptureStage interface {
	Run(ctx context.Context) (capturesync.Result, error)
	Refresh(cfg capturesync.Config)
}

// TodoStage reconciles todos.
type TodoStage interface {
	Run(ctx context.Context) (todosync.Result, error)
	Refresh(cfg todosync.Config)
}

// NoteConfigurer receives note store configuration updates.
type NoteConfigurer interface {
	Refresh(cfg notestore.Config)
}

// History stores finished runs.
type History interface {
	RecordRun(ctx context.Context, run models.SyncRun) error
}

// Notifier receives run lifecycle and note change events.
type Notifier interface {
	Publish(event sse.Event)
	PublishNoteEvent(kind, path string)
}

// Settings is the configuration fanned out to every component by Refresh.
type Settings struct {
	Notes       notestore.Config
	Capture     capturesync.Config
	Todo        todosync.Config
	TodoEnabled bool
}

// Result summarizes one RunOnce call. Skipped is set, and everything else
// left zero, when another run was already in progress.
type Result struct {
	RunID        string    `json:"run_id,omitempty"`
	Skipped      bool      `json:"skipped"`
	Captures     int       `json:"captures"`
	Duplicates   int       `json:"duplicates"`
	Acknowledged int       `json:"acknowledged"`
	TodosPushed  int       `json:"todos_pushed"`
	TodosCreated int       `json:"todos_created"`
	TodosPulled  int       `json:"todos_pulled"`
	Errors       int       `json:"errors"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Orchestrator runs sync passes one at a time.
type Orchestrator struct {
	captures CaptureStage
	todos    TodoStage
	notes    NoteConfigurer
	history  History
	notifier Notifier
	logger   *slog.Logger

	running atomic.Bool

	mu          sync.RWMutex
	todoEnabled bool
	last        *Result
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHistory records every finished run.
func WithHistory(h History) Option {
	return func(o *Orchestrator) {
		o.history = h
	}
}

// WithNotifier publishes run and note events.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// New creates an Orchestrator. todoEnabled gates the todo stage.
func New(captures CaptureStage, todos TodoStage, notes NoteConfigurer, logger *slog.Logger, todoEnabled bool, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		captures:    captures,
		todos:       todos,
		notes:       notes,
		logger:      logger,
		todoEnabled: todoEnabled,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Refresh pushes new settings to every component. A run in progress keeps
// the settings it started with.
func (o *Orchestrator) Refresh(s Settings) {
	if o.notes != nil {
		o.notes.Refresh(s.Notes)
	}
	o.captures.Refresh(s.Capture)
	if o.todos != nil {
		o.todos.Refresh(s.Todo)
	}
	o.mu.Lock()
	o.todoEnabled = s.TodoEnabled
	o.mu.Unlock()
	o.logger.Info("sync: settings refreshed", slog.Bool("todo_enabled", s.TodoEnabled))
}

// Running reports whether a run is in progress.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Last returns the result of the most recent completed run, or nil.
func (o *Orchestrator) Last() *Result {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.last == nil {
		return nil
	}
	r := *o.last
	return &r
}

// RunOnce performs one sync: captures first, then todos when enabled. A call
// made while another run is in progress returns immediately with Skipped
// set. Stage errors are logged and counted; RunOnce itself never fails.
func (o *Orchestrator) RunOnce(ctx context.Context) Result {
	if !o.running.CompareAndSwap(false, true) {
		o.logger.Info("sync: already running, skipped")
		return Result{Skipped: true}
	}
	defer o.running.Store(false)

	o.mu.RLock()
	todoEnabled := o.todoEnabled
	o.mu.RUnlock()

	res := Result{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	logger := o.logger.With(slog.String("run_id", res.RunID))
	logger.Info("sync: started", slog.Bool("todos", todoEnabled))
	o.publish(sse.Event{Type: sse.TypeSyncStarted, Data: map[string]string{"run_id": res.RunID}})

	cr, err := o.captures.Run(ctx)
	res.Captures = cr.Added
	res.Duplicates = cr.Skipped
	res.Acknowledged = cr.Acknowledged
	res.Errors += cr.Errors
	if err != nil {
		res.Errors++
		logger.Error("sync: capture stage failed", slog.String("error", err.Error()))
	}
	for _, p := range cr.Touched {
		o.noteEvent("updated", p)
	}

	if todoEnabled && o.todos != nil {
		tr, err := o.todos.Run(ctx)
		res.TodosPushed = tr.Pushed
		res.TodosCreated = tr.Created
		res.TodosPulled = tr.Pulled
		res.Errors += tr.Errors
		if err != nil {
			res.Errors++
			logger.Error("sync: todo stage failed", slog.String("error", err.Error()))
		}
		if tr.Today != "" {
			o.noteEvent("updated", tr.Today)
		}
	}

	res.FinishedAt = time.Now().UTC()
	logger.Info("sync: finished",
		slog.Int("captures", res.Captures),
		slog.Int("acknowledged", res.Acknowledged),
		slog.Int("todos_pushed", res.TodosPushed),
		slog.Int("todos_created", res.TodosCreated),
		slog.Int("todos_pulled", res.TodosPulled),
		slog.Int("errors", res.Errors),
		slog.Duration("took", res.FinishedAt.Sub(res.StartedAt)))

	o.record(ctx, logger, res)
	o.publish(sse.Event{Type: sse.TypeSyncCompleted, Data: res})

	o.mu.Lock()
	last := res
	o.last = &last
	o.mu.Unlock()
	return res
}

func (o *Orchestrator) record(ctx context.Context, logger *slog.Logger, res Result) {
	if o.history == nil {
		return
	}
	run := models.SyncRun{
		ID:           res.RunID,
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
		Captures:     res.Captures,
		TodosPushed:  res.TodosPushed,
		TodosCreated: res.TodosCreated,
		TodosPulled:  res.TodosPulled,
		Errors:       res.Errors,
	}
	if err := o.history.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("sync: record run failed", slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) publish(e sse.Event) {
	if o.notifier != nil {
		o.notifier.Publish(e)
	}
}

func (o *Orchestrator) noteEvent(kind, path string) {
	if o.notifier != nil {
		o.notifier.PublishNoteEvent(kind, path)
	}
}
