// Package todosync reconciles emblem-tagged checklist lines in the vault
// with the remote todo list.
//
// Local completion state is pushed to the server, new local tasks are
// created remotely and linked in place, and the active remote list is pulled
// back into today's note as a complete snapshot.
package todosync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/echovault/internal/marker"
	"github.com/starford/echovault/internal/models"
	"github.com/starford/echovault/internal/notestore"
	"github.com/starford/echovault/internal/section"
	"github.com/starford/echovault/internal/storage"
)

// Remote is the subset of the remote service used for todos.
type Remote interface {
	FetchTodos(ctx context.Context, includeArchived bool) ([]models.Todo, error)
	CreateTodo(ctx context.Context, text string) (models.Todo, error)
	UpdateTodo(ctx context.Context, id int64, patch models.TodoPatch) (models.Todo, error)
}

// Notes loads, creates and saves vault documents.
type Notes interface {
	Daily(ctx context.Context, date time.Time) (*notestore.Document, error)
	Load(ctx context.Context, path string) (*notestore.Document, error)
	Save(ctx context.Context, doc *notestore.Document) error
}

// Config controls the scan and the pulled section.
type Config struct {
	// Folder is scanned recursively for documents.
	Folder     string
	ScanWindow int
	Emblem     string
	// Header introduces the pulled todo section of today's note.
	Header string
	// Anchor is the header the todo section is created before when missing.
	Anchor string
}

// Result summarizes one reconciliation pass.
type Result struct {
	Pushed  int `json:"pushed"`
	Created int `json:"created"`
	Linked  int `json:"linked"`
	Pulled  int `json:"pulled"`
	Errors  int `json:"errors"`
	// Today is the path of the note holding the pulled section.
	Today string `json:"today,omitempty"`
}

// Reconciler runs todo reconciliation passes.
type Reconciler struct {
	remote Remote
	fs     storage.Provider
	notes  Notes
	logger *slog.Logger
	now    func() time.Time

	mu  sync.RWMutex
	cfg Config
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides the clock used to pick today's note.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// New creates a Reconciler.
func New(remote Remote, fs storage.Provider, notes Notes, logger *slog.Logger, cfg Config, opts ...Option) *Reconciler {
	r := &Reconciler{
		remote: remote,
		fs:     fs,
		notes:  notes,
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh replaces the configuration used by subsequent runs.
func (r *Reconciler) Refresh(cfg Config) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

func (r *Reconciler) config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg := r.cfg
	if cfg.ScanWindow <= 0 {
		cfg.ScanWindow = DefaultScanWindow
	}
	if cfg.Emblem == "" {
		cfg.Emblem = DefaultEmblem
	}
	return cfg
}

// Run performs one full reconciliation pass. Failures on individual lines are
// logged and counted; failures fetching todos, scanning documents or writing
// today's section abort the pass.
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	cfg := r.config()
	var res Result

	todos, err := r.remote.FetchTodos(ctx, false)
	if err != nil {
		return res, fmt.Errorf("todosync: fetch todos: %w", err)
	}
	working := make(map[int64]models.Todo, len(todos))
	for _, t := range todos {
		working[t.ID] = t
	}

	lines, err := r.scan(ctx, cfg)
	if err != nil {
		return res, fmt.Errorf("todosync: scan: %w", err)
	}

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.reconcileLine(ctx, line, working, &res); err != nil {
			res.Errors++
			r.logger.Warn("todosync: line failed",
				slog.String("path", line.Path),
				slog.Int("line", line.Line+1),
				slog.String("error", err.Error()))
		}
	}

	todos, err = r.remote.FetchTodos(ctx, false)
	if err != nil {
		return res, fmt.Errorf("todosync: refetch todos: %w", err)
	}
	active := Active(todos)

	doc, err := r.notes.Daily(ctx, r.now())
	if err != nil {
		return res, fmt.Errorf("todosync: today's note: %w", err)
	}
	doc.Content = section.Replace(doc.Content, cfg.Header, Render(active), cfg.Anchor)
	if err := r.notes.Save(ctx, doc); err != nil {
		return res, fmt.Errorf("todosync: write todo section: %w", err)
	}
	res.Pulled = len(active)
	res.Today = doc.Path
	return res, nil
}

func (r *Reconciler) scan(ctx context.Context, cfg Config) ([]models.TaskLine, error) {
	paths, err := recent(r.fs, cfg.Folder, cfg.ScanWindow)
	if err != nil {
		return nil, err
	}
	var out []models.TaskLine
	for _, p := range paths {
		doc, err := r.notes.Load(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, ScanText(p, doc.Content, cfg.Emblem)...)
	}
	return out, nil
}

func (r *Reconciler) reconcileLine(ctx context.Context, line models.TaskLine, working map[int64]models.Todo, res *Result) error {
	if line.Linked() {
		todo, ok := working[line.TodoID]
		if !ok {
			r.logger.Debug("todosync: todo not found remotely", slog.Int64("id", line.TodoID), slog.String("path", line.Path))
			return nil
		}
		delete(working, line.TodoID)
		if todo.Completed == line.Completed {
			return nil
		}
		completed := line.Completed
		if _, err := r.remote.UpdateTodo(ctx, todo.ID, models.TodoPatch{Completed: &completed}); err != nil {
			return fmt.Errorf("push todo %d: %w", todo.ID, err)
		}
		res.Pushed++
		r.logger.Debug("todosync: pushed", slog.Int64("id", todo.ID), slog.Bool("completed", completed))
		return nil
	}

	if line.Text == "" {
		return nil
	}
	todo, err := r.remote.CreateTodo(ctx, line.Text)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	res.Created++

	linked, err := r.link(ctx, line, todo.ID)
	if err != nil {
		return fmt.Errorf("link todo %d: %w", todo.ID, err)
	}
	if linked {
		res.Linked++
	} else {
		r.logger.Info("todosync: line changed, not linked", slog.Int64("id", todo.ID), slog.String("path", line.Path))
	}
	return nil
}

// link appends the todo marker to the line, provided the line still reads
// exactly as it did when scanned.
func (r *Reconciler) link(ctx context.Context, line models.TaskLine, id int64) (bool, error) {
	doc, err := r.notes.Load(ctx, line.Path)
	if err != nil {
		return false, err
	}
	lines := strings.Split(doc.Content, "\n")
	if line.Line >= len(lines) || lines[line.Line] != line.Raw {
		return false, nil
	}
	raw := strings.TrimRight(line.Raw, "\r")
	lines[line.Line] = raw + " " + marker.TodoMarker(id) + line.Raw[len(raw):]
	doc.Content = strings.Join(lines, "\n")
	if err := r.notes.Save(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

// Active filters todos to those neither archived nor completed, ordered by
// position and then id.
func Active(todos []models.Todo) []models.Todo {
	out := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		if t.Active() {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Render returns the section body for todos, one checklist line each.
func Render(todos []models.Todo) string {
	var b strings.Builder
	for _, t := range todos {
		box := "- [ ] "
		if t.Completed {
			box = "- [x] "
		}
		b.WriteString(box + strings.Join(strings.Fields(t.Text), " ") + " " + marker.TodoMarker(t.ID) + "\n")
	}
	return b.String()
}
