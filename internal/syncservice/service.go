// Package syncservice is the application service shared by the HTTP API,
// the MCP server and the CLI.
package syncservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/starford/echovault/internal/apperr"
	"github.com/starford/echovault/internal/models"
	"github.com/starford/echovault/internal/notestore"
	"github.com/starford/echovault/internal/orchestrator"
	"github.com/starford/echovault/internal/parser"
	"github.com/starford/echovault/internal/todosync"
)

// Syncer runs and reports sync passes.
type Syncer interface {
	RunOnce(ctx context.Context) orchestrator.Result
	Running() bool
	Last() *orchestrator.Result
}

// State exposes persisted sync state.
type State interface {
	Checkpoint(ctx context.Context) (time.Time, error)
	LastRun(ctx context.Context) (*models.SyncRun, error)
}

// Backlog reports unsynced captures on the server.
type Backlog interface {
	PendingCount(ctx context.Context) (models.Pending, error)
}

// Notes resolves daily notes.
type Notes interface {
	Location() *time.Location
	DailyPath(date time.Time) string
	Daily(ctx context.Context, date time.Time) (*notestore.Document, error)
	Load(ctx context.Context, path string) (*notestore.Document, error)
}

// Status is the current sync state.
type Status struct {
	Running    bool            `json:"running"`
	Checkpoint time.Time       `json:"checkpoint"`
	LastRun    *models.SyncRun `json:"last_run,omitempty"`
}

// NoteDetail is the parsed representation of a vault note.
type NoteDetail struct {
	Path        string            `json:"path"`
	Title       string            `json:"title"`
	Kind        string            `json:"kind,omitempty"`
	Content     string            `json:"content"`
	Tags        []string          `json:"tags"`
	Links       []string          `json:"links"`
	Frontmatter map[string]any    `json:"frontmatter,omitempty"`
	Tasks       []models.TaskLine `json:"tasks"`
}

// Service coordinates sync, state and note lookups.
type Service struct {
	syncer  Syncer
	state   State
	backlog Backlog
	notes   Notes
	emblem  string
}

// New creates a Service. emblem identifies syncable task lines in notes.
func New(syncer Syncer, state State, backlog Backlog, notes Notes, emblem string) *Service {
	return &Service{syncer: syncer, state: state, backlog: backlog, notes: notes, emblem: emblem}
}

// Sync runs one sync pass. The returned result has Skipped set when another
// pass was already running.
func (s *Service) Sync(ctx context.Context) orchestrator.Result {
	return s.syncer.RunOnce(ctx)
}

// Status reports whether a sync is running, the checkpoint and the last
// recorded run.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	cp, err := s.state.Checkpoint(ctx)
	if err != nil {
		return nil, err
	}
	last, err := s.state.LastRun(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{Running: s.syncer.Running(), Checkpoint: cp, LastRun: last}, nil
}

// Pending returns the server-side backlog of unsynced captures.
func (s *Service) Pending(ctx context.Context) (models.Pending, error) {
	if s.backlog == nil {
		return models.Pending{}, apperr.ErrNotConfigured
	}
	return s.backlog.PendingCount(ctx)
}

// ParseDate resolves raw (see ParseDate) in the vault's time zone.
func (s *Service) ParseDate(raw string) (time.Time, error) {
	return ParseDate(raw, time.Now(), s.notes.Location())
}

// DailyNote returns the daily note for date. When create is set a missing
// note is created from the template; otherwise apperr.ErrNotFound is
// returned.
func (s *Service) DailyNote(ctx context.Context, date time.Time, create bool) (*NoteDetail, error) {
	var (
		doc *notestore.Document
		err error
	)
	if create {
		doc, err = s.notes.Daily(ctx, date)
	} else {
		doc, err = s.notes.Load(ctx, s.notes.DailyPath(date))
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("daily note %s: %w", s.notes.DailyPath(date), apperr.ErrNotFound)
		}
		return nil, err
	}
	return s.buildNoteDetail(doc.Path, doc.Content), nil
}

func (s *Service) buildNoteDetail(path, content string) *NoteDetail {
	n := parser.Parse([]byte(content))
	return &NoteDetail{
		Path:        path,
		Title:       n.Title,
		Kind:        n.Kind,
		Content:     content,
		Tags:        nonNilSlice(n.Tags),
		Links:       nonNilSlice(n.Links),
		Frontmatter: n.Frontmatter,
		Tasks:       nonNilSlice(todosync.ScanText(path, content, s.emblem)),
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
