// Package notestore maps logical dates and meeting captures to vault
// documents, creating them from templates on first access.
package notestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/starford/echovault/internal/storage"
)

// Config controls document locations and skeleton contents.
type Config struct {
	DailyFolder      string
	MeetingFolder    string
	CaptureHeader    string
	TodoHeader       string
	AutomationHeader string
	TodoEnabled      bool
	Audio            bool
	AudioLink        func(id int64) string
	TZ               *time.Location
}

func (c Config) location() *time.Location {
	if c.TZ == nil {
		return time.Local
	}
	return c.TZ
}

// Document is the in-memory text of one vault file.
type Document struct {
	Path    string
	Content string
	Created bool

	original string
}

// Changed reports whether Content differs from what was read or written last.
func (d *Document) Changed() bool {
	return d.Content != d.original
}

// Store resolves and persists vault documents.
type Store struct {
	fs storage.Provider

	mu  sync.RWMutex
	cfg Config
}

// New creates a Store over fs.
func New(fs storage.Provider, cfg Config) *Store {
	return &Store{fs: fs, cfg: cfg}
}

// Refresh replaces the configuration used by subsequent calls.
func (s *Store) Refresh(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Config returns the current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Location returns the time zone used for calendar dates.
func (s *Store) Location() *time.Location {
	return s.Config().location()
}

// DailyPath returns the vault-relative path of the daily note for date,
// evaluated in the configured time zone: {folder}/{yyyy}/{yyyy-mm-dd}.md.
func (s *Store) DailyPath(date time.Time) string {
	cfg := s.Config()
	d := date.In(cfg.location())
	return path.Join(cfg.DailyFolder, d.Format("2006"), d.Format("2006-01-02")+".md")
}

// Daily returns the daily note for date, creating folders and the templated
// skeleton when the file does not exist yet. Existing files are returned as
// they are.
func (s *Store) Daily(ctx context.Context, date time.Time) (*Document, error) {
	cfg := s.Config()
	p := s.DailyPath(date)

	doc, err := s.Load(ctx, p)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := s.fs.MkdirAll(path.Dir(p)); err != nil {
		return nil, fmt.Errorf("notestore: daily folder: %w", err)
	}
	content, err := dailySkeleton(cfg, date.In(cfg.location()))
	if err != nil {
		return nil, err
	}
	if err := s.fs.Write(p, []byte(content)); err != nil {
		return nil, fmt.Errorf("notestore: create daily note: %w", err)
	}
	return &Document{Path: p, Content: content, Created: true, original: content}, nil
}

// Load reads an existing document. A missing file yields an error matching
// os.ErrNotExist.
func (s *Store) Load(_ context.Context, p string) (*Document, error) {
	ok, err := s.fs.Exists(p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("notestore: %s: %w", p, os.ErrNotExist)
	}
	data, err := s.fs.Read(p)
	if err != nil {
		return nil, err
	}
	return &Document{Path: p, Content: string(data), original: string(data)}, nil
}

// Save writes doc back when its content changed.
func (s *Store) Save(_ context.Context, doc *Document) error {
	if !doc.Changed() {
		return nil
	}
	if err := s.fs.Write(doc.Path, []byte(doc.Content)); err != nil {
		return fmt.Errorf("notestore: save %s: %w", doc.Path, err)
	}
	doc.original = doc.Content
	return nil
}
