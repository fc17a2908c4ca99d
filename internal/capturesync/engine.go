// Package capturesync pulls unsynced captures from the remote service into
// daily and meeting notes, acknowledging each one and advancing the
// checkpoint past acknowledged captures only.
package capturesync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/starford/echovault/internal/format"
	"github.com/starford/echovault/internal/models"
	"github.com/starford/echovault/internal/notestore"
	"github.com/starford/echovault/internal/section"
)

// DefaultPageSize is the fetch limit used when Config.PageSize is unset.
const DefaultPageSize = 100

// Source is the subset of the remote service the engine consumes.
type Source interface {
	FetchCapturesSince(ctx context.Context, since time.Time, limit int) (models.CapturePage, error)
	AcknowledgeCapture(ctx context.Context, id int64) error
}

// Checkpoints persists the capture checkpoint.
type Checkpoints interface {
	Checkpoint(ctx context.Context) (time.Time, error)
	// Advance stores ts if it is later than the stored value and returns the
	// value in effect afterwards.
	Advance(ctx context.Context, ts time.Time) (time.Time, error)
}

// Notes resolves and persists vault documents.
type Notes interface {
	Daily(ctx context.Context, date time.Time) (*notestore.Document, error)
	Meeting(ctx context.Context, c models.Capture) (*notestore.Document, error)
	Save(ctx context.Context, doc *notestore.Document) error
}

// Config controls page size and rendering.
type Config struct {
	PageSize int
	Header   string
	Format   format.Options
}

// Result summarizes one engine run.
type Result struct {
	Added        int       `json:"added"`
	Skipped      int       `json:"skipped"`
	Acknowledged int       `json:"acknowledged"`
	Errors       int       `json:"errors"`
	Pages        int       `json:"pages"`
	Checkpoint   time.Time `json:"checkpoint"`
	// Touched lists the vault paths written during the run.
	Touched []string `json:"touched,omitempty"`
}

// Engine runs capture sync passes.
type Engine struct {
	src      Source
	notes    Notes
	points   Checkpoints
	reporter Reporter
	logger   *slog.Logger

	mu  sync.RWMutex
	cfg Config
}

// New creates an Engine. A nil reporter discards progress messages.
func New(src Source, notes Notes, points Checkpoints, reporter Reporter, logger *slog.Logger, cfg Config) *Engine {
	if reporter == nil {
		reporter = Discard
	}
	return &Engine{
		src:      src,
		notes:    notes,
		points:   points,
		reporter: reporter,
		logger:   logger,
		cfg:      cfg,
	}
}

// Refresh replaces the configuration used by subsequent runs.
func (e *Engine) Refresh(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
}

func (e *Engine) config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cfg := e.cfg
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return cfg
}

// Run fetches pages of unsynced captures until the server has no more,
// writing each into the vault and acknowledging it. Errors loading or
// fetching abort the run; per-group and per-capture failures are counted in
// the result.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	cfg := e.config()
	var res Result

	since, err := e.points.Checkpoint(ctx)
	if err != nil {
		return res, fmt.Errorf("capturesync: load checkpoint: %w", err)
	}
	res.Checkpoint = since
	touched := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page, err := e.src.FetchCapturesSince(ctx, since, cfg.PageSize)
		if err != nil {
			return res, fmt.Errorf("capturesync: fetch page %d: %w", res.Pages+1, err)
		}
		if len(page.Captures) == 0 {
			break
		}
		res.Pages++
		e.reporter.Report(fmt.Sprintf("Syncing %d captures (page %d)", len(page.Captures), res.Pages))

		e.processPage(ctx, cfg, page.Captures, &res, touched)

		acked, latest := e.acknowledge(ctx, page.Captures, &res)
		if acked > 0 {
			since, err = e.points.Advance(ctx, latest)
			if err != nil {
				return res, fmt.Errorf("capturesync: save checkpoint: %w", err)
			}
			res.Checkpoint = since
		}

		if !page.HasMore {
			break
		}
		if acked == 0 {
			// The server would hand back the same page.
			e.logger.Warn("capturesync: no captures acknowledged, stopping pagination",
				slog.Int("page", res.Pages))
			break
		}
	}

	for p := range touched {
		res.Touched = append(res.Touched, p)
	}
	sort.Strings(res.Touched)
	e.reporter.Report(fmt.Sprintf("Synced %d captures", res.Added))
	return res, nil
}

// processPage writes one page into the vault, one date group at a time.
func (e *Engine) processPage(ctx context.Context, cfg Config, captures []models.Capture, res *Result, touched map[string]struct{}) {
	for _, g := range groupByDate(captures, cfg.Format.TZ) {
		added, skipped, paths, err := e.processGroup(ctx, cfg, g)
		res.Added += added
		res.Skipped += skipped
		for _, p := range paths {
			touched[p] = struct{}{}
		}
		if err != nil {
			res.Errors += len(g.captures)
			ids := make([]int64, len(g.captures))
			for i, c := range g.captures {
				ids[i] = c.ID
			}
			e.logger.Error("capturesync: date group failed",
				slog.String("date", g.date),
				slog.Any("ids", ids),
				slog.String("error", err.Error()))
		}
	}
}

func (e *Engine) processGroup(ctx context.Context, cfg Config, g dateGroup) (added, skipped int, paths []string, err error) {
	doc, err := e.notes.Daily(ctx, g.day)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("daily note: %w", err)
	}
	if doc.Created {
		paths = append(paths, doc.Path)
	}

	for _, c := range g.captures {
		var fragment string
		if !c.IsMeeting() {
			fragment = format.Capture(c, cfg.Format)
		} else {
			meeting, err := e.notes.Meeting(ctx, c)
			if err != nil {
				return added, skipped, paths, fmt.Errorf("meeting note for capture %d: %w", c.ID, err)
			}
			if meeting.Created {
				paths = append(paths, meeting.Path)
			}
			fragment = format.MeetingLink(c, meeting.Path, notestore.MeetingTitle(c), cfg.Format)
		}

		next, changed := section.AppendUnder(doc.Content, cfg.Header, fragment)
		if !changed {
			skipped++
			e.logger.Debug("capturesync: already present", slog.Int64("id", c.ID), slog.String("path", doc.Path))
			continue
		}
		doc.Content = next
		if err := e.notes.Save(ctx, doc); err != nil {
			return added, skipped, paths, fmt.Errorf("capture %d: %w", c.ID, err)
		}
		added++
		paths = append(paths, doc.Path)
		e.logger.Debug("capturesync: added", slog.Int64("id", c.ID), slog.String("path", doc.Path))
	}
	return added, skipped, paths, nil
}

// acknowledge marks every capture in the page as synced and returns how
// many succeeded along with the latest acknowledged creation time.
func (e *Engine) acknowledge(ctx context.Context, captures []models.Capture, res *Result) (int, time.Time) {
	var (
		acked  int
		latest time.Time
	)
	for _, c := range captures {
		if err := e.src.AcknowledgeCapture(ctx, c.ID); err != nil {
			res.Errors++
			e.logger.Warn("capturesync: acknowledge failed",
				slog.Int64("id", c.ID),
				slog.String("error", err.Error()))
			continue
		}
		acked++
		res.Acknowledged++
		if c.CreatedAt.After(latest) {
			latest = c.CreatedAt
		}
	}
	return acked, latest
}

type dateGroup struct {
	date     string
	day      time.Time
	captures []models.Capture
}

// groupByDate splits captures by local calendar date, keeping the original
// order within a group. Groups are returned oldest first.
func groupByDate(captures []models.Capture, tz *time.Location) []dateGroup {
	if tz == nil {
		tz = time.Local
	}
	index := make(map[string]int)
	var groups []dateGroup
	for _, c := range captures {
		local := c.CreatedAt.In(tz)
		key := local.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, dateGroup{date: key, day: local})
		}
		groups[i].captures = append(groups[i].captures, c)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].date < groups[b].date })
	return groups
}
