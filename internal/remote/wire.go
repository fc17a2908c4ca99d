package remote

import (
	"fmt"
	"time"

	"github.com/starford/echovault/internal/models"
)

// Layouts accepted for server timestamps. Zone-less values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("remote: unrecognized timestamp %q", s)
}

type wireCapture struct {
	ID           int64    `json:"id"`
	Text         string   `json:"text"`
	Type         string   `json:"type"`
	CreatedAt    string   `json:"created_at"`
	Location     string   `json:"location"`
	Tags         []string `json:"tags"`
	HasAudio     bool     `json:"has_audio"`
	MeetingTitle string   `json:"meeting_title"`
}

func (w wireCapture) model() (models.Capture, error) {
	ts, err := parseTimestamp(w.CreatedAt)
	if err != nil {
		return models.Capture{}, fmt.Errorf("capture %d: %w", w.ID, err)
	}
	return models.Capture{
		ID:           w.ID,
		Text:         w.Text,
		Type:         models.CaptureType(w.Type),
		CreatedAt:    ts,
		Location:     w.Location,
		Tags:         w.Tags,
		HasAudio:     w.HasAudio,
		MeetingTitle: w.MeetingTitle,
	}, nil
}

type wireTodo struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Archived  bool   `json:"archived"`
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at"`
}

func (w wireTodo) model() (models.Todo, error) {
	t := models.Todo{
		ID:        w.ID,
		Text:      w.Text,
		Completed: w.Completed,
		Archived:  w.Archived,
		Position:  w.Position,
	}
	if w.CreatedAt != "" {
		ts, err := parseTimestamp(w.CreatedAt)
		if err != nil {
			return models.Todo{}, fmt.Errorf("todo %d: %w", w.ID, err)
		}
		t.CreatedAt = ts
	}
	return t, nil
}
