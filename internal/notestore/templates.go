package notestore

import (
	"strings"
	"time"

	"github.com/starford/echovault/internal/marker"
	"github.com/starford/echovault/internal/models"
	"github.com/starford/echovault/internal/parser"
)

type dailyFrontmatter struct {
	Type   string `yaml:"type"`
	Status string `yaml:"status"`
	Date   string `yaml:"date"`
}

type meetingFrontmatter struct {
	Type      string   `yaml:"type"`
	Date      string   `yaml:"date"`
	Time      string   `yaml:"time"`
	CaptureID int64    `yaml:"capture_id"`
	Tags      []string `yaml:"tags,omitempty"`
}

func dailySkeleton(cfg Config, day time.Time) (string, error) {
	date := day.Format("2006-01-02")

	var b strings.Builder
	b.WriteString("# " + date + "\n\n")
	b.WriteString(cfg.CaptureHeader + "\n\n")
	if cfg.TodoEnabled && cfg.TodoHeader != "" {
		b.WriteString(cfg.TodoHeader + "\n\n")
	}
	b.WriteString(cfg.AutomationHeader + "\n")

	return parser.Render(dailyFrontmatter{Type: "daily", Status: "active", Date: date}, b.String())
}

func meetingBody(cfg Config, c models.Capture, title string) (string, error) {
	local := c.CreatedAt.In(cfg.location())

	var b strings.Builder
	b.WriteString("# " + title + "\n\n")
	b.WriteString("## Transcription\n\n")
	if text := strings.TrimSpace(c.Text); text != "" {
		b.WriteString(text + "\n\n")
	}
	if cfg.Audio && c.HasAudio && cfg.AudioLink != nil {
		b.WriteString("## Audio\n\n")
		b.WriteString("[▶️ Listen](" + cfg.AudioLink(c.ID) + ")\n\n")
	}
	b.WriteString(marker.CaptureMarker(c.ID) + "\n")

	fm := meetingFrontmatter{
		Type:      "meeting",
		Date:      local.Format("2006-01-02"),
		Time:      local.Format("15:04"),
		CaptureID: c.ID,
		Tags:      c.Tags,
	}
	return parser.Render(fm, b.String())
}
