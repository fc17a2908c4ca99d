// Package format renders captures as markdown fragments for daily notes.
package format

import (
	"strings"
	"time"

	"github.com/starford/echovault/internal/marker"
	"github.com/starford/echovault/internal/models"
)

// Options toggles the optional parts of a rendered capture.
type Options struct {
	Audio    bool
	Location bool
	Tags     bool
	// AudioLink builds the playback URL for a capture. Audio lines are
	// omitted when it is nil.
	AudioLink func(id int64) string
	// Location used for the HH:MM prefix. Nil means time.Local.
	TZ *time.Location
}

func (o Options) clock(t time.Time) string {
	loc := o.TZ
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("15:04")
}

// Capture renders c as a fragment ending with its marker line. Meeting
// captures are rendered with MeetingLink instead. Line breaks in the text are
// folded so a transcription cannot open a new header or list item.
func Capture(c models.Capture, opts Options) string {
	var lines []string
	text := fold(c.Text)

	if c.Type == models.CaptureTask {
		lines = append(lines, "- [ ] "+text)
	} else {
		head := "- **" + opts.clock(c.CreatedAt) + "** " + text
		if opts.Tags {
			if t := Hashtags(c.Tags); t != "" {
				head += " " + t
			}
		}
		lines = append(lines, head)
	}
	return strings.Join(append(lines, details(c, opts)...), "\n") + "\n"
}

// MeetingLink renders the daily-note cross reference to a meeting note.
// notePath is vault-relative and may include the .md suffix.
func MeetingLink(c models.Capture, notePath, title string, opts Options) string {
	target := strings.TrimSuffix(notePath, ".md")
	line := "- **" + opts.clock(c.CreatedAt) + "** 📅 [[" + target + "|" + title + "]]"
	return line + "\n  " + marker.CaptureMarker(c.ID) + "\n"
}

// details returns the indented location, audio and marker lines.
func details(c models.Capture, opts Options) []string {
	var out []string
	if loc := fold(c.Location); opts.Location && loc != "" {
		out = append(out, "  📍 "+loc)
	}
	if opts.Audio && c.HasAudio && opts.AudioLink != nil {
		out = append(out, "  🔊 [Audio]("+opts.AudioLink(c.ID)+")")
	}
	return append(out, "  "+marker.CaptureMarker(c.ID))
}

func fold(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Hashtags renders tags as space separated #hashtags. Spaces inside a tag
// become dashes and leading '#' characters are dropped.
func Hashtags(tags []string) string {
	var out []string
	for _, t := range tags {
		t = strings.TrimLeft(strings.TrimSpace(t), "#")
		if t == "" {
			continue
		}
		out = append(out, "#"+strings.Join(strings.Fields(t), "-"))
	}
	return strings.Join(out, " ")
}
