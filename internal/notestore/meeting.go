package notestore

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/starford/echovault/internal/marker"
	"github.com/starford/echovault/internal/models"
)

// DefaultMeetingTitle names meeting notes whose capture has no title.
const DefaultMeetingTitle = "Meeting"

const maxTitleRunes = 80

// MeetingTitle returns the display title used for c.
func MeetingTitle(c models.Capture) string {
	if t := sanitize(c.MeetingTitle); t != "" {
		return t
	}
	return DefaultMeetingTitle
}

// Meeting returns the meeting note for c. A note that already carries the
// capture's marker is returned untouched. Otherwise the note is written from
// the meeting template; if a different note already occupies the path, the
// capture id is appended to the filename instead of overwriting it. When both
// names hold other notes an error wrapping os.ErrExist is returned.
func (s *Store) Meeting(ctx context.Context, c models.Capture) (*Document, error) {
	cfg := s.Config()
	title := MeetingTitle(c)
	local := c.CreatedAt.In(cfg.location())
	stem := local.Format("2006-01-02 1504") + " " + title

	candidates := []string{
		path.Join(cfg.MeetingFolder, stem+".md"),
		path.Join(cfg.MeetingFolder, fmt.Sprintf("%s (%d).md", stem, c.ID)),
	}

	target := ""
	for _, p := range candidates {
		ok, err := s.fs.Exists(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			if target == "" {
				target = p
			}
			continue
		}
		doc, err := s.Load(ctx, p)
		if err != nil {
			return nil, err
		}
		if marker.HasCapture(doc.Content, c.ID) {
			return doc, nil
		}
	}
	if target == "" {
		return nil, fmt.Errorf("notestore: meeting note for capture %d: %q: %w", c.ID, stem, os.ErrExist)
	}

	if err := s.fs.MkdirAll(cfg.MeetingFolder); err != nil {
		return nil, fmt.Errorf("notestore: meeting folder: %w", err)
	}
	content, err := meetingBody(cfg, c, title)
	if err != nil {
		return nil, err
	}
	if err := s.fs.Write(target, []byte(content)); err != nil {
		return nil, fmt.Errorf("notestore: create meeting note: %w", err)
	}
	return &Document{Path: target, Content: content, Created: true, original: content}, nil
}

// sanitize makes s safe for use as a file name across platforms.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>|#^[]`, r) || r < 0x20 {
			return ' '
		}
		return r
	}, s)
	s = strings.Trim(strings.Join(strings.Fields(s), " "), ". ")
	if utf8.RuneCountInString(s) > maxTitleRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxTitleRunes]))
	}
	return s
}
