package internal

import (
	"github.com/starford/echovault/internal/capturesync"
	"github.com/starford/echovault/internal/format"
	"github.com/starford/echovault/internal/notestore"
	"github.com/starford/echovault/internal/orchestrator"
	"github.com/starford/echovault/internal/todosync"
)

// Settings derives the per-component configuration. audioLink builds
// playback URLs for captures with audio.
func (c *Config) Settings(audioLink func(id int64) string) (orchestrator.Settings, error) {
	tz, err := c.Vault.Location()
	if err != nil {
		return orchestrator.Settings{}, err
	}

	notes := notestore.Config{
		DailyFolder:      c.Vault.DailyFolder,
		MeetingFolder:    c.Vault.MeetingFolder,
		CaptureHeader:    c.Vault.CaptureHeader,
		TodoHeader:       c.Vault.TodoHeader,
		AutomationHeader: c.Vault.AutomationHeader,
		TodoEnabled:      c.Todo.Enabled,
		Audio:            c.Sync.IncludeAudio,
		AudioLink:        audioLink,
		TZ:               tz,
	}

	captures := capturesync.Config{
		PageSize: c.Sync.PageSize,
		Header:   c.Vault.CaptureHeader,
		Format: format.Options{
			Audio:     c.Sync.IncludeAudio,
			Location:  c.Sync.IncludeLocation,
			Tags:      c.Sync.IncludeTags,
			AudioLink: audioLink,
			TZ:        tz,
		},
	}

	todos := todosync.Config{
		Folder:     c.Vault.DailyFolder,
		ScanWindow: c.Todo.ScanWindow,
		Emblem:     c.Todo.Emblem,
		Header:     c.Vault.TodoHeader,
		Anchor:     c.Vault.AutomationHeader,
	}

	return orchestrator.Settings{
		Notes:       notes,
		Capture:     captures,
		Todo:        todos,
		TodoEnabled: c.Todo.Enabled,
	}, nil
}
