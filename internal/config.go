package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app" toml:"app"`
	Vault  VaultConfig       `yaml:"vault" toml:"vault"`
	Remote RemoteConfig      `yaml:"remote" toml:"remote"`
	Sync   SyncConfig        `yaml:"sync" toml:"sync"`
	Todo   TodoConfig        `yaml:"todo" toml:"todo"`
	SQLite SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.Todo.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	// LogFile, when set, receives logs through a rotating writer instead of
	// stdout.
	LogFile string     `yaml:"log_file" toml:"log_file"`
	HTTP    HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig describes where notes live inside the vault and which headers
// delimit the managed sections.
type VaultConfig struct {
	Path             string `yaml:"path" toml:"path"`
	DailyFolder      string `yaml:"daily_folder" toml:"daily_folder"`
	MeetingFolder    string `yaml:"meeting_folder" toml:"meeting_folder"`
	CaptureHeader    string `yaml:"capture_header" toml:"capture_header"`
	TodoHeader       string `yaml:"todo_header" toml:"todo_header"`
	AutomationHeader string `yaml:"automation_header" toml:"automation_header"`
	// Timezone is an IANA name used for calendar dates and clock times.
	// Empty means the system local zone.
	Timezone string `yaml:"timezone" toml:"timezone"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.DailyFolder, validation.Required),
		validation.Field(&c.MeetingFolder, validation.Required),
		validation.Field(&c.CaptureHeader, validation.Required),
		validation.Field(&c.TodoHeader, validation.Required),
		validation.Field(&c.AutomationHeader, validation.Required),
	); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("vault: timezone: %w", err)
	}
	return nil
}

// Location resolves Timezone.
func (c *VaultConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// RemoteConfig points at the capture server.
type RemoteConfig struct {
	BaseURL string `yaml:"base_url" toml:"base_url"`
	Token   string `yaml:"token" toml:"token"`
	// Timeout bounds each remote request. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

// SyncConfig controls capture sync scheduling and rendering.
type SyncConfig struct {
	// Interval between scheduled runs. Zero disables the scheduler.
	Interval        time.Duration `yaml:"interval" toml:"interval"`
	PageSize        int           `yaml:"page_size" toml:"page_size"`
	OnStart         bool          `yaml:"on_start" toml:"on_start"`
	IncludeAudio    bool          `yaml:"include_audio" toml:"include_audio"`
	IncludeLocation bool          `yaml:"include_location" toml:"include_location"`
	IncludeTags     bool          `yaml:"include_tags" toml:"include_tags"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Min(time.Duration(0))),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(1000)),
	)
}

// TodoConfig controls todo reconciliation.
type TodoConfig struct {
	Enabled    bool   `yaml:"enabled" toml:"enabled"`
	ScanWindow int    `yaml:"scan_window" toml:"scan_window"`
	Emblem     string `yaml:"emblem" toml:"emblem"`
}

// Validate validates the todo configuration.
func (c *TodoConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ScanWindow, validation.Required, validation.Min(1)),
		validation.Field(&c.Emblem, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig guards the local control API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:             "./vault",
			DailyFolder:      "Daily",
			MeetingFolder:    "Meetings",
			CaptureHeader:    "## 🎙️ Captures",
			TodoHeader:       "## ✅ Todos",
			AutomationHeader: "## 🤖 Automation",
		},
		Sync: SyncConfig{
			Interval:        5 * time.Minute,
			PageSize:        100,
			OnStart:         true,
			IncludeAudio:    true,
			IncludeLocation: true,
			IncludeTags:     true,
		},
		Todo: TodoConfig{
			Enabled:    true,
			ScanWindow: 30,
			Emblem:     "🎤",
		},
		SQLite: SQLiteConfig{
			Path: "./echovault.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
