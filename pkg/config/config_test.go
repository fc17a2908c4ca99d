package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name     string        `yaml:"name" toml:"name"`
	Interval time.Duration `yaml:"interval" toml:"interval"`
	Nested   struct {
		Token string `yaml:"token" toml:"token"`
	} `yaml:"nested" toml:"nested"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return os.ErrInvalid
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_YAMLWithEnv(t *testing.T) {
	t.Setenv("SAMPLE_TOKEN", "s3cret")
	p := writeFile(t, "c.yaml", "name: vault\ninterval: 90s\nnested:\n  token: ${SAMPLE_TOKEN}\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "vault" || s.Interval != 90*time.Second || s.Nested.Token != "s3cret" {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_TOML(t *testing.T) {
	t.Setenv("SAMPLE_TOKEN", "t0ken")
	p := writeFile(t, "c.toml", "name = \"vault\"\ninterval = \"2m\"\n\n[nested]\ntoken = \"${SAMPLE_TOKEN}\"\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "vault" || s.Interval != 2*time.Minute || s.Nested.Token != "t0ken" {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeFile(t, "c.yaml", "interval: 1s\n")
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	def := writeFile(t, "default.yaml", "name: fallback\n")
	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), def, &s); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if s.Name != "fallback" {
		t.Errorf("name = %q", s.Name)
	}

	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), "", &s); err == nil {
		t.Error("expected error without default file")
	}
}
