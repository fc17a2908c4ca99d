// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/echovault/internal/checkpoint"
	"github.com/starford/echovault/internal/notestore"
	"github.com/starford/echovault/internal/storage"
)

// Default section headers used across tests.
const (
	CaptureHeader    = "## 🎙️ Captures"
	TodoHeader       = "## ✅ Todos"
	AutomationHeader = "## 🤖 Automation"
)

// TestCheckpoints creates a temporary SQLite checkpoint database that is
// automatically cleaned up.
func TestCheckpoints(t *testing.T) *checkpoint.DB {
	t.Helper()
	db, err := checkpoint.Open(filepath.Join(t.TempDir(), "echovault-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	fs, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, fs
}

// NotesConfig returns a note store configuration using the default headers
// and UTC dates.
func NotesConfig() notestore.Config {
	return notestore.Config{
		DailyFolder:      "Daily",
		MeetingFolder:    "Meetings",
		CaptureHeader:    CaptureHeader,
		TodoHeader:       TodoHeader,
		AutomationHeader: AutomationHeader,
		TodoEnabled:      true,
		TZ:               time.UTC,
	}
}

// TestNotes creates a note store over a fresh temporary vault.
func TestNotes(t *testing.T) (*notestore.Store, *storage.FS) {
	t.Helper()
	_, fs := TestVault(t)
	return notestore.New(fs, NotesConfig()), fs
}
