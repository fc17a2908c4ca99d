// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/echovault/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns metadata for every .md file under dir. A missing dir
	// yields an empty list.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent folders.
	Write(path string, content []byte) error
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
	// MkdirAll creates dir and any missing parents. Existing folders are not
	// an error.
	MkdirAll(dir string) error
}
