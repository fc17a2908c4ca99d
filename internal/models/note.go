package models

import "time"

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncRun is one recorded orchestrator run.
type SyncRun struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Captures     int       `json:"captures"`
	TodosPushed  int       `json:"todos_pushed"`
	TodosCreated int       `json:"todos_created"`
	TodosPulled  int       `json:"todos_pulled"`
	Errors       int       `json:"errors"`
}
