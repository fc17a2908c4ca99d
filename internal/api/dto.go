package api

import (
	"github.com/starford/echovault/internal/orchestrator"
	"github.com/starford/echovault/internal/syncservice"
)

// SyncResponse is the result of a sync run (aliased from the orchestrator).
type SyncResponse = orchestrator.Result

// StatusResponse is the current sync state (aliased from the service layer).
type StatusResponse = syncservice.Status

// NoteDetail is a parsed daily note (aliased from the service layer).
type NoteDetail = syncservice.NoteDetail

// PendingResponse is the server-side backlog of unsynced captures.
type PendingResponse struct {
	Count  int     `json:"count" example:"3"`
	Oldest *string `json:"oldest,omitempty" example:"2025-01-01T08:00:00Z"`
}
