// Package models defines the domain types for echovault.
package models

import "time"

// CaptureType classifies a voice capture.
type CaptureType string

// Capture types.
const (
	CaptureBrain   CaptureType = "brain"
	CaptureTask    CaptureType = "task"
	CaptureIdea    CaptureType = "idea"
	CaptureMeeting CaptureType = "meeting"
)

// Capture is a remote-authored voice capture record. Captures are immutable
// once fetched; the synced flag lives on the server only.
type Capture struct {
	ID           int64       `json:"id"`
	Text         string      `json:"text"`
	Type         CaptureType `json:"type"`
	CreatedAt    time.Time   `json:"created_at"`
	Location     string      `json:"location,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
	HasAudio     bool        `json:"has_audio"`
	MeetingTitle string      `json:"meeting_title,omitempty"`
}

// IsMeeting reports whether the capture is routed to a dedicated meeting note.
func (c Capture) IsMeeting() bool {
	return c.Type == CaptureMeeting
}

// CapturePage is one page of unsynced captures.
type CapturePage struct {
	Captures []Capture `json:"captures"`
	HasMore  bool      `json:"has_more"`
}

// Pending is the server-side backlog of unsynced captures.
type Pending struct {
	Count  int        `json:"count"`
	Oldest *time.Time `json:"oldest,omitempty"`
}
