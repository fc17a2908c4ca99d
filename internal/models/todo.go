package models

import "time"

// Todo is a remote-authored task. Completed may change on either side.
type Todo struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Archived  bool      `json:"archived"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the todo belongs in the pulled todo section.
func (t Todo) Active() bool {
	return !t.Archived && !t.Completed
}

// TodoPatch is a partial update. Nil fields are left untouched.
type TodoPatch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// TaskLine is a checklist line in a vault document that takes part in todo sync.
type TaskLine struct {
	Path      string `json:"path"`
	Line      int    `json:"line"` // zero-based line index within the document
	Raw       string `json:"raw"`
	Text      string `json:"text"` // checkbox, emblem and markers stripped
	Completed bool   `json:"completed"`
	TodoID    int64  `json:"todo_id,omitempty"` // zero until the line is linked to a remote todo
}

// Linked reports whether the line already carries a remote todo id.
func (l TaskLine) Linked() bool {
	return l.TodoID != 0
}
