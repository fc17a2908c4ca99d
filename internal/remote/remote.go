// Package remote talks to the capture/todo server.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/echovault/internal/models"
)

// Service is the remote collaborator consumed by the sync engines.
type Service interface {
	FetchCapturesSince(ctx context.Context, since time.Time, limit int) (models.CapturePage, error)
	AcknowledgeCapture(ctx context.Context, id int64) error
	PendingCount(ctx context.Context) (models.Pending, error)
	FetchTodos(ctx context.Context, includeArchived bool) ([]models.Todo, error)
	CreateTodo(ctx context.Context, text string) (models.Todo, error)
	UpdateTodo(ctx context.Context, id int64, patch models.TodoPatch) (models.Todo, error)
	AudioLink(id int64) string
}

// Error is a failed remote call.
type Error struct {
	Method string
	Path   string
	Status int // zero when no response was received
	Body   string
	Err    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("remote: %s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("remote: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}
