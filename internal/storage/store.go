package storage

import (
	"context"
	"fmt"

	"github.com/molkiya/spectra/internal/models"
)

// Backend is one concrete persistence strategy (Redis or in-process).
// Backends report failures; SessionStore callers never see them.
type Backend interface {
	SaveSession(ctx context.Context, session *models.Session) error
	// LoadSession returns ErrSessionNotFound when the session is absent.
	LoadSession(ctx context.Context, id string) (*models.Session, error)
	// DeleteSession removes the session, its timeline and its previous output.
	DeleteSession(ctx context.Context, id string) error

	AppendTimeline(ctx context.Context, id string, entry models.TimelineEntry) error
	// ReadTimeline returns entries ordered by timestamp.
	ReadTimeline(ctx context.Context, id string) ([]models.TimelineEntry, error)
	// AmendLatestAdaptation rewrites the adaptation label of the highest-timestamp
	// entry. An empty timeline is not an error.
	AmendLatestAdaptation(ctx context.Context, id string, label models.AdaptationLabel) error

	SavePreviousOutput(ctx context.Context, id string, prev models.PreviousOutput) error
	// LoadPreviousOutput returns ErrPreviousOutputNotFound when nothing was stored.
	LoadPreviousOutput(ctx context.Context, id string) (*models.PreviousOutput, error)
}

// SessionStore is the capability the rest of the service depends on.
// It never fails: absent records come back as ok=false.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session)
	Load(ctx context.Context, id string) (*models.Session, bool)
	Delete(ctx context.Context, id string)

	AppendTimelineEntry(ctx context.Context, id string, entry models.TimelineEntry)
	ReadTimeline(ctx context.Context, id string) []models.TimelineEntry
	AmendLatestTimelineAdaptation(ctx context.Context, id string, label models.AdaptationLabel)

	SavePreviousOutput(ctx context.Context, id string, prev models.PreviousOutput)
	LoadPreviousOutput(ctx context.Context, id string) (*models.PreviousOutput, bool)
}

// Errors
var (
	ErrSessionNotFound        = &StorageError{Message: "session not found"}
	ErrPreviousOutputNotFound = &StorageError{Message: "previous output not found"}
)

// StorageError represents a storage error
type StorageError struct {
	Message string
}

func (e *StorageError) Error() string {
	return e.Message
}

func stateKey(id string) string {
	return fmt.Sprintf("session:%s:state", id)
}

func timelineKey(id string) string {
	return fmt.Sprintf("session:%s:timeline", id)
}

func previousOutputKey(id string) string {
	return fmt.Sprintf("session:%s:ui_prev", id)
}
