package storage

import (
	"context"
	"errors"

	"github.com/molkiya/spectra/internal/models"
	"github.com/molkiya/spectra/pkg/logger"
)

// FallbackStore writes to a remote backend first and falls back to an
// in-process backend when the remote is absent or failing. Backend errors are
// logged and never returned.
type FallbackStore struct {
	remote Backend // nil when the remote was unreachable at startup
	local  Backend
	logger *logger.Logger
}

var _ SessionStore = (*FallbackStore)(nil)

// NewFallbackStore creates a store over remote (may be nil) and local.
func NewFallbackStore(remote, local Backend, log *logger.Logger) *FallbackStore {
	if local == nil {
		local = NewMemoryStorage()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &FallbackStore{
		remote: remote,
		local:  local,
		logger: log.Named("store"),
	}
}

// Remote reports whether a remote backend is configured
func (s *FallbackStore) Remote() bool {
	return s.remote != nil
}

func (s *FallbackStore) warn(op, id string, err error) {
	s.logger.Warn("remote store failed, using in-process fallback",
		logger.F("op", op),
		logger.F("session_id", id),
		logger.Err(err),
	)
}

// Save persists the session
func (s *FallbackStore) Save(ctx context.Context, session *models.Session) {
	if s.remote != nil {
		err := s.remote.SaveSession(ctx, session)
		if err == nil {
			return
		}
		s.warn("save", session.ID, err)
	}
	if err := s.local.SaveSession(ctx, session); err != nil {
		s.logger.Error("failed to save session", logger.F("session_id", session.ID), logger.Err(err))
	}
}

// Load returns the session if either backend has it
func (s *FallbackStore) Load(ctx context.Context, id string) (*models.Session, bool) {
	if s.remote != nil {
		session, err := s.remote.LoadSession(ctx, id)
		if err == nil {
			return session, true
		}
		if !errors.Is(err, ErrSessionNotFound) {
			s.warn("load", id, err)
		}
	}
	session, err := s.local.LoadSession(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.logger.Error("failed to load session", logger.F("session_id", id), logger.Err(err))
		}
		return nil, false
	}
	return session, true
}

// Delete removes the session from both backends
func (s *FallbackStore) Delete(ctx context.Context, id string) {
	if s.remote != nil {
		if err := s.remote.DeleteSession(ctx, id); err != nil {
			s.warn("delete", id, err)
		}
	}
	if err := s.local.DeleteSession(ctx, id); err != nil {
		s.logger.Error("failed to delete session", logger.F("session_id", id), logger.Err(err))
	}
}

// AppendTimelineEntry records one timeline point
func (s *FallbackStore) AppendTimelineEntry(ctx context.Context, id string, entry models.TimelineEntry) {
	if s.remote != nil {
		err := s.remote.AppendTimeline(ctx, id, entry)
		if err == nil {
			return
		}
		s.warn("append_timeline", id, err)
	}
	if err := s.local.AppendTimeline(ctx, id, entry); err != nil {
		s.logger.Error("failed to append timeline entry", logger.F("session_id", id), logger.Err(err))
	}
}

// ReadTimeline returns the ordered timeline, empty when unknown
func (s *FallbackStore) ReadTimeline(ctx context.Context, id string) []models.TimelineEntry {
	if s.remote != nil {
		entries, err := s.remote.ReadTimeline(ctx, id)
		if err == nil && len(entries) > 0 {
			return entries
		}
		if err != nil {
			s.warn("read_timeline", id, err)
		}
	}
	entries, err := s.local.ReadTimeline(ctx, id)
	if err != nil {
		s.logger.Error("failed to read timeline", logger.F("session_id", id), logger.Err(err))
		return []models.TimelineEntry{}
	}
	if entries == nil {
		return []models.TimelineEntry{}
	}
	return entries
}

// AmendLatestTimelineAdaptation relabels the newest timeline entry
func (s *FallbackStore) AmendLatestTimelineAdaptation(ctx context.Context, id string, label models.AdaptationLabel) {
	if s.remote != nil {
		err := s.remote.AmendLatestAdaptation(ctx, id, label)
		if err == nil {
			return
		}
		s.warn("amend_timeline", id, err)
	}
	if err := s.local.AmendLatestAdaptation(ctx, id, label); err != nil {
		s.logger.Error("failed to amend timeline entry", logger.F("session_id", id), logger.Err(err))
	}
}

// SavePreviousOutput stores the last broadcast UI/voice pair
func (s *FallbackStore) SavePreviousOutput(ctx context.Context, id string, prev models.PreviousOutput) {
	if s.remote != nil {
		err := s.remote.SavePreviousOutput(ctx, id, prev)
		if err == nil {
			return
		}
		s.warn("save_previous_output", id, err)
	}
	if err := s.local.SavePreviousOutput(ctx, id, prev); err != nil {
		s.logger.Error("failed to save previous output", logger.F("session_id", id), logger.Err(err))
	}
}

// LoadPreviousOutput returns the last broadcast UI/voice pair if any
func (s *FallbackStore) LoadPreviousOutput(ctx context.Context, id string) (*models.PreviousOutput, bool) {
	if s.remote != nil {
		prev, err := s.remote.LoadPreviousOutput(ctx, id)
		if err == nil {
			return prev, true
		}
		if !errors.Is(err, ErrPreviousOutputNotFound) {
			s.warn("load_previous_output", id, err)
		}
	}
	prev, err := s.local.LoadPreviousOutput(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrPreviousOutputNotFound) {
			s.logger.Error("failed to load previous output", logger.F("session_id", id), logger.Err(err))
		}
		return nil, false
	}
	return prev, true
}
