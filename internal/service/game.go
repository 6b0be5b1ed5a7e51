package service

import (
	"context"
	"fmt"

	"github.com/molkiya/spectra/internal/game"
	"github.com/molkiya/spectra/internal/models"
	"github.com/molkiya/spectra/pkg/logger"
)

// CreateSession creates a new mission session and persists it
func (o *Orchestrator) CreateSession(ctx context.Context) *models.Session {
	session := game.NewSession(o.opts.GameDuration)
	o.store.Save(ctx, session)

	o.logger.Info("Session created",
		logger.F("session_id", session.ID),
		logger.Int("time_remaining", session.TimeRemaining),
	)
	return session
}

// GetState retrieves a session by ID
func (o *Orchestrator) GetState(ctx context.Context, sessionID string) (*models.Session, error) {
	session, ok := o.store.Load(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// StartTimer begins the countdown for a session. Calling it again while the
// countdown runs is a no-op that still reports success. The opening greeting
// is scheduled only by the call that actually started the timer.
func (o *Orchestrator) StartTimer(ctx context.Context, sessionID string) (*models.Session, error) {
	session, ok := o.store.Load(ctx, sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if !session.Active {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotActive, sessionID)
	}

	if o.timers.Start(sessionID, o.OnTimerTick, o.OnTimerEnd) {
		o.after(o.opts.GreetingDelay, func(ctx context.Context) {
			o.greet(ctx, sessionID)
		})
	}
	return session, nil
}

// GetTimeline returns the ordered signal timeline of a session
func (o *Orchestrator) GetTimeline(ctx context.Context, sessionID string) []models.TimelineEntry {
	return o.store.ReadTimeline(ctx, sessionID)
}

// EndSession stops the countdown, removes every stored record and closes all
// consumers of the session. It waits for the countdown task to exit so a tick
// in flight cannot save the session back after the delete.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) {
	<-o.timers.Stop(sessionID)

	unlock := o.locks.lock(sessionID)
	o.store.Delete(ctx, sessionID)
	unlock()

	o.hub.CloseAll(sessionID)
	o.logger.Info("Session ended", logger.F("session_id", sessionID))
}
