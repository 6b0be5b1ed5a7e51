// Package game holds the mission state machine. Functions here are pure
// mutations of a models.Session; persistence is the caller's job.
package game

import (
	"github.com/google/uuid"

	"github.com/molkiya/spectra/internal/models"
)

// NewSession returns a fresh active session in the first phase.
//
// Parameters:
//   - duration: countdown length in seconds
func NewSession(duration int) *models.Session {
	return &models.Session{
		ID:            uuid.New().String(),
		Phase:         models.PhaseOrder[0],
		TimeRemaining: duration,
		History:       []models.ConversationEntry{},
		Active:        true,
		SignalBuffer:  []models.SensorSignal{},
	}
}

// NextPhase returns the phase after p. The terminal phase and unknown
// phases map to the terminal phase.
func NextPhase(p models.Phase) models.Phase {
	i := p.Index()
	if i < 0 || i+1 >= len(models.PhaseOrder) {
		return models.PhaseOrder[len(models.PhaseOrder)-1]
	}
	return models.PhaseOrder[i+1]
}

// AdvancePhase moves the session one phase forward and clears the
// conversation history. Reaching the terminal phase deactivates the session.
// A session already in the terminal phase is left untouched.
//
// Returns:
//   - true if the phase changed
func AdvancePhase(s *models.Session) bool {
	if s.Phase.IsTerminal() {
		return false
	}
	s.Phase = NextPhase(s.Phase)
	s.History = []models.ConversationEntry{}
	if s.Phase.IsTerminal() {
		s.Active = false
	}
	return true
}

// ApplyUpdate adds scoreDelta, counts one decision and optionally advances.
//
// Returns:
//   - true only if the phase actually changed
func ApplyUpdate(s *models.Session, scoreDelta int, advance bool) bool {
	s.Score += scoreDelta
	s.DecisionsMade++
	if !advance {
		return false
	}
	return AdvancePhase(s)
}

// ForceTerminal jumps straight to the terminal phase and deactivates the
// session. Used when the countdown runs out.
func ForceTerminal(s *models.Session) {
	s.Phase = models.PhaseOrder[len(models.PhaseOrder)-1]
	s.Active = false
}

// AppendHistory records one role-tagged utterance.
func AppendHistory(s *models.Session, role models.Role, text string) {
	s.History = append(s.History, models.ConversationEntry{Role: role, Text: text})
}

// Snapshot returns the scored part of the session sent to the reasoning service.
func Snapshot(s *models.Session) models.GameStateSnapshot {
	return models.GameStateSnapshot{
		Phase:         s.Phase,
		TimeRemaining: s.TimeRemaining,
		DecisionsMade: s.DecisionsMade,
		Score:         s.Score,
	}
}
