package game

import (
	"testing"

	"github.com/molkiya/spectra/internal/models"
)

func TestNewSession(t *testing.T) {
	s := NewSession(300)

	if s.ID == "" {
		t.Error("expected session ID to be set")
	}
	if s.Phase != models.PhaseInfiltrate {
		t.Errorf("expected phase %q, got %q", models.PhaseInfiltrate, s.Phase)
	}
	if s.TimeRemaining != 300 {
		t.Errorf("expected time remaining 300, got %d", s.TimeRemaining)
	}
	if !s.Active {
		t.Error("expected session to be active")
	}
	if s.Score != 0 || s.DecisionsMade != 0 {
		t.Errorf("expected zero score and decisions, got %d/%d", s.Score, s.DecisionsMade)
	}

	other := NewSession(300)
	if other.ID == s.ID {
		t.Error("expected unique session IDs")
	}
}

func TestNextPhase(t *testing.T) {
	tests := []struct {
		in   models.Phase
		want models.Phase
	}{
		{models.PhaseInfiltrate, models.PhaseVault},
		{models.PhaseVault, models.PhaseEscape},
		{models.PhaseEscape, models.PhaseDebrief},
		{models.PhaseDebrief, models.PhaseDebrief},
		{models.Phase("unknown"), models.PhaseDebrief},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := NextPhase(tt.in); got != tt.want {
				t.Errorf("NextPhase(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAdvancePhase(t *testing.T) {
	s := NewSession(300)
	AppendHistory(s, models.RolePlayer, "node A")

	if !AdvancePhase(s) {
		t.Fatal("expected phase change")
	}
	if s.Phase != models.PhaseVault {
		t.Errorf("expected vault, got %q", s.Phase)
	}
	if len(s.History) != 0 {
		t.Errorf("expected history cleared, got %d entries", len(s.History))
	}
	if !s.Active {
		t.Error("expected session to remain active")
	}

	AdvancePhase(s)
	AdvancePhase(s)
	if s.Phase != models.PhaseDebrief {
		t.Fatalf("expected debrief, got %q", s.Phase)
	}
	if s.Active {
		t.Error("expected session inactive at terminal phase")
	}

	AppendHistory(s, models.RoleOracle, "done")
	if AdvancePhase(s) {
		t.Error("expected no phase change at terminal phase")
	}
	if len(s.History) != 1 {
		t.Error("expected terminal no-op to leave history untouched")
	}
}

func TestApplyUpdate(t *testing.T) {
	tests := []struct {
		name        string
		start       models.Phase
		delta       int
		advance     bool
		wantChanged bool
		wantPhase   models.Phase
	}{
		{name: "score only", start: models.PhaseInfiltrate, delta: 10, wantPhase: models.PhaseInfiltrate},
		{name: "negative delta", start: models.PhaseVault, delta: -5, wantPhase: models.PhaseVault},
		{name: "advance", start: models.PhaseInfiltrate, delta: 5, advance: true, wantChanged: true, wantPhase: models.PhaseVault},
		{name: "advance into terminal", start: models.PhaseEscape, delta: 5, advance: true, wantChanged: true, wantPhase: models.PhaseDebrief},
		{name: "advance at terminal is no change", start: models.PhaseDebrief, delta: 5, advance: true, wantPhase: models.PhaseDebrief},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(300)
			s.Phase = tt.start
			s.Score = 20

			changed := ApplyUpdate(s, tt.delta, tt.advance)

			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if s.Phase != tt.wantPhase {
				t.Errorf("phase = %q, want %q", s.Phase, tt.wantPhase)
			}
			if s.Score != 20+tt.delta {
				t.Errorf("score = %d, want %d", s.Score, 20+tt.delta)
			}
			if s.DecisionsMade != 1 {
				t.Errorf("decisions = %d, want 1", s.DecisionsMade)
			}
		})
	}
}

func TestForceTerminal(t *testing.T) {
	s := NewSession(300)
	ForceTerminal(s)

	if s.Phase != models.PhaseDebrief || s.Active {
		t.Errorf("expected inactive debrief, got %q active=%v", s.Phase, s.Active)
	}
}

func TestSnapshot(t *testing.T) {
	s := NewSession(120)
	ApplyUpdate(s, 10, false)

	snap := Snapshot(s)
	if snap.Phase != s.Phase || snap.TimeRemaining != 120 || snap.Score != 10 || snap.DecisionsMade != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}
