package models

import "testing"

func TestPhase_Order(t *testing.T) {
	if PhaseInfiltrate.Index() != 0 || PhaseDebrief.Index() != 3 {
		t.Errorf("unexpected phase indexes: infiltrate=%d debrief=%d", PhaseInfiltrate.Index(), PhaseDebrief.Index())
	}
	if Phase("lobby").Index() != -1 {
		t.Error("expected unknown phase index -1")
	}
	if !PhaseDebrief.IsTerminal() {
		t.Error("expected debrief to be terminal")
	}
	if PhaseEscape.IsTerminal() {
		t.Error("expected escape not to be terminal")
	}
}

func TestSensorSignal_Validate(t *testing.T) {
	valid := SensorSignal{
		Timestamp: 1,
		Scores:    SignalScores{Stress: 0.5, Focus: 1, Confusion: 0, Confidence: 0.2, Neutral: 0.1},
		Dominant:  "focus",
	}

	tests := []struct {
		name      string
		mutate    func(s *SensorSignal)
		wantError bool
	}{
		{name: "valid", mutate: func(s *SensorSignal) {}},
		{name: "stress above one", mutate: func(s *SensorSignal) { s.Scores.Stress = 1.2 }, wantError: true},
		{name: "negative neutral", mutate: func(s *SensorSignal) { s.Scores.Neutral = -0.1 }, wantError: true},
		{name: "missing dominant", mutate: func(s *SensorSignal) { s.Dominant = "" }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestReasoningResponse_Validate(t *testing.T) {
	ok := ReasoningResponse{
		Speech: Speech{Text: "go left", VoiceStyle: VoiceNeutral},
		UI:     DefaultUI(),
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	empty := ok
	empty.Speech.Text = ""
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty text")
	}

	badVoice := ok
	badVoice.Speech.VoiceStyle = "whisper"
	if err := badVoice.Validate(); err == nil {
		t.Error("expected error for unknown voice style")
	}

	badTier := ok
	badTier.UI.Complexity = "extreme"
	if err := badTier.Validate(); err == nil {
		t.Error("expected error for unknown complexity")
	}
}
