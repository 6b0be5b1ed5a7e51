package trend

import (
	"math"
	"testing"

	"github.com/molkiya/spectra/internal/models"
)

func signal(ts int64, stress, focus float64) models.SensorSignal {
	return models.SensorSignal{
		Timestamp: ts,
		Scores:    models.SignalScores{Stress: stress, Focus: focus},
		Dominant:  "neutral",
	}
}

func buffer(stress, focus []float64) []models.SensorSignal {
	out := make([]models.SensorSignal, len(stress))
	for i := range stress {
		out[i] = signal(int64(i), stress[i], focus[i])
	}
	return out
}

func TestComputeTrend(t *testing.T) {
	flat := []float64{0.5, 0.5, 0.5, 0.5, 0.5}

	tests := []struct {
		name   string
		stress []float64
		focus  []float64
		want   models.Trend
	}{
		{name: "empty", want: models.TrendStable},
		{name: "four readings", stress: []float64{0, 0, 1, 1}, focus: []float64{0, 0, 1, 1}, want: models.TrendStable},
		{name: "rising stress", stress: []float64{0.1, 0.1, 0.1, 0.9, 0.9}, focus: flat, want: models.TrendRisingStress},
		{name: "falling stress", stress: []float64{0.9, 0.9, 0.9, 0.1, 0.1}, focus: flat, want: models.TrendFallingStress},
		{name: "rising focus", stress: flat, focus: []float64{0.1, 0.1, 0.1, 0.9, 0.9}, want: models.TrendRisingFocus},
		{name: "falling focus", stress: flat, focus: []float64{0.9, 0.9, 0.9, 0.1, 0.1}, want: models.TrendFallingFocus},
		{name: "stress wins over focus", stress: []float64{0.1, 0.1, 0.1, 0.9, 0.9}, focus: []float64{0.9, 0.9, 0.9, 0.1, 0.1}, want: models.TrendRisingStress},
		{name: "flat", stress: flat, focus: flat, want: models.TrendStable},
		{name: "delta under threshold", stress: []float64{0.5, 0.5, 0.5, 0.625, 0.625}, focus: flat, want: models.TrendStable},
		{name: "only last five count", stress: []float64{0.9, 0.9, 0.5, 0.5, 0.5, 0.5, 0.5}, focus: []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, want: models.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeTrend(buffer(tt.stress, tt.focus)); got != tt.want {
				t.Errorf("ComputeTrend() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPushSignal_TrimsToBufferSize(t *testing.T) {
	s := &models.Session{SignalBuffer: []models.SensorSignal{}}

	for i := 0; i < 35; i++ {
		PushSignal(s, signal(int64(i), 0.1, 0.1))
	}

	if len(s.SignalBuffer) != BufferSize {
		t.Fatalf("expected %d readings, got %d", BufferSize, len(s.SignalBuffer))
	}
	for i, sig := range s.SignalBuffer {
		if want := int64(i + 5); sig.Timestamp != want {
			t.Errorf("position %d: timestamp %d, want %d", i, sig.Timestamp, want)
		}
	}
	if s.LastSignal == nil || s.LastSignal.Timestamp != 34 {
		t.Errorf("expected last signal 34, got %+v", s.LastSignal)
	}
}

func TestAverageStressAndSnapshot(t *testing.T) {
	if got := AverageStress(nil); got != 0 {
		t.Errorf("AverageStress(nil) = %v, want 0", got)
	}

	s := &models.Session{}
	PushSignal(s, signal(1, 0.1, 0))
	PushSignal(s, signal(2, 0.2, 0))
	PushSignal(s, signal(3, 0.3, 0))

	snap := BuildSnapshot(s)
	if snap.Current == nil || snap.Current.Timestamp != 3 {
		t.Errorf("expected current signal 3, got %+v", snap.Current)
	}
	if snap.Trend != models.TrendStable {
		t.Errorf("expected stable trend, got %q", snap.Trend)
	}
	if math.Abs(snap.AvgStress-0.2) > 1e-9 {
		t.Errorf("expected avg stress 0.2, got %v", snap.AvgStress)
	}

	PushSignal(s, signal(4, 1.0/3.0, 0))
	if got := BuildSnapshot(s).AvgStress; got != 0.2333 {
		t.Errorf("expected rounded avg 0.2333, got %v", got)
	}
}

func TestBuildTimelineEntry(t *testing.T) {
	entry := BuildTimelineEntry(signal(1740153600000, 0.72, 0.15), models.PhaseVault, models.AdaptationNone)

	if entry.T != 1740153600000 || entry.Phase != models.PhaseVault || entry.Stress != 0.72 || entry.Focus != 0.15 {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.Adaptation != models.AdaptationNone {
		t.Errorf("expected no adaptation, got %q", entry.Adaptation)
	}
}

func TestDetectAdaptation(t *testing.T) {
	ui := func(c models.Complexity) models.UIDescriptor {
		d := models.DefaultUI()
		d.Complexity = c
		return d
	}
	prev := func(c models.Complexity, v models.VoiceStyle) *models.PreviousOutput {
		return &models.PreviousOutput{UI: ui(c), VoiceStyle: v}
	}

	tests := []struct {
		name  string
		prev  *models.PreviousOutput
		ui    models.UIDescriptor
		voice models.VoiceStyle
		want  models.AdaptationLabel
	}{
		{name: "first turn calm", ui: ui(models.ComplexityStandard), voice: models.VoiceCalmReassuring, want: models.AdaptationVoiceCalmed},
		{name: "first turn not calm", ui: ui(models.ComplexitySimplified), voice: models.VoiceNeutral, want: models.AdaptationNone},
		{name: "simplified", prev: prev(models.ComplexityStandard, models.VoiceNeutral), ui: ui(models.ComplexitySimplified), voice: models.VoiceNeutral, want: models.AdaptationUISimplified},
		{name: "full", prev: prev(models.ComplexityStandard, models.VoiceNeutral), ui: ui(models.ComplexityFull), voice: models.VoiceNeutral, want: models.AdaptationFullDashboard},
		{name: "back to standard", prev: prev(models.ComplexityFull, models.VoiceNeutral), ui: ui(models.ComplexityStandard), voice: models.VoiceNeutral, want: models.AdaptationOptionsExpanded},
		{name: "complexity beats voice", prev: prev(models.ComplexityStandard, models.VoiceUrgent), ui: ui(models.ComplexitySimplified), voice: models.VoiceCalmReassuring, want: models.AdaptationUISimplified},
		{name: "voice calmed", prev: prev(models.ComplexityStandard, models.VoiceUrgent), ui: ui(models.ComplexityStandard), voice: models.VoiceCalmReassuring, want: models.AdaptationVoiceCalmed},
		{name: "staying calm", prev: prev(models.ComplexityStandard, models.VoiceCalmReassuring), ui: ui(models.ComplexityStandard), voice: models.VoiceCalmReassuring, want: models.AdaptationNone},
		{name: "no change", prev: prev(models.ComplexityFull, models.VoiceDirectFast), ui: ui(models.ComplexityFull), voice: models.VoiceDirectFast, want: models.AdaptationNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectAdaptation(tt.prev, tt.ui, tt.voice); got != tt.want {
				t.Errorf("DetectAdaptation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectAdaptation_CalmOnlyOnTransition(t *testing.T) {
	out := models.DefaultUI()

	first := DetectAdaptation(nil, out, models.VoiceCalmReassuring)
	if first != models.AdaptationVoiceCalmed {
		t.Fatalf("first call = %q, want voice_calmed", first)
	}

	stored := &models.PreviousOutput{UI: out, VoiceStyle: models.VoiceCalmReassuring}
	if second := DetectAdaptation(stored, out, models.VoiceCalmReassuring); second != models.AdaptationNone {
		t.Errorf("second call = %q, want none", second)
	}
}

func TestDeriveUI(t *testing.T) {
	current := models.DefaultUI()
	current.Options = []models.OptionItem{
		{ID: "A", Label: "Node A", Highlighted: true},
		{ID: "B", Label: "Node B"},
		{ID: "C", Label: "Node C", Highlighted: true},
	}

	scores := func(stress, focus, confusion, confidence float64) models.SensorSignal {
		return models.SensorSignal{Scores: models.SignalScores{Stress: stress, Focus: focus, Confusion: confusion, Confidence: confidence}, Dominant: "focus"}
	}

	tests := []struct {
		name          string
		sig           models.SensorSignal
		wantTier      models.Complexity
		wantMood      models.ColorMood
		wantGuidance  models.GuidanceLevel
		wantOptions   int
		wantHighlight bool
	}{
		{name: "stress overload", sig: scores(0.7, 0.2, 0.1, 0.1), wantTier: models.ComplexitySimplified, wantMood: models.MoodCalm, wantGuidance: models.GuidanceHigh, wantOptions: 2, wantHighlight: true},
		{name: "confusion overload", sig: scores(0.2, 0.2, 0.6, 0.1), wantTier: models.ComplexitySimplified, wantMood: models.MoodCalm, wantGuidance: models.GuidanceHigh, wantOptions: 2, wantHighlight: true},
		{name: "flow", sig: scores(0.1, 0.8, 0.1, 0.7), wantTier: models.ComplexityFull, wantMood: models.MoodIntense, wantGuidance: models.GuidanceLow, wantOptions: 3},
		{name: "focused but unsure", sig: scores(0.1, 0.8, 0.1, 0.4), wantTier: models.ComplexityStandard, wantMood: models.MoodNeutral, wantGuidance: models.GuidanceMedium, wantOptions: 3},
		{name: "boundary stress", sig: scores(0.6, 0.2, 0.5, 0.1), wantTier: models.ComplexityStandard, wantMood: models.MoodNeutral, wantGuidance: models.GuidanceMedium, wantOptions: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveUI(tt.sig, current)

			if got.Complexity != tt.wantTier || got.ColorMood != tt.wantMood || got.GuidanceLevel != tt.wantGuidance {
				t.Errorf("got %s/%s/%s, want %s/%s/%s", got.Complexity, got.ColorMood, got.GuidanceLevel, tt.wantTier, tt.wantMood, tt.wantGuidance)
			}
			if len(got.Options) != tt.wantOptions {
				t.Fatalf("expected %d options, got %d", tt.wantOptions, len(got.Options))
			}
			for _, o := range got.Options {
				if o.Highlighted != tt.wantHighlight {
					t.Errorf("option %s highlighted = %v, want %v", o.ID, o.Highlighted, tt.wantHighlight)
				}
			}
		})
	}

	if !current.Options[0].Highlighted || current.Options[1].Highlighted {
		t.Error("DeriveUI must not mutate the current descriptor")
	}
}
