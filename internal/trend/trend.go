// Package trend maintains the bounded sensor-signal buffer and derives
// trends, averages and adaptation labels from it. Everything here is pure:
// no I/O, no clock, no shared state.
package trend

import (
	"math"

	"github.com/molkiya/spectra/internal/models"
)

const (
	// BufferSize caps the signal buffer (about 30 s at one reading per second).
	BufferSize = 30

	// TrendWindow is how many of the newest readings feed ComputeTrend.
	TrendWindow = 5

	// TrendThreshold is the mean delta that must be strictly exceeded to
	// report a rising or falling trend.
	TrendThreshold = 0.1
)

// PushSignal appends sig to the session buffer, trims the oldest readings
// beyond BufferSize and records sig as the last seen signal.
func PushSignal(s *models.Session, sig models.SensorSignal) {
	buf := append(s.SignalBuffer, sig)
	if len(buf) > BufferSize {
		trimmed := make([]models.SensorSignal, BufferSize)
		copy(trimmed, buf[len(buf)-BufferSize:])
		buf = trimmed
	}
	s.SignalBuffer = buf
	last := sig
	s.LastSignal = &last
}

// ComputeTrend classifies recent movement of stress and focus.
//
// The last TrendWindow readings are split into two triples that share the
// middle reading: positions 0-2 and 2-4. The delta is second mean minus
// first mean. Stress is checked before focus, so a stress trend wins when
// both cross the threshold.
//
// Returns:
//   - TrendStable when fewer than TrendWindow readings are buffered
func ComputeTrend(buffer []models.SensorSignal) models.Trend {
	if len(buffer) < TrendWindow {
		return models.TrendStable
	}

	window := buffer[len(buffer)-TrendWindow:]
	first, second := window[:3], window[2:]

	stressDelta := mean(second, stressOf) - mean(first, stressOf)
	focusDelta := mean(second, focusOf) - mean(first, focusOf)

	switch {
	case stressDelta > TrendThreshold:
		return models.TrendRisingStress
	case stressDelta < -TrendThreshold:
		return models.TrendFallingStress
	case focusDelta > TrendThreshold:
		return models.TrendRisingFocus
	case focusDelta < -TrendThreshold:
		return models.TrendFallingFocus
	default:
		return models.TrendStable
	}
}

// AverageStress is the mean stress over the whole buffer, 0 when empty.
func AverageStress(buffer []models.SensorSignal) float64 {
	if len(buffer) == 0 {
		return 0
	}
	return mean(buffer, stressOf)
}

// BuildSnapshot summarises the session buffer for the reasoning service.
// The average is rounded to four decimals.
func BuildSnapshot(s *models.Session) models.SignalSnapshot {
	return models.SignalSnapshot{
		Current:   s.LastSignal,
		Trend:     ComputeTrend(s.SignalBuffer),
		AvgStress: round4(AverageStress(s.SignalBuffer)),
	}
}

// BuildTimelineEntry captures sig at the given phase.
func BuildTimelineEntry(sig models.SensorSignal, phase models.Phase, label models.AdaptationLabel) models.TimelineEntry {
	return models.TimelineEntry{
		T:          sig.Timestamp,
		Phase:      phase,
		Stress:     sig.Scores.Stress,
		Focus:      sig.Scores.Focus,
		Adaptation: label,
	}
}

// DetectAdaptation labels what changed between the previously presented
// output and the new one.
//
// A complexity change wins and is labelled by the new tier. Otherwise a
// move into the calming voice is labelled voice_calmed; with no previous
// output a calming voice counts as a move into it. Staying calm across
// turns yields AdaptationNone.
func DetectAdaptation(prev *models.PreviousOutput, ui models.UIDescriptor, voice models.VoiceStyle) models.AdaptationLabel {
	if prev == nil {
		if voice == models.VoiceCalmReassuring {
			return models.AdaptationVoiceCalmed
		}
		return models.AdaptationNone
	}

	if ui.Complexity != prev.UI.Complexity {
		switch ui.Complexity {
		case models.ComplexitySimplified:
			return models.AdaptationUISimplified
		case models.ComplexityFull:
			return models.AdaptationFullDashboard
		default:
			return models.AdaptationOptionsExpanded
		}
	}

	if voice == models.VoiceCalmReassuring && prev.VoiceStyle != models.VoiceCalmReassuring {
		return models.AdaptationVoiceCalmed
	}
	return models.AdaptationNone
}

func stressOf(s models.SensorSignal) float64 { return s.Scores.Stress }
func focusOf(s models.SensorSignal) float64  { return s.Scores.Focus }

func mean(signals []models.SensorSignal, pick func(models.SensorSignal) float64) float64 {
	var sum float64
	for _, s := range signals {
		sum += pick(s)
	}
	return sum / float64(len(signals))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
