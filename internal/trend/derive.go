package trend

import "github.com/molkiya/spectra/internal/models"

// Thresholds for deriving a UI descriptor straight from a sensor reading.
const (
	overloadStress    = 0.6
	overloadConfusion = 0.5

	flowFocus      = 0.6
	flowStress     = 0.3
	flowConfidence = 0.5
)

// DeriveUI adapts current to a single sensor reading without asking the
// reasoning service.
//
// Overload (high stress or confusion) simplifies the view and highlights at
// most the first two options. Flow (high focus, low stress, confident) opens
// the full dashboard. Anything else falls back to the standard view. Options
// are copied, never shared with current.
func DeriveUI(sig models.SensorSignal, current models.UIDescriptor) models.UIDescriptor {
	e := sig.Scores

	if e.Stress > overloadStress || e.Confusion > overloadConfusion {
		n := min(len(current.Options), 2)
		options := copyOptions(current.Options[:n], true)
		return models.UIDescriptor{
			Complexity:    models.ComplexitySimplified,
			ColorMood:     models.MoodCalm,
			PanelsVisible: []string{"main"},
			Options:       options,
			GuidanceLevel: models.GuidanceHigh,
		}
	}

	if e.Focus > flowFocus && e.Stress < flowStress && e.Confidence > flowConfidence {
		return models.UIDescriptor{
			Complexity:    models.ComplexityFull,
			ColorMood:     models.MoodIntense,
			PanelsVisible: []string{"main", "stats", "radar", "comms"},
			Options:       copyOptions(current.Options, false),
			GuidanceLevel: models.GuidanceLow,
		}
	}

	return models.UIDescriptor{
		Complexity:    models.ComplexityStandard,
		ColorMood:     models.MoodNeutral,
		PanelsVisible: []string{"main", "stats"},
		Options:       copyOptions(current.Options, false),
		GuidanceLevel: models.GuidanceMedium,
	}
}

// copyOptions returns a copy of options with every highlight set to h.
func copyOptions(options []models.OptionItem, h bool) []models.OptionItem {
	out := make([]models.OptionItem, len(options))
	for i, o := range options {
		o.Highlighted = h
		out[i] = o
	}
	return out
}
