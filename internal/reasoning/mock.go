package reasoning

import (
	"context"

	"go.uber.org/atomic"

	"github.com/molkiya/spectra/internal/models"
)

// MockClient returns canned responses without any network call. Odd turns
// get the focused response and even turns the stressed one.
type MockClient struct {
	turns atomic.Int64
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock client starting at turn zero.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Respond ignores req and alternates between two canned responses.
func (m *MockClient) Respond(_ context.Context, _ models.ReasoningRequest) Result {
	if m.turns.Inc()%2 == 0 {
		return Success{Response: stressedResponse()}
	}
	return Success{Response: focusedResponse()}
}

func stressedResponse() models.ReasoningResponse {
	return models.ReasoningResponse{
		Speech: models.Speech{
			Text:       "I see you're feeling the pressure. Let's simplify. Focus on the two strongest options.",
			VoiceStyle: models.VoiceCalmReassuring,
		},
		UI: models.UIDescriptor{
			Complexity:    models.ComplexitySimplified,
			ColorMood:     models.MoodCalm,
			PanelsVisible: []string{"main"},
			Options: []models.OptionItem{
				{ID: "A", Label: "Option A", Highlighted: true},
				{ID: "B", Label: "Option B"},
			},
			GuidanceLevel: models.GuidanceHigh,
		},
		Update: models.GameUpdate{ScoreDelta: 5},
	}
}

func focusedResponse() models.ReasoningResponse {
	return models.ReasoningResponse{
		Speech: models.Speech{
			Text:       "Good instinct. You're locked in. Here's the full picture.",
			VoiceStyle: models.VoiceDirectFast,
		},
		UI: models.UIDescriptor{
			Complexity:    models.ComplexityFull,
			ColorMood:     models.MoodIntense,
			PanelsVisible: []string{"main", "stats", "radar", "comms"},
			Options: []models.OptionItem{
				{ID: "A", Label: "Node A"},
				{ID: "B", Label: "Node B"},
				{ID: "C", Label: "Node C", Highlighted: true},
			},
			GuidanceLevel: models.GuidanceNone,
		},
		Update: models.GameUpdate{ScoreDelta: 10},
	}
}
