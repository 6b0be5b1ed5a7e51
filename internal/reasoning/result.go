// Package reasoning calls the external service that turns a turn context
// into narrative text, a UI descriptor and a game update.
package reasoning

import (
	"context"
	"fmt"

	"github.com/molkiya/spectra/internal/models"
)

// FallbackText is spoken when the reasoning service cannot answer.
const FallbackText = "Hold on, recalibrating..."

// Client produces a reasoning result for one player turn. Implementations
// never return a nil Result.
type Client interface {
	Respond(ctx context.Context, req models.ReasoningRequest) Result
}

// Result is either Success or Failure.
type Result interface {
	result()
}

// Success carries a validated response.
type Success struct {
	Response models.ReasoningResponse
}

// FailureKind classifies why a call produced no usable response.
type FailureKind string

const (
	FailureUnreachable FailureKind = "unreachable"
	FailureStatus      FailureKind = "status"
	FailureTimeout     FailureKind = "timeout"
	FailureMalformed   FailureKind = "malformed"
)

// Failure means the caller must substitute Fallback().
type Failure struct {
	Kind FailureKind
	Err  error
}

func (Success) result() {}
func (Failure) result() {}

func (f Failure) Error() string {
	return fmt.Sprintf("reasoning %s: %v", f.Kind, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Fallback is the neutral response used on any failure: placeholder text,
// neutral voice, default UI and a zero update.
func Fallback() models.ReasoningResponse {
	return models.ReasoningResponse{
		Speech: models.Speech{
			Text:       FallbackText,
			VoiceStyle: models.VoiceNeutral,
		},
		UI:     models.DefaultUI(),
		Update: models.GameUpdate{},
	}
}
