// Package message defines the closed set of frames exchanged with session
// consumers and their JSON encoding. Every frame carries a "type" discriminator.
package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/molkiya/spectra/internal/models"
)

// Kind is the discriminator written to the "type" field
type Kind string

const (
	KindSensorUpdate    Kind = "sensor_update"
	KindReasoningSpeech Kind = "oracle_speech"
	KindUIUpdate        Kind = "ui_update"
	KindTimerTick       Kind = "timer_tick"
	KindPhaseChange     Kind = "phase_change"
	KindSessionEnd      Kind = "game_end"

	KindSensorData   Kind = "emotion_data"
	KindPlayerSpeech Kind = "player_speech"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownKind = errors.New("unknown message kind")
)

// Outbound is implemented only by the frame types in this package.
type Outbound interface {
	Kind() Kind
	outbound()
}

// SensorUpdate carries the latest signal with the derived trend
type SensorUpdate struct {
	Signal    models.SensorSignal `json:"data"`
	Trend     models.Trend        `json:"trend"`
	AvgStress float64             `json:"avg_stress"`
}

// ReasoningSpeech is narrative text to display or speak
type ReasoningSpeech struct {
	Text       string            `json:"text"`
	VoiceStyle models.VoiceStyle `json:"voice_style"`
}

// UIUpdate carries a new UI descriptor
type UIUpdate struct {
	UI models.UIDescriptor `json:"data"`
}

// TimerTick reports the remaining countdown
type TimerTick struct {
	TimeRemaining int `json:"time_remaining"`
}

// PhaseChange announces the phase a session moved to
type PhaseChange struct {
	Phase models.Phase `json:"phase"`
}

// SessionEnd is the final frame of a session
type SessionEnd struct {
	FinalScore int    `json:"final_score"`
	SessionID  string `json:"session_id"`
}

func (SensorUpdate) Kind() Kind    { return KindSensorUpdate }
func (ReasoningSpeech) Kind() Kind { return KindReasoningSpeech }
func (UIUpdate) Kind() Kind        { return KindUIUpdate }
func (TimerTick) Kind() Kind       { return KindTimerTick }
func (PhaseChange) Kind() Kind     { return KindPhaseChange }
func (SessionEnd) Kind() Kind      { return KindSessionEnd }

func (SensorUpdate) outbound()    {}
func (ReasoningSpeech) outbound() {}
func (UIUpdate) outbound()        {}
func (TimerTick) outbound()       {}
func (PhaseChange) outbound()     {}
func (SessionEnd) outbound()      {}

// Encode serialises an outbound frame with its discriminator.
func Encode(msg Outbound) ([]byte, error) {
	switch m := msg.(type) {
	case SensorUpdate:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			SensorUpdate
		}{m.Kind(), m})
	case ReasoningSpeech:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			ReasoningSpeech
		}{m.Kind(), m})
	case UIUpdate:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			UIUpdate
		}{m.Kind(), m})
	case TimerTick:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			TimerTick
		}{m.Kind(), m})
	case PhaseChange:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			PhaseChange
		}{m.Kind(), m})
	case SessionEnd:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			SessionEnd
		}{m.Kind(), m})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}
}

// Inbound is implemented only by the frame types consumers may send.
type Inbound interface {
	inbound()
}

// SensorData is a sensor reading pushed by a consumer
type SensorData struct {
	Signal models.SensorSignal
}

// PlayerSpeech is a user utterance
type PlayerSpeech struct {
	Text string
}

func (SensorData) inbound()   {}
func (PlayerSpeech) inbound() {}

type inboundFrame struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
	Text string          `json:"text"`
}

// DecodeInbound parses and validates one inbound frame. Errors wrap
// ErrMalformed or ErrUnknownKind.
func DecodeInbound(raw []byte) (Inbound, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch frame.Type {
	case KindSensorData:
		if len(frame.Data) == 0 {
			return nil, fmt.Errorf("%w: emotion_data without data", ErrMalformed)
		}
		var signal models.SensorSignal
		if err := json.Unmarshal(frame.Data, &signal); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := signal.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return SensorData{Signal: signal}, nil
	case KindPlayerSpeech:
		text := strings.TrimSpace(frame.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: empty player_speech", ErrMalformed)
		}
		return PlayerSpeech{Text: text}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, frame.Type)
	}
}
