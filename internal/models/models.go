package models

import "fmt"

// Phase is one stage of the mission. Phases only move forward.
type Phase string

const (
	PhaseInfiltrate Phase = "infiltrate"
	PhaseVault      Phase = "vault"
	PhaseEscape     Phase = "escape"
	PhaseDebrief    Phase = "debrief"
)

// PhaseOrder is the fixed progression; the last element is terminal.
var PhaseOrder = []Phase{PhaseInfiltrate, PhaseVault, PhaseEscape, PhaseDebrief}

// Index returns the position of p in PhaseOrder, or -1 if p is unknown.
func (p Phase) Index() int {
	for i, candidate := range PhaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether p is the last phase.
func (p Phase) IsTerminal() bool {
	return p == PhaseOrder[len(PhaseOrder)-1]
}

// Trend is a coarse classification of recent stress/focus movement
type Trend string

const (
	TrendStable        Trend = "stable"
	TrendRisingStress  Trend = "rising_stress"
	TrendFallingStress Trend = "falling_stress"
	TrendRisingFocus   Trend = "rising_focus"
	TrendFallingFocus  Trend = "falling_focus"
)

// VoiceStyle tags how reasoning text should be spoken
type VoiceStyle string

const (
	VoiceCalmReassuring VoiceStyle = "calm_reassuring"
	VoiceDirectFast     VoiceStyle = "direct_fast"
	VoiceUrgent         VoiceStyle = "urgent"
	VoiceNeutral        VoiceStyle = "neutral"
)

// Valid reports whether v is a known voice style
func (v VoiceStyle) Valid() bool {
	switch v {
	case VoiceCalmReassuring, VoiceDirectFast, VoiceUrgent, VoiceNeutral:
		return true
	}
	return false
}

// Complexity is the UI density tier
type Complexity string

const (
	ComplexitySimplified Complexity = "simplified"
	ComplexityStandard   Complexity = "standard"
	ComplexityFull       Complexity = "full"
)

// Valid reports whether c is a known tier
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimplified, ComplexityStandard, ComplexityFull:
		return true
	}
	return false
}

// ColorMood is the UI mood tag
type ColorMood string

const (
	MoodCalm    ColorMood = "calm"
	MoodNeutral ColorMood = "neutral"
	MoodIntense ColorMood = "intense"
)

// Valid reports whether m is a known mood
func (m ColorMood) Valid() bool {
	switch m {
	case MoodCalm, MoodNeutral, MoodIntense:
		return true
	}
	return false
}

// GuidanceLevel is how much help the UI offers
type GuidanceLevel string

const (
	GuidanceNone   GuidanceLevel = "none"
	GuidanceLow    GuidanceLevel = "low"
	GuidanceMedium GuidanceLevel = "medium"
	GuidanceHigh   GuidanceLevel = "high"
)

// Valid reports whether g is a known guidance level
func (g GuidanceLevel) Valid() bool {
	switch g {
	case GuidanceNone, GuidanceLow, GuidanceMedium, GuidanceHigh:
		return true
	}
	return false
}

// AdaptationLabel describes what changed in the presented output between turns.
// The zero value means no adaptation.
type AdaptationLabel string

const (
	AdaptationNone            AdaptationLabel = ""
	AdaptationUISimplified    AdaptationLabel = "ui_simplified"
	AdaptationOptionsExpanded AdaptationLabel = "options_expanded"
	AdaptationFullDashboard   AdaptationLabel = "full_dashboard"
	AdaptationVoiceCalmed     AdaptationLabel = "voice_calmed"
)

// Role tags a conversation entry
type Role string

const (
	RolePlayer Role = "player"
	RoleOracle Role = "oracle"
)

// SignalScores are the five affective dimensions, each in [0,1]
type SignalScores struct {
	Stress     float64 `json:"stress"`
	Focus      float64 `json:"focus"`
	Confusion  float64 `json:"confusion"`
	Confidence float64 `json:"confidence"`
	Neutral    float64 `json:"neutral"`
}

// SensorSignal is one affective reading from a sensor consumer
type SensorSignal struct {
	Timestamp    int64        `json:"timestamp"`
	Scores       SignalScores `json:"emotions"`
	Dominant     string       `json:"dominant"`
	FaceDetected bool         `json:"face_detected"`
}

// Validate checks score bounds and the dominant label
func (s SensorSignal) Validate() error {
	scores := map[string]float64{
		"stress":     s.Scores.Stress,
		"focus":      s.Scores.Focus,
		"confusion":  s.Scores.Confusion,
		"confidence": s.Scores.Confidence,
		"neutral":    s.Scores.Neutral,
	}
	for name, v := range scores {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s score %v out of range [0,1]", name, v)
		}
	}
	if s.Dominant == "" {
		return fmt.Errorf("dominant label is required")
	}
	return nil
}

// ConversationEntry is one role-tagged utterance
type ConversationEntry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session represents a mission session
type Session struct {
	ID            string              `json:"session_id"`
	Phase         Phase               `json:"phase"`
	TimeRemaining int                 `json:"time_remaining"`
	DecisionsMade int                 `json:"decisions_made"`
	Score         int                 `json:"current_score"`
	History       []ConversationEntry `json:"conversation_history"`
	Active        bool                `json:"is_active"`
	LastSignal    *SensorSignal       `json:"last_emotion,omitempty"`
	SignalBuffer  []SensorSignal      `json:"emotion_buffer"`
}

// TimelineEntry is one captured signal point; ordered by T
type TimelineEntry struct {
	T          int64           `json:"t"`
	Phase      Phase           `json:"phase"`
	Stress     float64         `json:"stress"`
	Focus      float64         `json:"focus"`
	Adaptation AdaptationLabel `json:"adaptation,omitempty"`
}

// OptionItem is a selectable choice shown to the player
type OptionItem struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Highlighted bool   `json:"highlighted"`
}

// UIDescriptor describes what consumers should currently present
type UIDescriptor struct {
	Complexity    Complexity    `json:"complexity"`
	ColorMood     ColorMood     `json:"color_mood"`
	PanelsVisible []string      `json:"panels_visible"`
	Options       []OptionItem  `json:"options"`
	GuidanceLevel GuidanceLevel `json:"guidance_level"`
}

// DefaultUI returns the neutral descriptor used when nothing was presented yet
func DefaultUI() UIDescriptor {
	return UIDescriptor{
		Complexity:    ComplexityStandard,
		ColorMood:     MoodNeutral,
		PanelsVisible: []string{"main", "stats"},
		Options:       []OptionItem{},
		GuidanceLevel: GuidanceLow,
	}
}

// PreviousOutput is the last broadcast UI/voice pair, kept only for change detection
type PreviousOutput struct {
	UI         UIDescriptor `json:"ui_commands"`
	VoiceStyle VoiceStyle   `json:"voice_style"`
}

// SignalSnapshot summarises the buffer for external consumers
type SignalSnapshot struct {
	Current   *SensorSignal `json:"current"`
	Trend     Trend         `json:"trend"`
	AvgStress float64       `json:"avg_stress_30s"`
}

// GameStateSnapshot is the scored part of a session sent to the reasoning service
type GameStateSnapshot struct {
	Phase         Phase `json:"phase"`
	TimeRemaining int   `json:"time_remaining"`
	DecisionsMade int   `json:"decisions_made"`
	Score         int   `json:"current_score"`
}

// ReasoningRequest is the context snapshot for one player turn
type ReasoningRequest struct {
	GameState   GameStateSnapshot   `json:"game_state"`
	Signals     SignalSnapshot      `json:"emotion_snapshot"`
	PlayerInput string              `json:"player_input"`
	History     []ConversationEntry `json:"conversation_history"`
}

// Speech is the narrative part of a reasoning response
type Speech struct {
	Text       string     `json:"text"`
	VoiceStyle VoiceStyle `json:"voice_style"`
}

// GameUpdate is the scoring part of a reasoning response
type GameUpdate struct {
	ScoreDelta   int    `json:"score_delta"`
	AdvancePhase bool   `json:"advance_phase"`
	NextPrompt   string `json:"next_prompt,omitempty"`
}

// ReasoningResponse is what the reasoning service returns for one turn
type ReasoningResponse struct {
	Speech Speech       `json:"oracle_response"`
	UI     UIDescriptor `json:"ui_commands"`
	Update GameUpdate   `json:"game_update"`
}

// Validate rejects responses that cannot be presented
func (r ReasoningResponse) Validate() error {
	if r.Speech.Text == "" {
		return fmt.Errorf("response text is empty")
	}
	if !r.Speech.VoiceStyle.Valid() {
		return fmt.Errorf("unknown voice style %q", r.Speech.VoiceStyle)
	}
	if !r.UI.Complexity.Valid() {
		return fmt.Errorf("unknown complexity %q", r.UI.Complexity)
	}
	if !r.UI.ColorMood.Valid() {
		return fmt.Errorf("unknown color mood %q", r.UI.ColorMood)
	}
	if !r.UI.GuidanceLevel.Valid() {
		return fmt.Errorf("unknown guidance level %q", r.UI.GuidanceLevel)
	}
	return nil
}

// SessionCreatedResponse represents the response when creating a session
type SessionCreatedResponse struct {
	SessionID string `json:"session_id"`
}

// SessionStartedResponse represents the response when starting the timer
type SessionStartedResponse struct {
	Status        string `json:"status"`
	TimeRemaining int    `json:"time_remaining"`
}

// SessionStateResponse represents the response when getting session state
type SessionStateResponse struct {
	SessionID     string `json:"session_id"`
	Phase         Phase  `json:"phase"`
	TimeRemaining int    `json:"time_remaining"`
	Score         int    `json:"current_score"`
	DecisionsMade int    `json:"decisions_made"`
	Active        bool   `json:"is_active"`
}

// HealthResponse represents the health check body
type HealthResponse struct {
	Status   string `json:"status"`
	MockMode bool   `json:"mock_mode"`
	DemoMode bool   `json:"demo_mode"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
