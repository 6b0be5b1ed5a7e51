package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/molkiya/spectra/internal/game"
	"github.com/molkiya/spectra/internal/hub"
	"github.com/molkiya/spectra/internal/message"
	"github.com/molkiya/spectra/internal/models"
	"github.com/molkiya/spectra/internal/reasoning"
	"github.com/molkiya/spectra/internal/storage"
	"github.com/molkiya/spectra/internal/timer"
	"github.com/molkiya/spectra/internal/trend"
	"github.com/molkiya/spectra/pkg/logger"
)

// Errors surfaced to lifecycle callers. Event handlers never return them.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")
)

// GreetingText opens every mission once the countdown starts.
const GreetingText = "ORACLE online. We have a narrow window to extract the classified data. " +
	"I've identified three entry points. Node A has low encryption but active monitoring, " +
	"Node B is heavily encrypted but unmonitored, and Node C is an unmapped maintenance port. " +
	"Which pattern looks weakest to you?"

const tracerName = "github.com/molkiya/spectra/internal/service"

// Options tune session defaults and delayed broadcasts.
type Options struct {
	GameDuration    int // seconds
	NextPromptDelay time.Duration
	GreetingDelay   time.Duration
}

// Orchestrator is the single entry point for inbound events and session
// lifecycle requests. Events for one session are handled one at a time.
type Orchestrator struct {
	store     storage.SessionStore
	hub       *hub.Hub
	timers    *timer.Service
	reasoning reasoning.Client
	logger    *logger.Logger
	tracer    trace.Tracer
	opts      Options

	locks *sessionLocks

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator wires the orchestrator to its collaborators.
func NewOrchestrator(
	store storage.SessionStore,
	h *hub.Hub,
	timers *timer.Service,
	client reasoning.Client,
	log *logger.Logger,
	opts Options,
) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:     store,
		hub:       h,
		timers:    timers,
		reasoning: client,
		logger:    log.Named("orchestrator"),
		tracer:    otel.Tracer(tracerName),
		opts:      opts,
		locks:     newSessionLocks(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Close cancels pending delayed broadcasts and waits for them to finish.
// Running timers are owned by the timer service and stopped there.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// HandleSensorSignal records one sensor reading for an active session.
// Absent or inactive sessions are ignored.
func (o *Orchestrator) HandleSensorSignal(ctx context.Context, sessionID string, sig models.SensorSignal) {
	unlock := o.locks.lock(sessionID)
	defer unlock()

	session, ok := o.store.Load(ctx, sessionID)
	if !ok || !session.Active {
		o.logger.Debug("ignoring signal for unavailable session", logger.F("session_id", sessionID))
		return
	}

	trend.PushSignal(session, sig)
	o.store.AppendTimelineEntry(ctx, sessionID, trend.BuildTimelineEntry(sig, session.Phase, models.AdaptationNone))

	current := models.DefaultUI()
	if prev, ok := o.store.LoadPreviousOutput(ctx, sessionID); ok {
		current = prev.UI
	}
	derived := trend.DeriveUI(sig, current)
	if derived.Complexity != current.Complexity || derived.ColorMood != current.ColorMood {
		o.logger.Info("signal changed presented output",
			logger.F("session_id", sessionID),
			logger.F("complexity", string(derived.Complexity)),
			logger.F("color_mood", string(derived.ColorMood)),
		)
		o.hub.Broadcast(ctx, sessionID, message.UIUpdate{UI: derived})
		o.store.SavePreviousOutput(ctx, sessionID, models.PreviousOutput{UI: derived, VoiceStyle: models.VoiceNeutral})
	}

	o.store.Save(ctx, session)

	snapshot := trend.BuildSnapshot(session)
	o.logger.Debug("signal recorded",
		logger.F("session_id", sessionID),
		logger.F("trend", string(snapshot.Trend)),
		logger.Float("avg_stress", snapshot.AvgStress),
	)
	o.hub.Broadcast(ctx, sessionID, message.SensorUpdate{
		Signal:    sig,
		Trend:     snapshot.Trend,
		AvgStress: snapshot.AvgStress,
	})
}

// HandlePlayerInput runs one full turn: ask the reasoning service (or use the
// fallback), score the answer, label any adaptation, persist and broadcast.
// Absent, inactive or finished sessions are ignored.
func (o *Orchestrator) HandlePlayerInput(ctx context.Context, sessionID, text string) {
	unlock := o.locks.lock(sessionID)
	defer unlock()

	session, ok := o.store.Load(ctx, sessionID)
	if !ok || !session.Active || session.Phase.IsTerminal() {
		o.logger.Debug("ignoring input for unavailable session", logger.F("session_id", sessionID))
		return
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.player_turn",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("session.phase", string(session.Phase)),
		),
	)
	defer span.End()

	start := time.Now()
	game.AppendHistory(session, models.RolePlayer, text)

	req := models.ReasoningRequest{
		GameState:   game.Snapshot(session),
		Signals:     trend.BuildSnapshot(session),
		PlayerInput: text,
		History:     append([]models.ConversationEntry(nil), session.History...),
	}

	var resp models.ReasoningResponse
	switch r := o.reasoning.Respond(ctx, req).(type) {
	case reasoning.Success:
		resp = r.Response
	case reasoning.Failure:
		o.logger.Warn("reasoning failed, using fallback",
			logger.F("session_id", sessionID),
			logger.F("kind", string(r.Kind)),
			logger.Err(r.Err),
		)
		span.RecordError(r)
		span.SetStatus(codes.Error, string(r.Kind))
		resp = reasoning.Fallback()
	default:
		resp = reasoning.Fallback()
	}

	voice := resp.Speech.VoiceStyle
	game.AppendHistory(session, models.RoleOracle, resp.Speech.Text)
	advanced := game.ApplyUpdate(session, resp.Update.ScoreDelta, resp.Update.AdvancePhase)

	var prev *models.PreviousOutput
	if p, ok := o.store.LoadPreviousOutput(ctx, sessionID); ok {
		prev = p
	}
	if label := trend.DetectAdaptation(prev, resp.UI, voice); label != models.AdaptationNone {
		o.store.AmendLatestTimelineAdaptation(ctx, sessionID, label)
		o.logger.Info("adaptation detected", logger.F("session_id", sessionID), logger.F("adaptation", string(label)))
		span.SetAttributes(attribute.String("spectra.adaptation", string(label)))
	}
	o.store.SavePreviousOutput(ctx, sessionID, models.PreviousOutput{UI: resp.UI, VoiceStyle: voice})

	// The countdown kept running during the reasoning call; keep its fields.
	if latest, ok := o.store.Load(ctx, sessionID); ok {
		session.TimeRemaining = latest.TimeRemaining
		session.Active = session.Active && latest.Active
	}
	o.store.Save(ctx, session)

	o.hub.Broadcast(ctx, sessionID, message.ReasoningSpeech{Text: resp.Speech.Text, VoiceStyle: voice})
	o.hub.Broadcast(ctx, sessionID, message.UIUpdate{UI: resp.UI})
	if advanced {
		o.hub.Broadcast(ctx, sessionID, message.PhaseChange{Phase: session.Phase})
		if session.Phase.IsTerminal() {
			o.hub.Broadcast(ctx, sessionID, message.SessionEnd{FinalScore: session.Score, SessionID: sessionID})
			o.timers.Stop(sessionID)
		}
	}

	if next := resp.Update.NextPrompt; next != "" {
		o.after(o.opts.NextPromptDelay, func(ctx context.Context) {
			o.hub.Broadcast(ctx, sessionID, message.ReasoningSpeech{Text: next, VoiceStyle: voice})
		})
	}

	o.logger.Info("turn complete",
		logger.F("session_id", sessionID),
		logger.F("phase", string(session.Phase)),
		logger.Int("score", session.Score),
		logger.Int("duration_ms", int(time.Since(start).Milliseconds())),
	)
}

// OnTimerTick forwards the remaining countdown to consumers.
func (o *Orchestrator) OnTimerTick(ctx context.Context, sessionID string, remaining int) {
	o.hub.Broadcast(ctx, sessionID, message.TimerTick{TimeRemaining: remaining})
}

// OnTimerEnd ends the mission unconditionally: jump to the terminal phase,
// deactivate, persist and announce. A session that already reached the
// terminal phase through play has announced its end and is left alone.
func (o *Orchestrator) OnTimerEnd(ctx context.Context, sessionID string) {
	unlock := o.locks.lock(sessionID)
	defer unlock()

	session, ok := o.store.Load(ctx, sessionID)
	if !ok || session.Phase.IsTerminal() {
		return
	}

	game.ForceTerminal(session)
	o.store.Save(ctx, session)

	o.logger.Info("mission time expired", logger.F("session_id", sessionID), logger.Int("score", session.Score))
	o.hub.Broadcast(ctx, sessionID, message.PhaseChange{Phase: session.Phase})
	o.hub.Broadcast(ctx, sessionID, message.SessionEnd{FinalScore: session.Score, SessionID: sessionID})
}

func (o *Orchestrator) greet(ctx context.Context, sessionID string) {
	unlock := o.locks.lock(sessionID)
	defer unlock()

	session, ok := o.store.Load(ctx, sessionID)
	if !ok || !session.Active {
		return
	}
	game.AppendHistory(session, models.RoleOracle, GreetingText)
	o.store.Save(ctx, session)
	o.hub.Broadcast(ctx, sessionID, message.ReasoningSpeech{Text: GreetingText, VoiceStyle: models.VoiceNeutral})
}

// after runs fn once delay has passed unless the orchestrator is closed first.
func (o *Orchestrator) after(delay time.Duration, fn func(ctx context.Context)) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		t := time.NewTimer(delay)
		defer t.Stop()

		select {
		case <-o.ctx.Done():
			return
		case <-t.C:
		}
		fn(o.ctx)
	}()
}
