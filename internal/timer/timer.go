// Package timer runs one cancellable countdown per session.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/molkiya/spectra/internal/storage"
	"github.com/molkiya/spectra/pkg/logger"
)

// TickFunc is called after every persisted decrement.
type TickFunc func(ctx context.Context, sessionID string, remaining int)

// EndFunc is called once when the countdown reaches zero.
type EndFunc func(ctx context.Context, sessionID string)

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// stopped is returned by Stop when there was nothing to stop.
var stopped = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Service supervises countdown tasks. The zero value is not usable; use New.
type Service struct {
	store    storage.SessionStore
	logger   *logger.Logger
	interval time.Duration

	mu    sync.Mutex
	tasks map[string]*task
	wg    sync.WaitGroup
}

// New creates a timer service that ticks every interval.
func New(store storage.SessionStore, log *logger.Logger, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		store:    store,
		logger:   log.Named("timer"),
		interval: interval,
		tasks:    make(map[string]*task),
	}
}

// Start begins the countdown for sessionID. It returns false and does
// nothing if a countdown for that session is already running.
func (s *Service) Start(sessionID string, onTick TickFunc, onEnd EndFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.tasks[sessionID]; running {
		s.logger.Warn("timer already running", logger.F("session_id", sessionID))
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.tasks[sessionID] = t

	s.wg.Add(1)
	go s.run(ctx, sessionID, t, onTick, onEnd)

	s.logger.Info("timer started", logger.F("session_id", sessionID))
	return true
}

// Stop cancels the countdown for sessionID, if any, and returns a channel
// closed once the task has exited. Callbacks may call Stop but must not wait
// on the channel, since the task is the one running them.
func (s *Service) Stop(sessionID string) <-chan struct{} {
	s.mu.Lock()
	t, ok := s.tasks[sessionID]
	if ok {
		delete(s.tasks, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return stopped
	}
	t.cancel()
	s.logger.Info("timer stopped", logger.F("session_id", sessionID))
	return t.done
}

// Running reports whether a countdown for sessionID is active.
func (s *Service) Running(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[sessionID]
	return ok
}

// StopAll cancels every countdown and waits for them to exit.
func (s *Service) StopAll() {
	s.mu.Lock()
	for id, t := range s.tasks {
		t.cancel()
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Service) run(ctx context.Context, sessionID string, t *task, onTick TickFunc, onEnd EndFunc) {
	defer s.wg.Done()
	defer close(t.done)
	defer s.deregister(sessionID, t)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("timer failed",
				logger.F("session_id", sessionID),
				logger.Err(fmt.Errorf("panic: %v", r)),
			)
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		session, ok := s.store.Load(ctx, sessionID)
		if !ok || !session.Active {
			return
		}
		// a Stop that landed during the load must not see the session saved again
		if ctx.Err() != nil {
			return
		}

		session.TimeRemaining = max(0, session.TimeRemaining-1)
		s.store.Save(ctx, session)
		if ctx.Err() != nil {
			return
		}
		onTick(ctx, sessionID, session.TimeRemaining)

		if session.TimeRemaining == 0 {
			if ctx.Err() != nil {
				return
			}
			session.Active = false
			s.store.Save(ctx, session)
			s.logger.Info("timer expired", logger.F("session_id", sessionID))
			onEnd(ctx, sessionID)
			return
		}
	}
}

// deregister removes t only if it is still the registered task, so a task
// replaced after Stop never evicts its successor.
func (s *Service) deregister(sessionID string, t *task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks[sessionID] == t {
		delete(s.tasks, sessionID)
	}
}
