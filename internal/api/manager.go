package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidsub/internal/cancellation"
	"vidsub/internal/events"
	"vidsub/internal/logging"
	"vidsub/internal/pipeline"
)

var (
	// ErrRunActive is returned by Start while another run is in flight.
	ErrRunActive = errors.New("a run is already active")
	// ErrNoActiveRun is returned by Cancel when nothing is running.
	ErrNoActiveRun = errors.New("no active run")
)

// Runner executes one pipeline run.
type Runner interface {
	RunWithID(ctx context.Context, runID string, rc pipeline.RunConfig, token *cancellation.Token, sink events.Sink) events.Result
}

// Manager owns the single active run of a server and mirrors its events into
// the hub.
type Manager struct {
	runner Runner
	hub    *events.Hub
	logger *slog.Logger
	base   context.Context
	now    func() time.Time

	mu      sync.Mutex
	current *activeRun
	wg      sync.WaitGroup
}

type activeRun struct {
	snapshot RunSnapshot
	token    *cancellation.Token
	done     chan struct{}
}

// NewManager constructs a Manager. Runs inherit ctx, so cancelling it stops
// the active run.
func NewManager(ctx context.Context, runner Runner, hub *events.Hub, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		runner: runner,
		hub:    hub,
		logger: logging.NewComponentLogger(logger, "run-manager"),
		base:   ctx,
		now:    time.Now,
	}
}

// Start launches rc in the background.
func (m *Manager) Start(rc pipeline.RunConfig) (RunSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && !m.finishedLocked() {
		return RunSnapshot{}, ErrRunActive
	}
	run := &activeRun{
		snapshot: RunSnapshot{
			RunID:     uuid.NewString(),
			URL:       rc.URL,
			Kind:      string(rc.Kind),
			State:     "running",
			StartedAt: m.now().UTC().Format(dateTimeFormat),
		},
		token: cancellation.New(),
		done:  make(chan struct{}),
	}
	m.current = run
	m.wg.Add(1)
	go m.execute(run, rc)

	m.logger.Info("run accepted",
		logging.String(logging.FieldRunID, run.snapshot.RunID),
		logging.String("url", rc.URL),
	)
	return run.snapshot, nil
}

func (m *Manager) execute(run *activeRun, rc pipeline.RunConfig) {
	defer m.wg.Done()
	defer close(run.done)
	sink := events.Multi(m.hub, &snapshotSink{m: m, run: run})
	res := m.runner.RunWithID(m.base, run.snapshot.RunID, rc, run.token, sink)

	m.mu.Lock()
	run.snapshot.State = string(res.Status)
	run.snapshot.Result = &res
	run.snapshot.EndedAt = m.now().UTC().Format(dateTimeFormat)
	m.mu.Unlock()
}

// Current returns the active or most recent run.
func (m *Manager) Current() (RunSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return RunSnapshot{}, false
	}
	return m.current.snapshot, true
}

// Active reports whether a run is in flight.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && !m.finishedLocked()
}

// Cancel trips the active run's token. It does not wait for the run to stop.
func (m *Manager) Cancel() (RunSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.finishedLocked() {
		return RunSnapshot{}, ErrNoActiveRun
	}
	if m.current.token.Cancel() {
		m.logger.Info("run cancellation requested", logging.String(logging.FieldRunID, m.current.snapshot.RunID))
	}
	return m.current.snapshot, nil
}

// Wait blocks until the active run, if any, has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) finishedLocked() bool {
	select {
	case <-m.current.done:
		return true
	default:
		return false
	}
}

// snapshotSink folds stage and progress events into the run snapshot.
type snapshotSink struct {
	m   *Manager
	run *activeRun
}

func (s *snapshotSink) Publish(evt events.Event) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	switch evt.Kind {
	case events.KindStage:
		s.run.snapshot.Stage = evt.Stage
		s.run.snapshot.Percent = 0
		s.run.snapshot.Detail = ""
	case events.KindProgress:
		s.run.snapshot.Percent = evt.Percent
		s.run.snapshot.Detail = evt.Detail
	}
}
