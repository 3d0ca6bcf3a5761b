package pipeline

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"vidsub/internal/events"
	"vidsub/internal/logging"
)

// emitter stamps events for one run and mirrors them to the structured log.
// It is safe for concurrent use; nothing is published after the result.
type emitter struct {
	mu      sync.Mutex
	sink    events.Sink
	runID   string
	seq     uint64
	stage   string
	closed  bool
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	now     func() time.Time
}

func newEmitter(sink events.Sink, runID string, logger *slog.Logger, now func() time.Time) *emitter {
	if sink == nil {
		sink = events.Discard
	}
	return &emitter{
		sink:    sink,
		runID:   runID,
		logger:  logger,
		sampler: logging.NewProgressSampler(5),
		now:     now,
	}
}

func (e *emitter) publish(evt events.Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.seq++
	evt.Sequence = e.seq
	evt.Timestamp = e.now()
	evt.RunID = e.runID
	if evt.Terminal() {
		e.closed = true
	}
	e.sink.Publish(evt)
	return true
}

func (e *emitter) stageChanged(label string) {
	e.mu.Lock()
	e.stage = label
	e.mu.Unlock()
	if e.publish(events.StageChanged(label)) {
		e.logger.Info("stage started",
			logging.String(logging.FieldEventType, "stage_start"),
			logging.String("label", label),
		)
	}
}

func (e *emitter) progress(percent int, detail string) {
	if !e.publish(events.Progress(percent, detail)) {
		return
	}
	e.mu.Lock()
	stage := e.stage
	sample := e.sampler.ShouldLog(stage, percent)
	e.mu.Unlock()
	if sample {
		e.logger.Info("stage progress",
			logging.String(logging.FieldEventType, "stage_progress"),
			logging.String("label", stage),
			logging.Int(logging.FieldProgressPercent, percent),
			logging.String(logging.FieldProgressMessage, detail),
		)
	}
}

func (e *emitter) log(text string) {
	if !e.publish(events.LogLine(text)) {
		return
	}
	switch {
	case strings.HasPrefix(text, "[WARN]"):
		e.logger.Warn(text, logging.String(logging.FieldEventType, "run_warning"))
	case strings.HasPrefix(text, "[ERROR]"):
		e.logger.Error(text, logging.String(logging.FieldEventType, "run_error"))
	case strings.HasPrefix(text, "[CMD]"), strings.HasPrefix(text, "[INFO]"), strings.HasPrefix(text, "[ACTION]"):
		e.logger.Info(text)
	default:
		e.logger.Debug("tool output", logging.String("line", text))
	}
}

func (e *emitter) result(res events.Result) {
	e.publish(events.Finished(res))
}
