package events

import "time"

// Kind tags an Event.
type Kind string

const (
	KindStage    Kind = "stage"
	KindProgress Kind = "progress"
	KindLog      Kind = "log"
	KindResult   Kind = "result"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusCancelled Status = "Cancelled"
)

// Result is the terminal outcome of a run.
type Result struct {
	Success   bool   `json:"success"`
	Status    Status `json:"status"`
	Message   string `json:"message"`
	FinalPath string `json:"final_path,omitempty"`
}

// Event is one entry in a run's stream. Only the fields matching Kind are set.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	RunID     string    `json:"run_id,omitempty"`
	Kind      Kind      `json:"kind"`
	Stage     string    `json:"stage,omitempty"`
	Percent   int       `json:"percent"`
	Detail    string    `json:"detail,omitempty"`
	Text      string    `json:"text,omitempty"`
	Result    *Result   `json:"result,omitempty"`
}

// StageChanged announces that a new stage has started.
func StageChanged(name string) Event {
	return Event{Kind: KindStage, Stage: name}
}

// Progress reports percent (0..100) with a short detail line.
func Progress(percent int, detail string) Event {
	return Event{Kind: KindProgress, Percent: percent, Detail: detail}
}

// LogLine carries one human-readable log line.
func LogLine(text string) Event {
	return Event{Kind: KindLog, Text: text}
}

// Finished wraps the terminal result.
func Finished(result Result) Event {
	r := result
	return Event{Kind: KindResult, Result: &r}
}

// Terminal reports whether e ends a run.
func (e Event) Terminal() bool {
	return e.Kind == KindResult
}
