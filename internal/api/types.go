package api

import (
	"vidsub/internal/deps"
	"vidsub/internal/events"
	"vidsub/internal/ledger"
	"vidsub/internal/preflight"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// RunRequest starts a run. Empty fields take the configured defaults.
type RunRequest struct {
	URL               string `json:"url" validate:"required,url"`
	Kind              string `json:"kind" validate:"omitempty,oneof=audio video Audio Video"`
	Quality           string `json:"quality" validate:"omitempty,oneof=Best 1080p 720p 480p"`
	Language          string `json:"language" validate:"omitempty,min=2,max=16"`
	Model             string `json:"model" validate:"omitempty,oneof=tiny base small medium large turbo"`
	KeepIntermediates *bool  `json:"keepIntermediates,omitempty"`
}

// RunResponse acknowledges a started run.
type RunResponse struct {
	RunID string `json:"runId"`
	State string `json:"state"`
}

// RunSnapshot describes the active or most recent run.
type RunSnapshot struct {
	RunID     string         `json:"runId"`
	URL       string         `json:"url"`
	Kind      string         `json:"kind"`
	State     string         `json:"state"`
	Stage     string         `json:"stage,omitempty"`
	Percent   int            `json:"percent"`
	Detail    string         `json:"detail,omitempty"`
	StartedAt string         `json:"startedAt"`
	EndedAt   string         `json:"endedAt,omitempty"`
	Result    *events.Result `json:"result,omitempty"`
}

// HistoryItem is one ledger record.
type HistoryItem struct {
	ID          int64  `json:"id"`
	RunID       string `json:"runId,omitempty"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	ProcessType string `json:"processType"`
	Quality     string `json:"quality"`
	FinalPath   string `json:"finalPath,omitempty"`
	ProcessDate string `json:"processDate"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
}

// HistoryResponse wraps history listings.
type HistoryResponse struct {
	Items []HistoryItem `json:"items"`
}

// ClearResponse reports how many records were removed.
type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}

// EventsResponse is one long-poll page from the hub.
type EventsResponse struct {
	Events []events.Event `json:"events"`
	Next   uint64         `json:"next"`
}

// HealthResponse aggregates readiness.
type HealthResponse struct {
	Ready        bool               `json:"ready"`
	Running      bool               `json:"running"`
	LedgerPath   string             `json:"ledgerPath,omitempty"`
	LedgerError  string             `json:"ledgerError,omitempty"`
	Dependencies []deps.Status      `json:"dependencies"`
	Checks       []preflight.Result `json:"checks"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine code, a message and optional field details.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// FromRecord converts a ledger record to its transport form.
func FromRecord(rec ledger.Record) HistoryItem {
	item := HistoryItem{
		ID:          rec.ID,
		RunID:       rec.RunID,
		Title:       rec.Title,
		URL:         rec.URL,
		ProcessType: rec.ProcessType,
		Quality:     rec.Quality,
		FinalPath:   rec.FinalPath,
		Status:      rec.Status,
		Message:     rec.Message,
	}
	if !rec.ProcessDate.IsZero() {
		item.ProcessDate = rec.ProcessDate.UTC().Format(dateTimeFormat)
	}
	return item
}
