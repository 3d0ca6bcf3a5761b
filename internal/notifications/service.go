package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"vidsub/internal/config"
	"vidsub/internal/events"
)

const userAgent = "vidsub/0.1.0"

// Summary describes a finished run.
type Summary struct {
	Title     string
	Kind      string
	Status    events.Status
	Message   string
	FinalPath string
}

// Service defines the notification surface used by the pipeline.
type Service interface {
	NotifyRunFinished(ctx context.Context, summary Summary) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.OnSuccess,
		onFailure: cfg.Notifications.OnFailure,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
	onFailure bool
}

func (n *ntfyService) NotifyRunFinished(ctx context.Context, summary Summary) error {
	title := strings.TrimSpace(summary.Title)
	if title == "" {
		title = "untitled"
	}
	kind := strings.ToLower(strings.TrimSpace(summary.Kind))

	var data payload
	switch summary.Status {
	case events.StatusCompleted:
		if !n.onSuccess {
			return nil
		}
		message := fmt.Sprintf("✅ Ready: %s", title)
		if summary.FinalPath != "" {
			message = fmt.Sprintf("%s\nFile: %s", message, filepath.Base(summary.FinalPath))
		}
		data = payload{
			title:   "vidsub - Complete",
			message: message,
			tags:    []string{"vidsub", kind, "completed"},
		}
	case events.StatusCancelled:
		if !n.onFailure {
			return nil
		}
		data = payload{
			title:   "vidsub - Cancelled",
			message: fmt.Sprintf("Cancelled: %s", title),
			tags:    []string{"vidsub", kind, "cancelled"},
		}
	default:
		if !n.onFailure {
			return nil
		}
		detail := strings.TrimSpace(summary.Message)
		if detail == "" {
			detail = "unknown error"
		}
		data = payload{
			title:    "vidsub - Failed",
			message:  fmt.Sprintf("❌ %s: %s", title, detail),
			tags:     []string{"vidsub", kind, "error"},
			priority: "high",
		}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "vidsub - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"vidsub", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if tags := compactTags(data.tags); tags != "" {
		req.Header.Set("Tags", tags)
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func compactTags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return strings.Join(out, ",")
}

type noopService struct{}

func (noopService) NotifyRunFinished(context.Context, Summary) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
