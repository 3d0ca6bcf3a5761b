package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"vidsub/internal/config"
	"vidsub/internal/events"
	"vidsub/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunFinished(context.Background(), notifications.Summary{Title: "x", Status: events.StatusCompleted}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		summary        notifications.Summary
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "completed",
			summary:       notifications.Summary{Title: "Demo Clip", Kind: "Video", Status: events.StatusCompleted, FinalPath: "/out/Demo Clip_translated.mp4"},
			expectTitle:   "vidsub - Complete",
			expectMessage: "✅ Ready: Demo Clip\nFile: Demo Clip_translated.mp4",
			expectTags:    "vidsub,video,completed",
		},
		{
			name:          "cancelled",
			summary:       notifications.Summary{Title: "Demo Clip", Kind: "Audio", Status: events.StatusCancelled},
			expectTitle:   "vidsub - Cancelled",
			expectMessage: "Cancelled: Demo Clip",
			expectTags:    "vidsub,audio,cancelled",
		},
		{
			name:           "failed",
			summary:        notifications.Summary{Title: "Demo Clip", Kind: "Video", Status: events.StatusFailed, Message: "Whisper failed with exit code 1"},
			expectTitle:    "vidsub - Failed",
			expectMessage:  "❌ Demo Clip: Whisper failed with exit code 1",
			expectTags:     "vidsub,video,error",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var title, tags, priority, body string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				data, _ := io.ReadAll(r.Body)
				title = r.Header.Get("Title")
				tags = r.Header.Get("Tags")
				priority = r.Header.Get("Priority")
				body = string(data)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(&cfg)
			if err := svc.NotifyRunFinished(context.Background(), tc.summary); err != nil {
				t.Fatalf("NotifyRunFinished returned error: %v", err)
			}
			if title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", title, tc.expectTitle)
			}
			if body != tc.expectMessage {
				t.Fatalf("body = %q, want %q", body, tc.expectMessage)
			}
			if tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", tags, tc.expectTags)
			}
			if priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceRespectsToggles(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.OnSuccess = false
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunFinished(context.Background(), notifications.Summary{Title: "x", Status: events.StatusCompleted}); err != nil {
		t.Fatalf("NotifyRunFinished returned error: %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatal("success notification should be suppressed")
	}
}

func TestNtfyServiceReportsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
