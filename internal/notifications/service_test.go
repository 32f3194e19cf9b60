package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kirkezz/parkour-analyzer/internal/config"
	"github.com/Kirkezz/parkour-analyzer/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyWatchStarted(context.Background(), "session-1"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop test notification to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "watch started",
			notify: func(svc notifications.Service) error {
				return svc.NotifyWatchStarted(context.Background(), "abc123")
			},
			expectTitle:   "Parkour - Started",
			expectMessage: "🏃 Watch engine started (session abc123)",
			expectTags:    "parkour,watch,started",
		},
		{
			name: "watch stopped",
			notify: func(svc notifications.Service) error {
				return svc.NotifyWatchStopped(context.Background(), "abc123", 90*time.Second)
			},
			expectTitle:   "Parkour - Stopped",
			expectMessage: "Watch engine stopped after 1m30s (session abc123)",
			expectTags:    "parkour,watch,stopped",
		},
		{
			name: "log located",
			notify: func(svc notifications.Service) error {
				return svc.NotifyLogLocated(context.Background(), "/home/player/.minecraft/logs/latest.log")
			},
			expectTitle:   "Parkour - Log Located",
			expectMessage: "📜 Tracking log: /home/player/.minecraft/logs/latest.log",
			expectTags:    "parkour,watch,located",
		},
		{
			name: "watch failed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyWatchFailed(context.Background(), errors.New("inotify exhausted"), "watcher setup")
			},
			expectTitle:    "Parkour - Watch Failed",
			expectMessage:  "❌ Watch failed during watcher setup: inotify exhausted",
			expectTags:     "parkour,error,alert",
			expectPriority: "high",
		},
		{
			name: "test notification",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Parkour - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "parkour,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				path     string
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.path = r.URL.Path
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = "parkour-alerts"
			cfg.Notifications.NtfyServer = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.path != "/parkour-alerts" {
				t.Fatalf("expected topic path, got %q", captured.path)
			}
			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsCategoryToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed notification: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "parkour-alerts"
	cfg.Notifications.NtfyServer = server.URL
	cfg.Notifications.Lifecycle = false
	cfg.Notifications.WatchErrors = false

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyWatchStarted(context.Background(), "s"); err != nil {
		t.Fatalf("suppressed lifecycle notification errored: %v", err)
	}
	if err := svc.NotifyWatchStopped(context.Background(), "s", time.Minute); err != nil {
		t.Fatalf("suppressed lifecycle notification errored: %v", err)
	}
	if err := svc.NotifyLogLocated(context.Background(), "/p"); err != nil {
		t.Fatalf("suppressed lifecycle notification errored: %v", err)
	}
	if err := svc.NotifyWatchFailed(context.Background(), errors.New("x"), "arm"); err != nil {
		t.Fatalf("suppressed error notification errored: %v", err)
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "parkour-alerts"
	cfg.Notifications.NtfyServer = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
