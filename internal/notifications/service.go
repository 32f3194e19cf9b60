package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Kirkezz/parkour-analyzer/internal/config"
)

const userAgent = "Parkour-Go/0.1.0"

// Service defines the notification surface exposed to the daemon lifecycle
// and the watch engine.
type Service interface {
	NotifyWatchStarted(ctx context.Context, sessionID string) error
	NotifyWatchStopped(ctx context.Context, sessionID string, uptime time.Duration) error
	NotifyLogLocated(ctx context.Context, path string) error
	NotifyWatchFailed(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	server := strings.TrimRight(strings.TrimSpace(cfg.Notifications.NtfyServer), "/")
	if server == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    server + "/" + url.PathEscape(topic),
		client:      &http.Client{Timeout: timeout},
		lifecycle:   cfg.Notifications.Lifecycle,
		watchErrors: cfg.Notifications.WatchErrors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	lifecycle   bool
	watchErrors bool
}

func (n *ntfyService) NotifyWatchStarted(ctx context.Context, sessionID string) error {
	if !n.lifecycle {
		return nil
	}
	sessionID = strings.TrimSpace(sessionID)
	message := "🏃 Watch engine started"
	if sessionID != "" {
		message = fmt.Sprintf("%s (session %s)", message, sessionID)
	}
	data := payload{
		title:   "Parkour - Started",
		message: message,
		tags:    []string{"parkour", "watch", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyWatchStopped(ctx context.Context, sessionID string, uptime time.Duration) error {
	if !n.lifecycle {
		return nil
	}
	uptime = uptime.Round(time.Second)
	if uptime < 0 {
		uptime = 0
	}
	uptimeText := uptime.String()
	if uptime == 0 {
		uptimeText = "0s"
	}
	sessionID = strings.TrimSpace(sessionID)
	message := fmt.Sprintf("Watch engine stopped after %s", uptimeText)
	if sessionID != "" {
		message = fmt.Sprintf("%s (session %s)", message, sessionID)
	}
	data := payload{
		title:   "Parkour - Stopped",
		message: message,
		tags:    []string{"parkour", "watch", "stopped"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyLogLocated(ctx context.Context, path string) error {
	if !n.lifecycle {
		return nil
	}
	path = strings.TrimSpace(path)
	data := payload{
		title:   "Parkour - Log Located",
		message: fmt.Sprintf("📜 Tracking log: %s", path),
		tags:    []string{"parkour", "watch", "located"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyWatchFailed(ctx context.Context, err error, contextLabel string) error {
	if !n.watchErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Watch failed")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Parkour - Watch Failed",
		message:  builder.String(),
		tags:     []string{"parkour", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Parkour - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"parkour", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
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

type noopService struct{}

func (noopService) NotifyWatchStarted(context.Context, string) error                { return nil }
func (noopService) NotifyWatchStopped(context.Context, string, time.Duration) error { return nil }
func (noopService) NotifyLogLocated(context.Context, string) error                  { return nil }
func (noopService) NotifyWatchFailed(context.Context, error, string) error          { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
