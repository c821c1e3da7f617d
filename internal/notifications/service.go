package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tankobon/internal/config"
	"tankobon/internal/metadata"
)

const userAgent = "tankobon/0.1.0"

// Service defines the notification surface used by the resolver and daemon.
type Service interface {
	NotifyResolved(ctx context.Context, seriesID, title string, providers []metadata.ProviderID) error
	NotifyFailed(ctx context.Context, seriesID, message string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		resolved: cfg.Notifications.Resolved,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	resolved bool
	errors   bool
}

func (n *ntfyService) NotifyResolved(ctx context.Context, seriesID, title string, providers []metadata.ProviderID) error {
	if !n.resolved {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = seriesID
	}
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, string(p))
	}
	message := "📚 Resolved: " + title
	if len(names) > 0 {
		message += "\nSources: " + strings.Join(names, ", ")
	}
	return n.send(ctx, payload{
		title:   "tankobon - Resolved",
		message: message,
		tags:    []string{"tankobon", "resolved"},
	})
}

func (n *ntfyService) NotifyFailed(ctx context.Context, seriesID, message string) error {
	if !n.errors {
		return nil
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown error"
	}
	return n.send(ctx, payload{
		title:    "tankobon - Resolution Failed",
		message:  fmt.Sprintf("❌ Series %s: %s", seriesID, message),
		tags:     []string{"tankobon", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "tankobon - Error",
		message:  builder.String(),
		tags:     []string{"tankobon", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "tankobon - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"tankobon", "test"},
		priority: "low",
	})
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

func (noopService) NotifyResolved(context.Context, string, string, []metadata.ProviderID) error {
	return nil
}
func (noopService) NotifyFailed(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error   { return nil }
func (noopService) TestNotification(context.Context) error             { return nil }
