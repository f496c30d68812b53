package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"dubber/internal/config"
	"dubber/internal/services"
)

const userAgent = "dubber/1.0"

// RunSummary describes a finished dubbing run.
type RunSummary struct {
	InputPath  string
	OutputPath string
	TargetLang string
	Segments   int
	Elapsed    time.Duration
}

// Service publishes run events.
type Service interface {
	NotifyDubCompleted(ctx context.Context, summary RunSummary) error
	NotifyDubFailed(ctx context.Context, inputPath string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService returns an ntfy-backed service, or a no-op one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
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
}

func (n *ntfyService) NotifyDubCompleted(ctx context.Context, summary RunSummary) error {
	message := fmt.Sprintf("Dubbed %s into %s: %d segments in %s\n%s",
		filepath.Base(summary.InputPath),
		summary.TargetLang,
		summary.Segments,
		summary.Elapsed.Round(time.Second),
		summary.OutputPath,
	)
	return n.send(ctx, payload{
		title:   "dubber - Complete",
		message: message,
		tags:    []string{"dubber", "completed"},
	})
}

func (n *ntfyService) NotifyDubFailed(ctx context.Context, inputPath string, err error) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Dubbing failed: %s", filepath.Base(inputPath))
	if err != nil {
		fmt.Fprintf(&builder, "\n%v", err)
	}
	return n.send(ctx, payload{
		title:    "dubber - Failed",
		message:  builder.String(),
		tags:     []string{"dubber", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "dubber - Test",
		message:  "Notification system test",
		tags:     []string{"dubber", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "notify", "build request", n.endpoint, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, "notify", "send", "ntfy request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrTransport, "notify", "send",
			fmt.Sprintf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDubCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyDubFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }
