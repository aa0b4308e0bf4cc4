package alerts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mailvet/internal/anomaly"
	"mailvet/internal/config"
	"mailvet/internal/validate"
)

const userAgent = "Mailvet/0.1.0"

// Service defines the alerting surface exposed to the pipeline.
type Service interface {
	// AlertVerdict announces a degraded or failing corpus verdict.
	AlertVerdict(ctx context.Context, verdict anomaly.Verdict, report *validate.Report) error
	// TestAlert sends a low-priority probe so operators can verify the topic.
	TestAlert(ctx context.Context) error
	// Enabled reports whether alerts actually leave the process.
	Enabled() bool
}

// NewService builds an alert service backed by ntfy when configured. When no
// ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Alerts.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Alerts.RequestTimeout) * time.Second
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

var statusTitle = cases.Title(language.English)

func (n *ntfyService) AlertVerdict(ctx context.Context, verdict anomaly.Verdict, report *validate.Report) error {
	message := verdict.Summary
	if report != nil && report.RunID != "" {
		message = fmt.Sprintf("run %s on %s\n%s", report.RunID, report.Source, verdict.Summary)
	}
	data := payload{
		title:   fmt.Sprintf("Mailvet - Corpus %s", statusTitle.String(string(verdict.Status))),
		message: message,
		tags:    []string{"mailvet", "verdict", string(verdict.Status)},
	}
	if verdict.Status == anomaly.StatusFailing {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestAlert(ctx context.Context) error {
	data := payload{
		title:    "Mailvet - Test",
		message:  "Alert channel test",
		tags:     []string{"mailvet", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) Enabled() bool { return true }

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
		return fmt.Errorf("send ntfy alert: %w", err)
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

func (noopService) AlertVerdict(context.Context, anomaly.Verdict, *validate.Report) error { return nil }

func (noopService) TestAlert(context.Context) error { return nil }

func (noopService) Enabled() bool { return false }
