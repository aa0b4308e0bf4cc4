package alerts_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"mailvet/internal/alerts"
	"mailvet/internal/anomaly"
	"mailvet/internal/config"
	"mailvet/internal/validate"
)

type capturedRequest struct {
	title    string
	priority string
	tags     string
	body     string
}

type captureServer struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	server   *httptest.Server
}

func newCaptureServer(t *testing.T) *captureServer {
	t.Helper()
	cs := &captureServer{status: http.StatusOK}
	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		cs.mu.Lock()
		cs.requests = append(cs.requests, capturedRequest{
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			tags:     r.Header.Get("Tags"),
			body:     string(body),
		})
		status := cs.status
		cs.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(cs.server.Close)
	return cs
}

func (cs *captureServer) fail(status int) {
	cs.mu.Lock()
	cs.status = status
	cs.mu.Unlock()
}

func (cs *captureServer) captured() []capturedRequest {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]capturedRequest, len(cs.requests))
	copy(out, cs.requests)
	return out
}

func serviceFor(t *testing.T, topic string) alerts.Service {
	t.Helper()
	cfg := config.Default()
	cfg.Alerts.NtfyTopic = topic
	cfg.Alerts.RequestTimeout = 2
	return alerts.NewService(&cfg)
}

func failingVerdict() anomaly.Verdict {
	return anomaly.Verdict{
		Status:         anomaly.StatusFailing,
		TriggeredRules: []string{"id_not_null"},
		Summary:        "corpus failing: 1 of 11 expectations failed",
	}
}

func TestAlertVerdictSendsHighPriorityForFailing(t *testing.T) {
	cs := newCaptureServer(t)
	service := serviceFor(t, cs.server.URL)

	report := &validate.Report{RunID: "run-42", Source: "enron.csv"}
	if err := service.AlertVerdict(context.Background(), failingVerdict(), report); err != nil {
		t.Fatalf("AlertVerdict failed: %v", err)
	}

	requests := cs.captured()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	got := requests[0]
	if got.title != "Mailvet - Corpus Failing" {
		t.Fatalf("unexpected title: %q", got.title)
	}
	if got.priority != "high" {
		t.Fatalf("expected high priority, got %q", got.priority)
	}
	if !strings.Contains(got.tags, "mailvet") || !strings.Contains(got.tags, "failing") {
		t.Fatalf("unexpected tags: %q", got.tags)
	}
	if !strings.Contains(got.body, "run run-42 on enron.csv") {
		t.Fatalf("expected run context in body: %q", got.body)
	}
	if !strings.Contains(got.body, "corpus failing") {
		t.Fatalf("expected summary in body: %q", got.body)
	}
}

func TestAlertVerdictDefaultPriorityForDegraded(t *testing.T) {
	cs := newCaptureServer(t)
	service := serviceFor(t, cs.server.URL)

	verdict := anomaly.Verdict{Status: anomaly.StatusDegraded, Summary: "corpus degraded"}
	if err := service.AlertVerdict(context.Background(), verdict, &validate.Report{}); err != nil {
		t.Fatalf("AlertVerdict failed: %v", err)
	}

	requests := cs.captured()
	if requests[0].priority != "" {
		t.Fatalf("degraded alerts must use default priority, got %q", requests[0].priority)
	}
	if requests[0].title != "Mailvet - Corpus Degraded" {
		t.Fatalf("unexpected title: %q", requests[0].title)
	}
}

func TestAlertVerdictReportsServerErrors(t *testing.T) {
	cs := newCaptureServer(t)
	cs.fail(http.StatusBadGateway)
	service := serviceFor(t, cs.server.URL)

	err := service.AlertVerdict(context.Background(), failingVerdict(), &validate.Report{})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status code in error, got %v", err)
	}
}

func TestTestAlertUsesLowPriority(t *testing.T) {
	cs := newCaptureServer(t)
	service := serviceFor(t, cs.server.URL)

	if err := service.TestAlert(context.Background()); err != nil {
		t.Fatalf("TestAlert failed: %v", err)
	}
	requests := cs.captured()
	if requests[0].priority != "low" {
		t.Fatalf("expected low priority, got %q", requests[0].priority)
	}
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	service := serviceFor(t, "")
	if service.Enabled() {
		t.Fatal("expected disabled service without topic")
	}
	if err := service.AlertVerdict(context.Background(), failingVerdict(), nil); err != nil {
		t.Fatalf("noop service must not error: %v", err)
	}
	if err := service.TestAlert(context.Background()); err != nil {
		t.Fatalf("noop service must not error: %v", err)
	}
}
