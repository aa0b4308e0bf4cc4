package alerts_test

import (
	"context"
	"testing"

	"mailvet/internal/alerts"
	"mailvet/internal/anomaly"
	"mailvet/internal/config"
	"mailvet/internal/logging"
	"mailvet/internal/validate"
)

func newDispatcher(t *testing.T, service alerts.Service) *alerts.Dispatcher {
	t.Helper()
	cfg := config.Default()
	cfg.Alerts.RequestTimeout = 2
	return alerts.NewDispatcher(service, &cfg, logging.NewNop())
}

func TestDispatchSkipsHealthyVerdicts(t *testing.T) {
	cs := newCaptureServer(t)
	dispatcher := newDispatcher(t, serviceFor(t, cs.server.URL))

	sent := dispatcher.Dispatch(context.Background(), anomaly.Verdict{Status: anomaly.StatusHealthy}, &validate.Report{})
	if sent {
		t.Fatal("healthy verdicts must not alert")
	}
	if len(cs.captured()) != 0 {
		t.Fatal("expected no requests for healthy verdict")
	}
}

func TestDispatchSendsForDegraded(t *testing.T) {
	cs := newCaptureServer(t)
	dispatcher := newDispatcher(t, serviceFor(t, cs.server.URL))

	verdict := anomaly.Verdict{Status: anomaly.StatusDegraded, Summary: "corpus degraded"}
	sent := dispatcher.Dispatch(context.Background(), verdict, &validate.Report{RunID: "run-7"})
	if !sent {
		t.Fatal("expected alert for degraded verdict")
	}
	if len(cs.captured()) != 1 {
		t.Fatalf("expected one request, got %d", len(cs.captured()))
	}
}

func TestDispatchSwallowsDeliveryFailures(t *testing.T) {
	cs := newCaptureServer(t)
	cs.fail(500)
	dispatcher := newDispatcher(t, serviceFor(t, cs.server.URL))

	sent := dispatcher.Dispatch(context.Background(), failingVerdict(), &validate.Report{})
	if sent {
		t.Fatal("failed delivery must report false")
	}
}

func TestDispatchSurvivesUnreachableTransport(t *testing.T) {
	cs := newCaptureServer(t)
	url := cs.server.URL
	cs.server.Close()
	dispatcher := newDispatcher(t, serviceFor(t, url))

	sent := dispatcher.Dispatch(context.Background(), failingVerdict(), &validate.Report{})
	if sent {
		t.Fatal("unreachable transport must report false")
	}
}

func TestDispatchSkipsWhenDisabled(t *testing.T) {
	dispatcher := newDispatcher(t, serviceFor(t, ""))

	sent := dispatcher.Dispatch(context.Background(), failingVerdict(), &validate.Report{})
	if sent {
		t.Fatal("disabled transport must report false")
	}
}
