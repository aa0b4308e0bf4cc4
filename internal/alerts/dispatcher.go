package alerts

import (
	"context"
	"log/slog"
	"time"

	"mailvet/internal/anomaly"
	"mailvet/internal/config"
	"mailvet/internal/logging"
	"mailvet/internal/validate"
)

// Dispatcher decides when a verdict warrants an alert and hands it to the
// transport. Alerting is fire-and-forget: delivery failures are logged and
// swallowed, and the run outcome never depends on them.
type Dispatcher struct {
	service Service
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher wires the alert policy to a transport.
func NewDispatcher(service Service, cfg *config.Config, logger *slog.Logger) *Dispatcher {
	timeout := time.Duration(cfg.Alerts.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		service: service,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "alerts"),
	}
}

// Dispatch sends an alert for degraded and failing verdicts. The call runs
// under the configured timeout so a slow transport cannot stall the run. The
// return value reports whether the transport accepted an alert.
func (d *Dispatcher) Dispatch(ctx context.Context, verdict anomaly.Verdict, report *validate.Report) bool {
	if verdict.Status == anomaly.StatusHealthy {
		return false
	}
	if d.service == nil || !d.service.Enabled() {
		d.logger.Debug("alerting not configured, skipping",
			logging.String("status", string(verdict.Status)),
		)
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.service.AlertVerdict(sendCtx, verdict, report); err != nil {
		d.logger.Warn("alert delivery failed",
			logging.String("status", string(verdict.Status)),
			logging.Error(err),
		)
		return false
	}
	d.logger.Info("alert dispatched",
		logging.String("status", string(verdict.Status)),
		logging.Int("triggered_rules", len(verdict.TriggeredRules)),
	)
	return true
}
