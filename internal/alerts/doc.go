// Package alerts delivers corpus verdicts to an ntfy topic.
//
// The Service interface hides the transport from the pipeline; NewService
// returns a noop implementation when no topic is configured, so callers never
// branch on alerting being enabled. The Dispatcher owns the policy: only
// degraded and failing verdicts leave the process, delivery runs under a
// short timeout, and failures are logged and swallowed. Alerting never
// changes a verdict, a stored run, or the process exit code.
package alerts
