package config

const (
	defaultWorkspaceDir      = "~/.local/share/mailvet"
	defaultLogDir            = "~/.local/share/mailvet/logs"
	defaultSourceKind        = "csv"
	defaultMinDate           = "1980-01-01"
	defaultMaxFutureHours    = 24
	defaultDegradedThreshold = 1
	defaultMaxThreadParts    = 25
	defaultMinForwardShare   = 0.01
	defaultDateDefectRate    = 0.05
	defaultAlertTimeout      = 10
	defaultKeepRuns          = 90
	defaultLogFormat         = "auto"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30

	// defaultAddressPattern matches a single bare email address.
	defaultAddressPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	// defaultAddressListPattern matches one or more comma-separated addresses.
	defaultAddressListPattern = `^(?:[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})(?:,\s*[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})*$`
	// defaultActionPattern flags bodies that ask the reader to do something.
	defaultActionPattern = `(?i)\b(meeting|please|need|action|do|send|review|urgent|asap|respond|confirm|follow-up|complete|check)\b`
)

// DefaultRules returns the baseline expectation suite. Thresholds follow the
// corpus profile this pipeline was tuned on; declaration order is meaningful
// and determines report ordering.
func DefaultRules() []Rule {
	return []Rule{
		{Field: "id", Kind: "not_null", Threshold: 1.0, Critical: true},
		{Field: "id", Kind: "unique", Critical: true},
		{Field: "body", Kind: "not_null", Threshold: 1.0, Critical: true},
		{Field: "sender", Kind: "not_null", Threshold: 1.0},
		{Field: "sent_at", Kind: "not_null", Threshold: 0.95},
		{Field: "subject", Kind: "not_null", Threshold: 0.95},
		{Field: "recipients", Kind: "not_null", Threshold: 0.95},
		{Field: "sender", Kind: "matches_pattern", Threshold: 0.95, Pattern: defaultAddressPattern},
		{Field: "recipients", Kind: "matches_pattern", Threshold: 0.95, Pattern: defaultAddressListPattern},
		{Field: "email_type", Kind: "allowed_values", Threshold: 1.0, Values: []string{"original", "reply", "forward"}},
		{Name: "body_action_phrases", Field: "body", Kind: "matches_pattern", Threshold: 0.50, Pattern: defaultActionPattern},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
		},
		Source: Source{
			Kind: defaultSourceKind,
		},
		Normalize: Normalize{
			MinDate:        defaultMinDate,
			MaxFutureHours: defaultMaxFutureHours,
		},
		Expectations: Expectations{
			Rules: DefaultRules(),
		},
		Detector: Detector{
			DegradedThreshold: defaultDegradedThreshold,
			MaxThreadParts:    defaultMaxThreadParts,
			MinForwardShare:   defaultMinForwardShare,
			DateDefectRate:    defaultDateDefectRate,
		},
		Alerts: Alerts{
			RequestTimeout: defaultAlertTimeout,
		},
		Storage: Storage{
			Enabled:  true,
			KeepRuns: defaultKeepRuns,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
