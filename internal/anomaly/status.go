package anomaly

import "strings"

// Status is the corpus health verdict for one run.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusFailing  Status = "failing"
)

var allStatuses = []Status{
	StatusHealthy,
	StatusDegraded,
	StatusFailing,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Statuses returns every verdict status in severity order.
func Statuses() []Status {
	statuses := make([]Status, len(allStatuses))
	copy(statuses, allStatuses)
	return statuses
}

// ParseStatus normalizes a raw status string and reports whether it is known.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}
