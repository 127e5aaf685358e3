package report

import "time"

// DefaultValidity is how long a generated report stays valid.
const DefaultValidity = 7 * 24 * time.Hour

// ExpiryPolicy decides whether a report is still valid. A report generated
// exactly Window ago is still valid.
type ExpiryPolicy struct {
	Window time.Duration
}

// NewExpiryPolicy returns a policy with window, or DefaultValidity when
// window is not positive.
func NewExpiryPolicy(window time.Duration) ExpiryPolicy {
	if window <= 0 {
		window = DefaultValidity
	}
	return ExpiryPolicy{Window: window}
}

// Expired reports whether a report generated at generatedAt has expired at now.
func (p ExpiryPolicy) Expired(generatedAt, now time.Time) bool {
	return now.Sub(generatedAt) > p.Window
}

// ExpiresAt returns the last instant at which the report is valid.
func (p ExpiryPolicy) ExpiresAt(generatedAt time.Time) time.Time {
	return generatedAt.Add(p.Window)
}
