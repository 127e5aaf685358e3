package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/healthreport/internal/platform/apperr"
)

// ExternalPatientRecord is one visit-level row of the external CRM system.
// The composite key (phone, birth date, name) is not unique: a patient may
// have one record per yearly visit.
type ExternalPatientRecord struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ExternalID string     `db:"external_id" json:"external_id"`
	Phone      string     `db:"phone" json:"phone"`
	BirthDate  string     `db:"birth_date" json:"birth_date"`
	Name       string     `db:"name" json:"name"`
	FacilityID string     `db:"facility_id" json:"facility_id,omitempty"`
	VisitedAt  *time.Time `db:"visited_at" json:"visited_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// recency is the instant used to order matches.
func (r *ExternalPatientRecord) recency() time.Time {
	if r.VisitedAt != nil {
		return *r.VisitedAt
	}
	return r.CreatedAt
}

// PendingStatus is the administrative state of a pending registration.
type PendingStatus string

const (
	PendingStatusPending  PendingStatus = "pending"
	PendingStatusApproved PendingStatus = "approved"
	PendingStatusRejected PendingStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s PendingStatus) Valid() bool {
	switch s {
	case PendingStatusPending, PendingStatusApproved, PendingStatusRejected:
		return true
	}
	return false
}

// PendingRegistration maps to the pending_registration table. Approval and
// rejection happen in administrative tooling; this service only writes
// pending rows and refreshes them.
type PendingRegistration struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	PartnerID    string        `db:"partner_id" json:"partner_id"`
	FacilityID   string        `db:"facility_id" json:"facility_id"`
	FirstSeenAt  time.Time     `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt   time.Time     `db:"last_seen_at" json:"last_seen_at"`
	RequestCount int           `db:"request_count" json:"request_count"`
	Status       PendingStatus `db:"status" json:"status"`
}

// BirthDateLayout is the normalized form of a birth date.
const BirthDateLayout = "2006-01-02"

var birthDateLayouts = []string{
	BirthDateLayout,
	"20060102",
	"2006/01/02",
	"2006.01.02",
}

// ParseBirthDate accepts the date layouts callers send and rejects anything
// that is not a real calendar date.
func ParseBirthDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("birth_date is required: %w", apperr.ErrInvalidDateFormat)
	}
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("birth_date %q: %w", raw, apperr.ErrInvalidDateFormat)
}
