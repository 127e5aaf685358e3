package identity

import (
	"context"
	"time"
)

// ExternalPatientStore reads the external CRM's patient records.
type ExternalPatientStore interface {
	MatchByCompositeKey(ctx context.Context, phone string, birthDate time.Time, name string) ([]*ExternalPatientRecord, error)
}

// PendingRegistrationRepository is the pending-registration ledger. Upsert
// must be atomic per (partner, facility): insert with count 1 when absent,
// otherwise increment the count and move last_seen_at forward.
type PendingRegistrationRepository interface {
	Upsert(ctx context.Context, partnerID, facilityID string, seenAt time.Time) (*PendingRegistration, error)
	List(ctx context.Context, status PendingStatus, limit, offset int) ([]*PendingRegistration, int, error)
}
