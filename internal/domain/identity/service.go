package identity

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/healthreport/internal/platform/apperr"
	"github.com/ehr/healthreport/internal/platform/metrics"
)

// Reconciler links the external CRM's composite-keyed patients to internal
// identities and keeps the ledger of unregistered partner/facility pairs.
// It never picks "the" match for the caller.
type Reconciler struct {
	external ExternalPatientStore
	pending  PendingRegistrationRepository
	now      func() time.Time
	logger   zerolog.Logger
}

func NewReconciler(external ExternalPatientStore, pending PendingRegistrationRepository, logger zerolog.Logger) *Reconciler {
	return &Reconciler{external: external, pending: pending, now: time.Now, logger: logger}
}

// FindExternalMatches returns every record whose composite key matches
// exactly, most recent first. No match is an empty list, not an error.
func (r *Reconciler) FindExternalMatches(ctx context.Context, phone, birthDate, name string) ([]*ExternalPatientRecord, error) {
	phone = strings.TrimSpace(phone)
	name = strings.TrimSpace(name)
	if phone == "" {
		return nil, apperr.Invalid("phone is required")
	}
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	dob, err := ParseBirthDate(birthDate)
	if err != nil {
		return nil, err
	}

	matches, err := r.external.MatchByCompositeKey(ctx, phone, dob, name)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []*ExternalPatientRecord{}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].recency().After(matches[j].recency())
	})
	return matches, nil
}

// RecordPendingObservation notes that the pair was used in live traffic
// while absent from partner configuration. The status is never touched.
func (r *Reconciler) RecordPendingObservation(ctx context.Context, partnerID, facilityID string) (*PendingRegistration, error) {
	partnerID = strings.TrimSpace(partnerID)
	facilityID = strings.TrimSpace(facilityID)
	if partnerID == "" || facilityID == "" {
		return nil, apperr.Invalid("partner_id and facility_id are required")
	}

	p, err := r.pending.Upsert(ctx, partnerID, facilityID, r.now().UTC())
	if err != nil {
		return nil, err
	}
	metrics.IncPendingObservation()
	ev := r.logger.Debug()
	if p.RequestCount == 1 {
		ev = r.logger.Info()
	}
	ev.Str("partner_id", partnerID).Str("facility_id", facilityID).
		Int("request_count", p.RequestCount).Msg("pending registration observed")
	return p, nil
}

// ListPending returns the ledger, optionally filtered by status.
func (r *Reconciler) ListPending(ctx context.Context, status PendingStatus, limit, offset int) ([]*PendingRegistration, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Invalid("unknown status %q", status)
	}
	return r.pending.List(ctx, status, limit, offset)
}
