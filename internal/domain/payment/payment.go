// Package payment answers whether a partner-gated report has been paid for.
// Gateway protocol and payment creation live elsewhere.
package payment

import (
	"context"
	"fmt"

	"github.com/ehr/healthreport/internal/platform/db"
)

// Status values of the payment table.
const (
	StatusInitiated = "initiated"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

// Checker reports whether a completed payment exists for the triple.
type Checker interface {
	HasCompletedPayment(ctx context.Context, identityID, facilityID, partnerID string) (bool, error)
}

type checkerPG struct{ q db.Queryable }

func NewCheckerPG(q db.Queryable) Checker {
	return &checkerPG{q: q}
}

func (c *checkerPG) HasCompletedPayment(ctx context.Context, identityID, facilityID, partnerID string) (bool, error) {
	var ok bool
	err := c.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payment
			WHERE identity_id = $1 AND facility_id = $2 AND partner_id = $3 AND status = $4
		)`, identityID, facilityID, partnerID, StatusCompleted).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check payment: %w", err)
	}
	return ok, nil
}
