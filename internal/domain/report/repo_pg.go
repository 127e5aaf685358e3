package report

import (
	"context"
	"fmt"

	"github.com/ehr/healthreport/internal/platform/db"
)

type repoPG struct{ q db.Queryable }

func NewRepoPG(q db.Queryable) Repository {
	return &repoPG{q: q}
}

func (r *repoPG) Latest(ctx context.Context, identityID, facilityID string) (*Report, error) {
	var rep Report
	err := r.q.QueryRow(ctx, `
		SELECT id, identity_id, facility_id, generated_at, reference, provider
		FROM analytics_report
		WHERE identity_id = $1 AND facility_id = $2
		ORDER BY generated_at DESC
		LIMIT 1`, identityID, facilityID).
		Scan(&rep.ID, &rep.IdentityID, &rep.FacilityID, &rep.GeneratedAt, &rep.Reference, &rep.Provider)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest report: %w", err)
	}
	return &rep, nil
}
