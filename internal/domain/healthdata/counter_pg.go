package healthdata

import (
	"context"
	"fmt"
	"time"

	"github.com/ehr/healthreport/internal/platform/db"
)

// brokerCounterPG counts verified checkup and prescription records supplied
// by the broker. Both record types contribute to one snapshot.
type brokerCounterPG struct{ q db.Queryable }

func NewBrokerCounterPG(q db.Queryable) Counter {
	return &brokerCounterPG{q: q}
}

func (c *brokerCounterPG) CountAndLastUpdated(ctx context.Context, identityID, facilityID string) (int, *time.Time, error) {
	var count int
	var last *time.Time
	err := c.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(n), 0)::int, MAX(last_updated) FROM (
			SELECT COUNT(*) AS n, MAX(updated_at) AS last_updated
			FROM broker_checkup WHERE identity_id = $1 AND facility_id = $2
			UNION ALL
			SELECT COUNT(*), MAX(updated_at)
			FROM broker_prescription WHERE identity_id = $1 AND facility_id = $2
		) t`, identityID, facilityID).Scan(&count, &last)
	if err != nil {
		return 0, nil, fmt.Errorf("count broker records: %w", err)
	}
	return count, last, nil
}

// tableCounterPG counts rows of a single provenance table. table and
// tsColumn are compile-time constants, never caller input.
type tableCounterPG struct {
	q        db.Queryable
	table    string
	tsColumn string
}

// NewLocalCacheCounterPG counts records written by the client-side import flow.
func NewLocalCacheCounterPG(q db.Queryable) Counter {
	return &tableCounterPG{q: q, table: "local_sync_record", tsColumn: "synced_at"}
}

// NewPartnerPayloadCounterPG counts payloads pushed directly by partners.
func NewPartnerPayloadCounterPG(q db.Queryable) Counter {
	return &tableCounterPG{q: q, table: "partner_payload", tsColumn: "received_at"}
}

func (c *tableCounterPG) CountAndLastUpdated(ctx context.Context, identityID, facilityID string) (int, *time.Time, error) {
	var count int
	var last *time.Time
	query := fmt.Sprintf(`SELECT COUNT(*)::int, MAX(%s) FROM %s WHERE identity_id = $1 AND facility_id = $2`,
		c.tsColumn, c.table)
	if err := c.q.QueryRow(ctx, query, identityID, facilityID).Scan(&count, &last); err != nil {
		return 0, nil, fmt.Errorf("count %s: %w", c.table, err)
	}
	return count, last, nil
}
