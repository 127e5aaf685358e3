package partner

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ehr/healthreport/internal/platform/db"
)

type repoPG struct{ q db.Queryable }

func NewRepoPG(q db.Queryable) Repository {
	return &repoPG{q: q}
}

const configCols = `partner_id, COALESCE(api_key_hash, ''), requires_payment,
	default_facility_id, facilities, created_at, updated_at`

func scanConfig(row pgx.Row) (*Config, error) {
	var c Config
	err := row.Scan(&c.PartnerID, &c.APIKeyHash, &c.RequiresPayment,
		&c.DefaultFacilityID, &c.Facilities, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) ByAPIKey(ctx context.Context, rawKey string) (*Config, error) {
	c, err := scanConfig(r.q.QueryRow(ctx,
		`SELECT `+configCols+` FROM partner_config WHERE api_key_hash = $1`, HashAPIKey(rawKey)))
	if err != nil {
		return nil, fmt.Errorf("partner config by api key: %w", err)
	}
	return c, nil
}

func (r *repoPG) ByID(ctx context.Context, partnerID string) (*Config, error) {
	c, err := scanConfig(r.q.QueryRow(ctx,
		`SELECT `+configCols+` FROM partner_config WHERE partner_id = $1`, partnerID))
	if err != nil {
		return nil, fmt.Errorf("partner config by id: %w", err)
	}
	return c, nil
}
