package report

import "context"

// Repository reads reports. Latest returns nil, nil when the pair has none.
type Repository interface {
	Latest(ctx context.Context, identityID, facilityID string) (*Report, error)
}
