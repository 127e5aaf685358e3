package healthdata

import (
	"context"
	"time"
)

// Counter is the read contract every provenance store exposes: how many
// records exist for the pair and when the newest one was updated. lastUpdated
// is nil when count is zero.
type Counter interface {
	CountAndLastUpdated(ctx context.Context, identityID, facilityID string) (count int, lastUpdated *time.Time, err error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(ctx context.Context, identityID, facilityID string) (int, *time.Time, error)

func (f CounterFunc) CountAndLastUpdated(ctx context.Context, identityID, facilityID string) (int, *time.Time, error) {
	return f(ctx, identityID, facilityID)
}
