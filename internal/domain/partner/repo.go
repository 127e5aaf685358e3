package partner

import "context"

// Repository looks up partner configuration. Both methods return nil, nil
// when nothing matches.
type Repository interface {
	ByAPIKey(ctx context.Context, rawKey string) (*Config, error)
	ByID(ctx context.Context, partnerID string) (*Config, error)
}
