package partner

import (
	"context"
	"fmt"

	"github.com/ehr/healthreport/internal/platform/apperr"
)

// Registry resolves a partner from an API key or an explicit id. It is
// injected into the status resolver rather than looked up globally.
type Registry struct {
	repo Repository
}

func NewRegistry(repo Repository) *Registry {
	return &Registry{repo: repo}
}

// Resolve returns the partner configuration for apiKey or partnerID. A key
// that resolves always wins over the id, even when both name different
// partners. An unknown key falls through to the id.
func (r *Registry) Resolve(ctx context.Context, apiKey, partnerID string) (*Config, error) {
	if apiKey != "" {
		c, err := r.repo.ByAPIKey(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	if partnerID != "" {
		c, err := r.repo.ByID(ctx, partnerID)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
		return nil, fmt.Errorf("partner %q: %w", partnerID, apperr.ErrConfigNotFound)
	}
	return nil, apperr.ErrConfigNotFound
}
