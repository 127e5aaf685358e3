package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/ehr/healthreport/internal/platform/apperr"
)

// ── Mock Repository ──

type mockRepo struct {
	byID    map[string]*Config
	byHash  map[string]*Config
	err     error
	idCalls int
}

func newMockRepo(configs ...*Config) *mockRepo {
	m := &mockRepo{byID: map[string]*Config{}, byHash: map[string]*Config{}}
	for _, c := range configs {
		m.byID[c.PartnerID] = c
		if c.APIKeyHash != "" {
			m.byHash[c.APIKeyHash] = c
		}
	}
	return m
}

func (m *mockRepo) ByAPIKey(_ context.Context, rawKey string) (*Config, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byHash[HashAPIKey(rawKey)], nil
}

func (m *mockRepo) ByID(_ context.Context, partnerID string) (*Config, error) {
	m.idCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.byID[partnerID], nil
}

func testConfigs() (*Config, *Config) {
	a := &Config{PartnerID: "acme", APIKeyHash: HashAPIKey("key-acme"), RequiresPayment: true, DefaultFacilityID: "fac-1", Facilities: []string{"fac-2"}}
	b := &Config{PartnerID: "beta", APIKeyHash: HashAPIKey("key-beta"), DefaultFacilityID: "fac-9"}
	return a, b
}

func TestRegistry_Resolve_KeyWinsOverID(t *testing.T) {
	a, b := testConfigs()
	reg := NewRegistry(newMockRepo(a, b))

	c, err := reg.Resolve(context.Background(), "key-acme", "beta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PartnerID != "acme" {
		t.Errorf("expected key-based partner acme, got %s", c.PartnerID)
	}
}

func TestRegistry_Resolve_UnknownKeyFallsBackToID(t *testing.T) {
	a, b := testConfigs()
	reg := NewRegistry(newMockRepo(a, b))

	c, err := reg.Resolve(context.Background(), "no-such-key", "beta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PartnerID != "beta" {
		t.Errorf("expected beta, got %s", c.PartnerID)
	}
}

func TestRegistry_Resolve_NotFound(t *testing.T) {
	reg := NewRegistry(newMockRepo())

	if _, err := reg.Resolve(context.Background(), "", "ghost"); !errors.Is(err, apperr.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
	if _, err := reg.Resolve(context.Background(), "", ""); !errors.Is(err, apperr.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound for empty lookup, got %v", err)
	}
}

func TestRegistry_Resolve_StoreError(t *testing.T) {
	repo := newMockRepo()
	repo.err = errors.New("connection refused")
	reg := NewRegistry(repo)

	_, err := reg.Resolve(context.Background(), "key", "")
	if err == nil || errors.Is(err, apperr.ErrConfigNotFound) {
		t.Errorf("expected store error to propagate unchanged, got %v", err)
	}
}

func TestConfig_ServesFacility(t *testing.T) {
	a, _ := testConfigs()

	tests := []struct {
		facility string
		want     bool
	}{
		{"fac-1", true},
		{"fac-2", true},
		{"fac-3", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := a.ServesFacility(tt.facility); got != tt.want {
			t.Errorf("ServesFacility(%q) = %v, want %v", tt.facility, got, tt.want)
		}
	}
}

func TestHashAPIKey_Stable(t *testing.T) {
	if HashAPIKey("abc") != HashAPIKey("abc") {
		t.Error("expected stable hash")
	}
	if HashAPIKey("abc") == HashAPIKey("abd") {
		t.Error("expected different hashes for different keys")
	}
	if len(HashAPIKey("abc")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(HashAPIKey("abc")))
	}
}
