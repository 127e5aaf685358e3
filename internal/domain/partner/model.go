package partner

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Config maps to the partner_config table. It is maintained by
// administrative tooling and read-only to this service.
type Config struct {
	PartnerID         string    `db:"partner_id" json:"partner_id"`
	APIKeyHash        string    `db:"api_key_hash" json:"-"`
	RequiresPayment   bool      `db:"requires_payment" json:"requires_payment"`
	DefaultFacilityID string    `db:"default_facility_id" json:"default_facility_id"`
	Facilities        []string  `db:"facilities" json:"facilities,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ServesFacility reports whether the partner is provisioned for facilityID.
// The default facility is always provisioned.
func (c *Config) ServesFacility(facilityID string) bool {
	if facilityID == "" {
		return false
	}
	if facilityID == c.DefaultFacilityID {
		return true
	}
	for _, f := range c.Facilities {
		if f == facilityID {
			return true
		}
	}
	return false
}

// HashAPIKey returns the hex SHA-256 digest stored in place of the raw key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
