package report

import (
	"time"

	"github.com/google/uuid"
)

// Report is a previously generated analytics artifact. Rows are written by
// the generation pipeline and are read-only here; expiry is computed, never
// stored.
type Report struct {
	ID          uuid.UUID `db:"id" json:"id"`
	IdentityID  string    `db:"identity_id" json:"identity_id"`
	FacilityID  string    `db:"facility_id" json:"facility_id"`
	GeneratedAt time.Time `db:"generated_at" json:"generated_at"`
	Reference   string    `db:"reference" json:"reference"`
	Provider    string    `db:"provider" json:"provider,omitempty"`
}
