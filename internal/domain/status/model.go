package status

import (
	"time"

	"github.com/ehr/healthreport/internal/domain/healthdata"
)

// State is the lifecycle state of a (identity, facility) pair.
type State string

const (
	StateReportReady     State = "REPORT_READY"
	StateReportExpired   State = "REPORT_EXPIRED"
	StatePaymentRequired State = "PAYMENT_REQUIRED"
	StateReportPending   State = "REPORT_PENDING"
	StateActionRequired  State = "ACTION_REQUIRED"
)

// Query identifies what to resolve. PartnerID and APIKey are optional; a
// key that resolves wins over the id.
type Query struct {
	IdentityID string
	FacilityID string
	PartnerID  string
	APIKey     string
}

// ReportRef points at the latest report for the pair.
type ReportRef struct {
	Reference   string    `json:"reference"`
	Provider    string    `json:"provider,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UnifiedStatus is computed on every query and never stored.
type UnifiedStatus struct {
	Status          State                `json:"status"`
	IsSufficient    bool                 `json:"is_sufficient"`
	MetricCount     int                  `json:"metric_count"`
	PrimarySource   *healthdata.Source   `json:"primary_source"`
	DataSources     healthdata.Snapshots `json:"data_sources"`
	HasReport       bool                 `json:"has_report"`
	ReportExpired   *bool                `json:"report_expired"`
	Report          *ReportRef           `json:"report,omitempty"`
	RequiresPayment bool                 `json:"requires_payment"`
	HasPayment      bool                 `json:"has_payment"`

	// Resolution context for the transport layer.
	FacilityID string `json:"-"`
	// PartnerID is the resolved partner, or the requested id when it did
	// not resolve.
	PartnerID string `json:"-"`
	// Registered is true when PartnerID resolved and serves FacilityID.
	Registered bool `json:"-"`

	// unprovisioned is set when partner config is known to lack the pair:
	// the partner resolved without serving FacilityID, or PartnerID has no
	// config at all. A partner store failure never sets it.
	unprovisioned bool
}
