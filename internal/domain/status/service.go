package status

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/healthreport/internal/domain/healthdata"
	"github.com/ehr/healthreport/internal/domain/partner"
	"github.com/ehr/healthreport/internal/domain/payment"
	"github.com/ehr/healthreport/internal/domain/report"
	"github.com/ehr/healthreport/internal/platform/apperr"
	"github.com/ehr/healthreport/internal/platform/metrics"
)

// DefaultSufficiencyThreshold is the metric count at which data is enough to
// generate a report.
const DefaultSufficiencyThreshold = 5

// Collector gathers one snapshot per provenance.
type Collector interface {
	Collect(ctx context.Context, identityID, facilityID string) healthdata.Snapshots
}

// PartnerResolver maps an API key or partner id to its configuration.
type PartnerResolver interface {
	Resolve(ctx context.Context, apiKey, partnerID string) (*partner.Config, error)
}

// Options tunes the resolver. Zero values take the defaults.
type Options struct {
	Threshold int
	Expiry    report.ExpiryPolicy
	Now       func() time.Time
}

type Resolver struct {
	sources   Collector
	reports   report.Repository
	partners  PartnerResolver
	payments  payment.Checker
	threshold int
	expiry    report.ExpiryPolicy
	now       func() time.Time
	logger    zerolog.Logger
}

func NewResolver(sources Collector, reports report.Repository, partners PartnerResolver, payments payment.Checker, opts Options, logger zerolog.Logger) *Resolver {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultSufficiencyThreshold
	}
	if opts.Expiry.Window <= 0 {
		opts.Expiry = report.NewExpiryPolicy(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{
		sources:   sources,
		reports:   reports,
		partners:  partners,
		payments:  payments,
		threshold: opts.Threshold,
		expiry:    opts.Expiry,
		now:       opts.Now,
		logger:    logger,
	}
}

// Resolve computes the unified status. It fails only on structurally invalid
// input; every store failure degrades to "no data" for that store.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*UnifiedStatus, error) {
	q.IdentityID = strings.TrimSpace(q.IdentityID)
	q.FacilityID = strings.TrimSpace(q.FacilityID)
	q.PartnerID = strings.TrimSpace(q.PartnerID)
	q.APIKey = strings.TrimSpace(q.APIKey)

	if q.IdentityID == "" {
		return nil, apperr.Invalid("identity_id is required")
	}

	cfg, unknown := r.resolvePartner(ctx, q)
	if q.FacilityID == "" && cfg != nil {
		q.FacilityID = cfg.DefaultFacilityID
	}
	if q.FacilityID == "" {
		return nil, apperr.Invalid("facility_id is required")
	}

	out := &UnifiedStatus{FacilityID: q.FacilityID, PartnerID: q.PartnerID}

	snaps := r.sources.Collect(ctx, q.IdentityID, q.FacilityID)
	out.DataSources = snaps
	out.MetricCount = MetricCount(snaps)
	out.IsSufficient = out.MetricCount >= r.threshold
	out.PrimarySource = PrimarySource(snaps)

	now := r.now()
	if rep := r.latestReport(ctx, q.IdentityID, q.FacilityID); rep != nil {
		expired := r.expiry.Expired(rep.GeneratedAt, now)
		out.HasReport = true
		out.ReportExpired = &expired
		out.Report = &ReportRef{
			Reference:   rep.Reference,
			Provider:    rep.Provider,
			GeneratedAt: rep.GeneratedAt,
			ExpiresAt:   r.expiry.ExpiresAt(rep.GeneratedAt),
		}
	}

	if cfg != nil {
		out.PartnerID = cfg.PartnerID
		out.Registered = cfg.ServesFacility(q.FacilityID)
		out.unprovisioned = !out.Registered
		out.RequiresPayment = cfg.RequiresPayment
		out.HasPayment = r.hasPayment(ctx, q.IdentityID, q.FacilityID, cfg.PartnerID)
	}

	if unknown && q.PartnerID != "" {
		out.unprovisioned = true
	}

	out.Status = SelectState(out.HasReport, out.ReportExpired != nil && *out.ReportExpired,
		out.IsSufficient, out.RequiresPayment, out.HasPayment)
	metrics.IncStatusOutcome(string(out.Status))
	return out, nil
}

// resolvePartner returns the partner config, or nil when none is available.
// unknown is set only when the store confirmed no config exists; a store
// failure leaves it false.
func (r *Resolver) resolvePartner(ctx context.Context, q Query) (cfg *partner.Config, unknown bool) {
	if q.APIKey == "" && q.PartnerID == "" {
		return nil, false
	}
	cfg, err := r.partners.Resolve(ctx, q.APIKey, q.PartnerID)
	if err != nil {
		unknown = errors.Is(err, apperr.ErrConfigNotFound)
		ev := r.logger.Warn()
		if unknown {
			ev = r.logger.Info()
		}
		ev.Err(err).Str("partner_id", q.PartnerID).Bool("api_key", q.APIKey != "").
			Msg("partner policy unknown, payment gating skipped")
		return nil, unknown
	}
	return cfg, false
}

func (r *Resolver) latestReport(ctx context.Context, identityID, facilityID string) *report.Report {
	rep, err := r.reports.Latest(ctx, identityID, facilityID)
	if err != nil {
		r.logger.Warn().Err(err).Str("identity_id", identityID).Str("facility_id", facilityID).
			Msg("report lookup failed, treating as absent")
		return nil
	}
	return rep
}

func (r *Resolver) hasPayment(ctx context.Context, identityID, facilityID, partnerID string) bool {
	ok, err := r.payments.HasCompletedPayment(ctx, identityID, facilityID, partnerID)
	if err != nil {
		r.logger.Warn().Err(err).Str("identity_id", identityID).Str("partner_id", partnerID).
			Msg("payment lookup failed, treating as unpaid")
		return false
	}
	return ok
}

// MetricCount sums broker and local cache records. Partner payloads stand in
// for the others and count only when both are empty.
func MetricCount(s healthdata.Snapshots) int {
	n := max0(s.Broker.Count) + max0(s.LocalCache.Count)
	if n == 0 {
		return max0(s.Partner.Count)
	}
	return n
}

// PrimarySource returns the non-empty source updated most recently, breaking
// ties by healthdata.Priority. A non-empty source with no timestamp loses to
// any timestamped one. It returns nil when every source is empty.
func PrimarySource(s healthdata.Snapshots) *healthdata.Source {
	var (
		best     *healthdata.Source
		bestTime *time.Time
	)
	for _, src := range healthdata.Priority {
		snap := s.Get(src)
		if snap.Empty() {
			continue
		}
		if best == nil || newer(snap.LastSynced, bestTime) {
			src := src
			best, bestTime = &src, snap.LastSynced
		}
	}
	return best
}

func newer(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}

// SelectState applies the lifecycle priority order; the first match wins.
func SelectState(hasReport, expired, sufficient, requiresPayment, hasPayment bool) State {
	switch {
	case hasReport && !expired:
		return StateReportReady
	case hasReport:
		return StateReportExpired
	case sufficient && requiresPayment && !hasPayment:
		return StatePaymentRequired
	case sufficient:
		return StateReportPending
	default:
		return StateActionRequired
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
