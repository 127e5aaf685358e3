package healthdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/healthreport/internal/platform/apperr"
	"github.com/ehr/healthreport/internal/platform/metrics"
)

// DefaultFetchTimeout bounds a single provenance read when none is configured.
const DefaultFetchTimeout = 3 * time.Second

// Aggregator reads every provenance concurrently and never lets one failing
// source affect the others.
type Aggregator struct {
	counters map[Source]Counter
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewAggregator wires one counter per source. A nil counter is treated as a
// source with no data.
func NewAggregator(broker, localCache, partner Counter, timeout time.Duration, logger zerolog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Aggregator{
		counters: map[Source]Counter{
			SourceBroker:     broker,
			SourceLocalCache: localCache,
			SourcePartner:    partner,
		},
		timeout: timeout,
		logger:  logger,
	}
}

// Collect returns a snapshot for every source. It never returns an error: a
// source that errors, times out or panics is logged and reported as empty.
func (a *Aggregator) Collect(ctx context.Context, identityID, facilityID string) Snapshots {
	var (
		g   errgroup.Group
		mu  sync.Mutex
		out Snapshots
	)

	for _, src := range Priority {
		src := src
		g.Go(func() error {
			snap := a.fetch(ctx, src, identityID, facilityID)
			mu.Lock()
			out.set(src, snap)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

type countResult struct {
	count int
	last  *time.Time
	err   error
}

func (a *Aggregator) fetch(parent context.Context, src Source, identityID, facilityID string) Snapshot {
	counter := a.counters[src]
	if counter == nil {
		return Snapshot{}
	}

	ctx, cancel := context.WithTimeout(parent, a.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan countResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- countResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		n, last, err := counter.CountAndLastUpdated(ctx, identityID, facilityID)
		done <- countResult{count: n, last: last, err: err}
	}()

	var res countResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = countResult{err: ctx.Err()}
	}
	elapsed := time.Since(start)

	if res.err != nil {
		outcome := "error"
		if errors.Is(res.err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.ObserveProvenanceFetch(string(src), outcome, elapsed)
		a.logger.Warn().
			Err(fmt.Errorf("%w: %v", apperr.ErrProvenanceUnavailable, res.err)).
			Str("source", string(src)).
			Str("outcome", outcome).
			Str("identity_id", identityID).
			Str("facility_id", facilityID).
			Dur("latency", elapsed).
			Msg("provenance degraded to empty snapshot")
		return Snapshot{Degraded: true}
	}

	if res.count <= 0 {
		metrics.ObserveProvenanceFetch(string(src), "empty", elapsed)
		return Snapshot{}
	}
	metrics.ObserveProvenanceFetch(string(src), "ok", elapsed)
	return Snapshot{Count: res.count, LastSynced: res.last}
}
