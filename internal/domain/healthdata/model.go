package healthdata

import "time"

// Source names one of the three independent origins of health data.
type Source string

const (
	SourceBroker     Source = "broker"
	SourceLocalCache Source = "local_cache"
	SourcePartner    Source = "partner"
)

// Priority is the tie-break order used when two sources were updated at the
// same instant.
var Priority = []Source{SourceBroker, SourceLocalCache, SourcePartner}

// Snapshot is the count and most recent update of one source for one
// (identity, facility) pair. It is computed per query and never stored.
type Snapshot struct {
	Count      int        `json:"count"`
	LastSynced *time.Time `json:"last_synced"`
	// Degraded is set when the read failed or timed out and the snapshot
	// was substituted with an empty one.
	Degraded bool `json:"-"`
}

// Empty reports whether the source contributed no records.
func (s Snapshot) Empty() bool {
	return s.Count <= 0
}

// Snapshots holds one snapshot per source.
type Snapshots struct {
	Broker     Snapshot `json:"broker"`
	LocalCache Snapshot `json:"local_cache"`
	Partner    Snapshot `json:"partner"`
}

// Get returns the snapshot for src.
func (s Snapshots) Get(src Source) Snapshot {
	switch src {
	case SourceBroker:
		return s.Broker
	case SourceLocalCache:
		return s.LocalCache
	case SourcePartner:
		return s.Partner
	}
	return Snapshot{}
}

func (s *Snapshots) set(src Source, snap Snapshot) {
	switch src {
	case SourceBroker:
		s.Broker = snap
	case SourceLocalCache:
		s.LocalCache = snap
	case SourcePartner:
		s.Partner = snap
	}
}
