package sources

import (
	"context"
	"time"
)

// Tier is a feed's assigned signal quality bucket. It controls trust and
// downstream weighting of everything the source produces.
type Tier string

const (
	TierHighSignal  Tier = "tier1_high_signal"
	TierCurated     Tier = "tier2_curated"
	TierCommunity   Tier = "tier3_community"
	TierConditional Tier = "conditional"
)

// tierRank orders tiers by trust, lower is better. Conditional sources rank
// between curated and community.
func tierRank(t Tier) int {
	switch t {
	case TierHighSignal:
		return 1
	case TierCurated:
		return 2
	case TierConditional:
		return 3
	case TierCommunity:
		return 4
	default:
		return 5
	}
}

// TierRank exposes the ordering for packages that have to break ties between
// items observed by different sources.
func TierRank(t Tier) int {
	return tierRank(t)
}

// RawItem is one source-shaped payload tagged with the identity of the source
// that produced it. It only ever travels from a source to the normalizer
// entry registered for that source; it is never persisted.
type RawItem struct {
	SourceName string
	FetchedAt  time.Time
	Payload    map[string]any
}

// Source is the contract every concrete feed implements. Metadata accessors
// are immutable; Fetch performs the actual retrieval and must let failures
// propagate rather than swallow them.
type Source interface {
	Name() string
	Tier() Tier
	Reliability() float64
	FetchMethod() string
	RefreshInterval() time.Duration
	StackConditions() []string

	Fetch(ctx context.Context) ([]RawItem, error)
}

// Config is a derived, read-only view of a source plus any override applied
// from the sources directory. MaxItems and Timeout are zero unless an
// override sets them; zero means the run's defaults apply.
type Config struct {
	Name            string
	Tier            Tier
	Reliability     float64
	Enabled         bool
	FetchMethod     string
	RefreshInterval time.Duration
	StackConditions []string
	MaxItems        int
	Timeout         time.Duration
}

// FetchResult is the structured per-source outcome of one pipeline run.
type FetchResult struct {
	SourceName      string        `json:"source_name"`
	Tier            Tier          `json:"tier"`
	ItemCount       int           `json:"item_count"`
	NormalizedCount int           `json:"normalized_count"`
	Duration        time.Duration `json:"duration"`
	Error           string        `json:"error,omitempty"`
}

// meta carries the immutable metadata shared by the concrete sources, so each
// source only implements Fetch.
type meta struct {
	name            string
	tier            Tier
	reliability     float64
	fetchMethod     string
	refreshInterval time.Duration
	stackConditions []string
}

func (m meta) Name() string                   { return m.name }
func (m meta) Tier() Tier                     { return m.tier }
func (m meta) Reliability() float64           { return m.reliability }
func (m meta) FetchMethod() string            { return m.fetchMethod }
func (m meta) RefreshInterval() time.Duration { return m.refreshInterval }
func (m meta) StackConditions() []string      { return m.stackConditions }
