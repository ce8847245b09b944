package normalizer

import (
	"time"

	"github.com/devsignals/pipeline/app/sources"
)

// Item is the canonical, source-independent representation of one observed
// signal. It is created with an empty ID; the ID is assigned on persistence.
// After creation the only mutable parts are the traction bag, merged in place
// when a later duplicate collapses into this item, and the Processed flag,
// owned by the downstream analysis stage.
type Item struct {
	ID          string
	SourceName  string
	Tier        sources.Tier
	Reliability float64

	// ExternalID is unique within the source, not globally.
	ExternalID  string
	Title       string
	URL         string
	Description string
	Summary     string

	PublishedAt time.Time
	FetchedAt   time.Time

	Categories   []string
	Technologies []string
	Ecosystems   []string

	// Traction is a bag of popularity metrics whose keys vary by source:
	// score, stars, votes, comments, growth. Values only ever go up when
	// duplicates merge.
	Traction map[string]float64

	Processed   bool
	ContentHash string
}

// MergeTraction folds another item's traction bag into this one, taking the
// field-wise maximum. Popularity metrics are monotonically non-decreasing,
// so the larger observation is the fresher one.
func (i *Item) MergeTraction(other map[string]float64) {
	if len(other) == 0 {
		return
	}
	if i.Traction == nil {
		i.Traction = make(map[string]float64, len(other))
	}
	for k, v := range other {
		if existing, ok := i.Traction[k]; !ok || v > existing {
			i.Traction[k] = v
		}
	}
}
