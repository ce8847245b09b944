package database

import (
	"time"
)

// Item is an item record as stored. Tag sets and the traction bag are
// JSON-encoded columns; SQLite has no array type.
type Item struct {
	ID           string
	Source       string
	Tier         string
	Reliability  float64
	ExternalID   string
	Title        string
	URL          string
	Description  string
	Summary      string
	PublishedAt  *time.Time
	FetchedAt    time.Time
	Categories   []string
	Technologies []string
	Ecosystems   []string
	Traction     map[string]float64
	Processed    bool
	ContentHash  string
	CreatedAt    time.Time
}

// Run is one pipeline run summary.
type Run struct {
	ID                 string
	TotalRaw           int
	TotalNormalized    int
	TotalNew           int
	TotalStored        int
	DuplicatesFiltered int
	SourceCount        int
	ErrorCount         int
	Duration           time.Duration
	CompletedAt        time.Time
}

// Stats is the aggregate view served by the stats endpoint.
type Stats struct {
	TotalItems      int
	ProcessedItems  int
	TotalRuns       int
	LastCompletedAt *time.Time
}
