package normalizer

import (
	"net/http"
	"testing"
	"time"

	"github.com/devsignals/pipeline/app/sources"
)

func newTestRegistry(t *testing.T) *sources.Registry {
	t.Helper()
	registry := sources.NewRegistry(nil)
	if err := registry.Register(sources.NewHackerNews(http.DefaultClient, "test-agent")); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(sources.NewDevTo(http.DefaultClient, "test-agent")); err != nil {
		t.Fatal(err)
	}
	return registry
}

func hackerNewsRaw(title, url string, score, comments int) sources.RawItem {
	return sources.RawItem{
		SourceName: "hackernews",
		FetchedAt:  time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		Payload: map[string]any{
			"id":       42,
			"title":    title,
			"url":      url,
			"score":    score,
			"comments": comments,
			"by":       "alice",
			"time":     int(time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC).Unix()),
		},
	}
}

func TestNormalizeHackerNewsItem(t *testing.T) {
	n := New(newTestRegistry(t))

	raw := hackerNewsRaw("Postgres replication deep dive", "https://example.com/pg", 450, 90)
	item := n.Normalize(raw)
	if item == nil {
		t.Fatal("Expected normalized item, got nil")
	}

	if item.SourceName != "hackernews" {
		t.Errorf("Expected source hackernews, got %q", item.SourceName)
	}
	if item.Tier != sources.TierHighSignal {
		t.Errorf("Expected tier to be filled from the registry, got %q", item.Tier)
	}
	if item.Reliability != 0.9 {
		t.Errorf("Expected reliability 0.9 from the registry, got %v", item.Reliability)
	}
	if item.ExternalID != "42" {
		t.Errorf("Expected external ID 42, got %q", item.ExternalID)
	}
	if item.Title != "Postgres replication deep dive" {
		t.Errorf("Unexpected title %q", item.Title)
	}
	if item.Traction["score"] != 450 || item.Traction["comments"] != 90 {
		t.Errorf("Expected traction score=450 comments=90, got %v", item.Traction)
	}
	if item.PublishedAt.IsZero() {
		t.Error("Expected published timestamp from the unix time field")
	}
	if item.ContentHash == "" {
		t.Error("Expected content hash to be set")
	}
	if item.ID != "" {
		t.Errorf("Expected ID to be empty before persistence, got %q", item.ID)
	}

	found := false
	for _, cat := range item.Categories {
		if cat == "database" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected database category for a Postgres title, got %v", item.Categories)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := New(newTestRegistry(t))
	raw := hackerNewsRaw("Rust async runtime benchmarks", "https://example.com/rust", 200, 40)

	a := n.Normalize(raw)
	b := n.Normalize(raw)
	if a == nil || b == nil {
		t.Fatal("Expected both normalizations to succeed")
	}

	if a.ContentHash != b.ContentHash {
		t.Errorf("Expected identical hashes, got %q and %q", a.ContentHash, b.ContentHash)
	}
	if a.Title != b.Title || a.URL != b.URL || a.ExternalID != b.ExternalID {
		t.Error("Expected identical canonical fields for identical input")
	}
	if len(a.Categories) != len(b.Categories) || len(a.Technologies) != len(b.Technologies) {
		t.Error("Expected identical detection output for identical input")
	}
	for i := range a.Categories {
		if a.Categories[i] != b.Categories[i] {
			t.Errorf("Expected deterministic category order, got %v and %v", a.Categories, b.Categories)
		}
	}
}

func TestNormalizeUnknownSourceDropsItem(t *testing.T) {
	n := New(newTestRegistry(t))

	raw := sources.RawItem{
		SourceName: "unregistered-feed",
		Payload:    map[string]any{"title": "Something"},
	}
	if item := n.Normalize(raw); item != nil {
		t.Errorf("Expected nil for a source with no mapping, got %+v", item)
	}
}

func TestNormalizeMappingFailureDropsItem(t *testing.T) {
	n := New(newTestRegistry(t))

	raw := sources.RawItem{
		SourceName: "hackernews",
		Payload:    map[string]any{"id": 1}, // no title
	}
	if item := n.Normalize(raw); item != nil {
		t.Errorf("Expected nil for an unmappable payload, got %+v", item)
	}
}

func TestNormalizeBatchPreservesOrderAndDropsFailures(t *testing.T) {
	n := New(newTestRegistry(t))

	raws := []sources.RawItem{
		hackerNewsRaw("First", "https://example.com/1", 10, 1),
		{SourceName: "hackernews", Payload: map[string]any{"id": 2}}, // dropped
		hackerNewsRaw("Second", "https://example.com/2", 20, 2),
		{SourceName: "nobody-home", Payload: map[string]any{}}, // dropped
		hackerNewsRaw("Third", "https://example.com/3", 30, 3),
	}

	items := n.NormalizeBatch(raws)
	if len(items) != 3 {
		t.Fatalf("Expected 3 normalized items, got %d", len(items))
	}
	for i, title := range []string{"First", "Second", "Third"} {
		if items[i].Title != title {
			t.Errorf("Expected item %d to be %q, got %q", i, title, items[i].Title)
		}
	}
}

func TestContentHashCaseAndWhitespaceInvariance(t *testing.T) {
	n := New(newTestRegistry(t))

	base := n.ContentHash("Foo Bar", "http://x.com")

	variants := []struct {
		title string
		url   string
	}{
		{"foo bar", "HTTP://X.COM"},
		{"  Foo   Bar  ", "http://x.com"},
		{"FOO\tBAR", "http://x.com "},
	}
	for _, v := range variants {
		if got := n.ContentHash(v.title, v.url); got != base {
			t.Errorf("Expected hash of (%q, %q) to match base hash", v.title, v.url)
		}
	}

	if got := n.ContentHash("Foo Baz", "http://x.com"); got == base {
		t.Error("Expected different titles to produce different hashes")
	}
	if got := n.ContentHash("Foo Bar", "http://y.com"); got == base {
		t.Error("Expected different URLs to produce different hashes")
	}
}

func TestNormalizeDevToMergesPayloadTags(t *testing.T) {
	n := New(newTestRegistry(t))

	raw := sources.RawItem{
		SourceName: "devto",
		FetchedAt:  time.Now().UTC(),
		Payload: map[string]any{
			"id":           7,
			"title":        "Getting started with FastAPI",
			"url":          "https://dev.to/a/fastapi",
			"description":  "Build an API with Python and FastAPI",
			"tags":         []string{"Python", "tutorial"},
			"reactions":    55,
			"comments":     8,
			"published_at": "2026-08-23T12:00:00Z",
		},
	}

	item := n.Normalize(raw)
	if item == nil {
		t.Fatal("Expected normalized item, got nil")
	}

	// Pre-seeded payload tags are kept (lowercased) and detected ones merged
	// in without duplication.
	hasTag := func(tag string) bool {
		for _, tech := range item.Technologies {
			if tech == tag {
				return true
			}
		}
		return false
	}
	if !hasTag("python") {
		t.Errorf("Expected python tag, got %v", item.Technologies)
	}
	if !hasTag("tutorial") {
		t.Errorf("Expected tutorial tag to survive, got %v", item.Technologies)
	}
	if !hasTag("fastapi") {
		t.Errorf("Expected fastapi to be detected from the text, got %v", item.Technologies)
	}

	count := 0
	for _, tech := range item.Technologies {
		if tech == "python" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected python to appear once, got %d times", count)
	}

	hasEco := false
	for _, eco := range item.Ecosystems {
		if eco == "pypi" {
			hasEco = true
		}
	}
	if !hasEco {
		t.Errorf("Expected pypi ecosystem for python, got %v", item.Ecosystems)
	}
}
