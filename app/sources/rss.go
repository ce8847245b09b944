package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSSource is a generic RSS/Atom source. Stack-gated engineering blogs are
// instances of it: a source constructed with stack conditions only applies to
// projects whose stack matches one of them.
type RSSSource struct {
	meta
	client    *http.Client
	userAgent string
	feedURL   string
	parser    *gofeed.Parser
}

func NewRSSSource(client *http.Client, userAgent, name, feedURL string, tier Tier, reliability float64, refreshInterval time.Duration, stackConditions ...string) *RSSSource {
	return &RSSSource{
		meta: meta{
			name:            name,
			tier:            tier,
			reliability:     reliability,
			fetchMethod:     "rss",
			refreshInterval: refreshInterval,
			stackConditions: stackConditions,
		},
		client:    client,
		userAgent: userAgent,
		feedURL:   feedURL,
		parser:    gofeed.NewParser(),
	}
}

func (s *RSSSource) Fetch(ctx context.Context) ([]RawItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	feed, err := s.parser.ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	now := time.Now().UTC()
	items := make([]RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		payload := map[string]any{
			"guid":        entry.GUID,
			"title":       entry.Title,
			"link":        entry.Link,
			"description": entry.Description,
			"categories":  entry.Categories,
		}
		if entry.PublishedParsed != nil {
			payload["published_at"] = entry.PublishedParsed.UTC().Format(time.RFC3339)
		}
		items = append(items, RawItem{
			SourceName: s.Name(),
			FetchedAt:  now,
			Payload:    payload,
		})
	}

	return items, nil
}
