package normalizer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/devsignals/pipeline/app/sources"
)

func mapHackerNews(raw sources.RawItem) (*Item, error) {
	title := payloadString(raw.Payload, "title")
	if title == "" {
		return nil, fmt.Errorf("story has no title")
	}

	item := &Item{
		ExternalID: strconv.Itoa(payloadInt(raw.Payload, "id")),
		Title:      title,
		URL:        payloadString(raw.Payload, "url"),
		Traction: map[string]float64{
			"score":    float64(payloadInt(raw.Payload, "score")),
			"comments": float64(payloadInt(raw.Payload, "comments")),
		},
	}

	if unix := payloadInt(raw.Payload, "time"); unix > 0 {
		item.PublishedAt = time.Unix(int64(unix), 0).UTC()
	}

	return item, nil
}

func mapGitHubTrending(raw sources.RawItem) (*Item, error) {
	fullName := payloadString(raw.Payload, "full_name")
	if fullName == "" {
		return nil, fmt.Errorf("repository has no full_name")
	}

	item := &Item{
		ExternalID:  fullName,
		Title:       fullName,
		URL:         payloadString(raw.Payload, "html_url"),
		Description: payloadString(raw.Payload, "description"),
		Traction: map[string]float64{
			"stars": float64(payloadInt(raw.Payload, "stars")),
			"forks": float64(payloadInt(raw.Payload, "forks")),
		},
		Technologies: payloadStrings(raw.Payload, "topics"),
	}

	if language := payloadString(raw.Payload, "language"); language != "" {
		item.Technologies = append(item.Technologies, language)
	}
	if createdAt := payloadString(raw.Payload, "created_at"); createdAt != "" {
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			item.PublishedAt = ts.UTC()
		}
	}

	return item, nil
}

func mapProductHunt(raw sources.RawItem) (*Item, error) {
	name := payloadString(raw.Payload, "name")
	if name == "" {
		return nil, fmt.Errorf("launch has no name")
	}

	item := &Item{
		ExternalID:  payloadString(raw.Payload, "id"),
		Title:       name,
		URL:         payloadString(raw.Payload, "url"),
		Description: payloadString(raw.Payload, "tagline"),
		Traction: map[string]float64{
			"votes":    float64(payloadInt(raw.Payload, "votes")),
			"comments": float64(payloadInt(raw.Payload, "comments")),
		},
		Technologies: payloadStrings(raw.Payload, "topics"),
	}

	if createdAt := payloadString(raw.Payload, "created_at"); createdAt != "" {
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			item.PublishedAt = ts.UTC()
		}
	}

	return item, nil
}

func mapDevTo(raw sources.RawItem) (*Item, error) {
	title := payloadString(raw.Payload, "title")
	if title == "" {
		return nil, fmt.Errorf("article has no title")
	}

	item := &Item{
		ExternalID:  strconv.Itoa(payloadInt(raw.Payload, "id")),
		Title:       title,
		URL:         payloadString(raw.Payload, "url"),
		Description: payloadString(raw.Payload, "description"),
		Traction: map[string]float64{
			"reactions": float64(payloadInt(raw.Payload, "reactions")),
			"comments":  float64(payloadInt(raw.Payload, "comments")),
		},
		Technologies: payloadStrings(raw.Payload, "tags"),
	}

	if publishedAt := payloadString(raw.Payload, "published_at"); publishedAt != "" {
		if ts, err := time.Parse(time.RFC3339, publishedAt); err == nil {
			item.PublishedAt = ts.UTC()
		}
	}

	return item, nil
}

func mapLobsters(raw sources.RawItem) (*Item, error) {
	title := payloadString(raw.Payload, "title")
	if title == "" {
		return nil, fmt.Errorf("story has no title")
	}

	item := &Item{
		ExternalID:  payloadString(raw.Payload, "short_id"),
		Title:       title,
		URL:         payloadString(raw.Payload, "url"),
		Description: payloadString(raw.Payload, "summary"),
		Traction: map[string]float64{
			"score":    float64(payloadInt(raw.Payload, "score")),
			"comments": float64(payloadInt(raw.Payload, "comments")),
		},
		Technologies: payloadStrings(raw.Payload, "tags"),
	}

	if createdAt := payloadString(raw.Payload, "created_at"); createdAt != "" {
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			item.PublishedAt = ts.UTC()
		}
	}

	return item, nil
}

// mapRSS is shared by every RSS-backed source; the payload shape is fixed by
// sources.RSSSource.
func mapRSS(raw sources.RawItem) (*Item, error) {
	title := payloadString(raw.Payload, "title")
	link := payloadString(raw.Payload, "link")
	if title == "" && link == "" {
		return nil, fmt.Errorf("entry has neither title nor link")
	}

	item := &Item{
		ExternalID:  payloadString(raw.Payload, "guid"),
		Title:       title,
		URL:         link,
		Description: payloadString(raw.Payload, "description"),
		Traction:    map[string]float64{},
	}
	if item.ExternalID == "" {
		item.ExternalID = link
	}

	if publishedAt := payloadString(raw.Payload, "published_at"); publishedAt != "" {
		if ts, err := time.Parse(time.RFC3339, publishedAt); err == nil {
			item.PublishedAt = ts.UTC()
		}
	}

	return item, nil
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func payloadStrings(payload map[string]any, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
