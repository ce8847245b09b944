package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Lobsters fetches the hottest stories from the lobste.rs JSON endpoint.
type Lobsters struct {
	meta
	client    *http.Client
	userAgent string
	BaseURL   string
}

func NewLobsters(client *http.Client, userAgent string) *Lobsters {
	return &Lobsters{
		meta: meta{
			name:            "lobsters",
			tier:            TierCommunity,
			reliability:     0.65,
			fetchMethod:     "api",
			refreshInterval: 2 * time.Hour,
		},
		client:    client,
		userAgent: userAgent,
		BaseURL:   "https://lobste.rs",
	}
}

type lobstersStory struct {
	ShortID      string   `json:"short_id"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Description  string   `json:"description"`
	Score        int      `json:"score"`
	CommentCount int      `json:"comment_count"`
	CreatedAt    string   `json:"created_at"`
	Tags         []string `json:"tags"`
}

func (s *Lobsters) Fetch(ctx context.Context) ([]RawItem, error) {
	var stories []lobstersStory
	if err := getJSON(ctx, s.client, s.userAgent, s.BaseURL+"/hottest.json", nil, &stories); err != nil {
		return nil, fmt.Errorf("failed to fetch hottest stories: %w", err)
	}

	now := time.Now().UTC()
	items := make([]RawItem, 0, len(stories))
	for _, story := range stories {
		items = append(items, RawItem{
			SourceName: s.Name(),
			FetchedAt:  now,
			Payload: map[string]any{
				"short_id":   story.ShortID,
				"title":      story.Title,
				"url":        story.URL,
				"summary":    story.Description,
				"score":      story.Score,
				"comments":   story.CommentCount,
				"created_at": story.CreatedAt,
				"tags":       story.Tags,
			},
		})
	}

	return items, nil
}
