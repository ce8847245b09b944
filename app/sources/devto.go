package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DevTo fetches the top articles of the last day from the dev.to REST API.
type DevTo struct {
	meta
	client    *http.Client
	userAgent string
	BaseURL   string
}

func NewDevTo(client *http.Client, userAgent string) *DevTo {
	return &DevTo{
		meta: meta{
			name:            "devto",
			tier:            TierCommunity,
			reliability:     0.6,
			fetchMethod:     "api",
			refreshInterval: 6 * time.Hour,
		},
		client:    client,
		userAgent: userAgent,
		BaseURL:   "https://dev.to/api",
	}
}

type devtoArticle struct {
	ID                    int      `json:"id"`
	Title                 string   `json:"title"`
	URL                   string   `json:"url"`
	Description           string   `json:"description"`
	PublishedAt           string   `json:"published_at"`
	TagList               []string `json:"tag_list"`
	PositiveReactionCount int      `json:"positive_reactions_count"`
	CommentsCount         int      `json:"comments_count"`
}

func (s *DevTo) Fetch(ctx context.Context) ([]RawItem, error) {
	var articles []devtoArticle
	endpoint := s.BaseURL + "/articles?top=1&per_page=30"
	if err := getJSON(ctx, s.client, s.userAgent, endpoint, nil, &articles); err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}

	now := time.Now().UTC()
	items := make([]RawItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, RawItem{
			SourceName: s.Name(),
			FetchedAt:  now,
			Payload: map[string]any{
				"id":           a.ID,
				"title":        a.Title,
				"url":          a.URL,
				"description":  a.Description,
				"published_at": a.PublishedAt,
				"tags":         a.TagList,
				"reactions":    a.PositiveReactionCount,
				"comments":     a.CommentsCount,
			},
		})
	}

	return items, nil
}
