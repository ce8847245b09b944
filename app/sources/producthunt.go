package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ProductHunt fetches today's launches through the Product Hunt GraphQL API.
// The API requires a bearer token; when none is configured the source
// degrades to an empty result instead of failing the run.
type ProductHunt struct {
	meta
	client    *http.Client
	userAgent string
	token     string
	BaseURL   string
}

func NewProductHunt(client *http.Client, userAgent, token string) *ProductHunt {
	return &ProductHunt{
		meta: meta{
			name:            "producthunt",
			tier:            TierCurated,
			reliability:     0.75,
			fetchMethod:     "graphql",
			refreshInterval: 12 * time.Hour,
		},
		client:    client,
		userAgent: userAgent,
		token:     token,
		BaseURL:   "https://api.producthunt.com/v2/api/graphql",
	}
}

const productHuntQuery = `{
  posts(order: VOTES, first: 20) {
    edges {
      node {
        id
        name
        tagline
        url
        votesCount
        commentsCount
        createdAt
        topics(first: 5) { edges { node { name } } }
      }
    }
  }
}`

type productHuntResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node struct {
					ID            string `json:"id"`
					Name          string `json:"name"`
					Tagline       string `json:"tagline"`
					URL           string `json:"url"`
					VotesCount    int    `json:"votesCount"`
					CommentsCount int    `json:"commentsCount"`
					CreatedAt     string `json:"createdAt"`
					Topics        struct {
						Edges []struct {
							Node struct {
								Name string `json:"name"`
							} `json:"node"`
						} `json:"edges"`
					} `json:"topics"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"posts"`
	} `json:"data"`
}

func (s *ProductHunt) Fetch(ctx context.Context) ([]RawItem, error) {
	if s.token == "" {
		slog.Warn("Product Hunt token not configured, returning empty result", "source", s.Name())
		return []RawItem{}, nil
	}

	body, err := json.Marshal(map[string]string{"query": productHuntQuery})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed productHuntResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	now := time.Now().UTC()
	items := make([]RawItem, 0, len(parsed.Data.Posts.Edges))
	for _, edge := range parsed.Data.Posts.Edges {
		node := edge.Node
		topics := make([]string, 0, len(node.Topics.Edges))
		for _, t := range node.Topics.Edges {
			topics = append(topics, t.Node.Name)
		}
		items = append(items, RawItem{
			SourceName: s.Name(),
			FetchedAt:  now,
			Payload: map[string]any{
				"id":         node.ID,
				"name":       node.Name,
				"tagline":    node.Tagline,
				"url":        node.URL,
				"votes":      node.VotesCount,
				"comments":   node.CommentsCount,
				"created_at": node.CreatedAt,
				"topics":     topics,
			},
		})
	}

	return items, nil
}
