package sources

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const hackerNewsStoryLimit = 30

// HackerNews fetches the current top stories from the Hacker News Firebase
// API. The story list is one request; individual story records are fetched
// concurrently and reassembled in list order.
type HackerNews struct {
	meta
	client    *http.Client
	userAgent string
	BaseURL   string
}

func NewHackerNews(client *http.Client, userAgent string) *HackerNews {
	return &HackerNews{
		meta: meta{
			name:            "hackernews",
			tier:            TierHighSignal,
			reliability:     0.9,
			fetchMethod:     "api",
			refreshInterval: 30 * time.Minute,
		},
		client:    client,
		userAgent: userAgent,
		BaseURL:   "https://hacker-news.firebaseio.com/v0",
	}
}

type hnStory struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Type        string `json:"type"`
}

func (s *HackerNews) Fetch(ctx context.Context) ([]RawItem, error) {
	var ids []int
	if err := getJSON(ctx, s.client, s.userAgent, s.BaseURL+"/topstories.json", nil, &ids); err != nil {
		return nil, fmt.Errorf("failed to fetch top stories: %w", err)
	}

	if len(ids) > hackerNewsStoryLimit {
		ids = ids[:hackerNewsStoryLimit]
	}

	// Fan out over individual story records; the indexed slice keeps the
	// original list order regardless of completion order.
	stories := make([]*hnStory, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			var story hnStory
			url := fmt.Sprintf("%s/item/%d.json", s.BaseURL, id)
			if err := getJSON(ctx, s.client, s.userAgent, url, nil, &story); err != nil {
				return
			}
			stories[i] = &story
		}(i, id)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	items := make([]RawItem, 0, len(stories))
	for _, story := range stories {
		if story == nil || story.Type != "story" || story.Title == "" {
			continue
		}
		items = append(items, RawItem{
			SourceName: s.Name(),
			FetchedAt:  now,
			Payload: map[string]any{
				"id":       story.ID,
				"title":    story.Title,
				"url":      story.URL,
				"score":    story.Score,
				"comments": story.Descendants,
				"by":       story.By,
				"time":     story.Time,
			},
		})
	}

	return items, nil
}
