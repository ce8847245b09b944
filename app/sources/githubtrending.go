package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// GitHubTrending approximates the trending page through the search API:
// repositories created in the last week, ordered by stars. An API token is
// optional; without one the request runs against the unauthenticated rate
// limit.
type GitHubTrending struct {
	meta
	client    *http.Client
	userAgent string
	token     string
	BaseURL   string
}

func NewGitHubTrending(client *http.Client, userAgent, token string) *GitHubTrending {
	return &GitHubTrending{
		meta: meta{
			name:            "github-trending",
			tier:            TierHighSignal,
			reliability:     0.85,
			fetchMethod:     "api",
			refreshInterval: 6 * time.Hour,
		},
		client:    client,
		userAgent: userAgent,
		token:     token,
		BaseURL:   "https://api.github.com",
	}
}

type githubSearchResponse struct {
	Items []struct {
		FullName        string `json:"full_name"`
		HTMLURL         string `json:"html_url"`
		Description     string `json:"description"`
		Language        string `json:"language"`
		StargazersCount int    `json:"stargazers_count"`
		ForksCount      int    `json:"forks_count"`
		OpenIssuesCount int    `json:"open_issues_count"`
		CreatedAt       string `json:"created_at"`
		Topics          []string `json:"topics"`
	} `json:"items"`
}

func (s *GitHubTrending) Fetch(ctx context.Context) ([]RawItem, error) {
	since := time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	query := url.Values{}
	query.Set("q", fmt.Sprintf("created:>%s stars:>50", since))
	query.Set("sort", "stars")
	query.Set("order", "desc")
	query.Set("per_page", "30")

	headers := map[string]string{}
	if s.token != "" {
		headers["Authorization"] = "Bearer " + s.token
	}

	var resp githubSearchResponse
	endpoint := s.BaseURL + "/search/repositories?" + query.Encode()
	if err := getJSON(ctx, s.client, s.userAgent, endpoint, headers, &resp); err != nil {
		return nil, fmt.Errorf("failed to search repositories: %w", err)
	}

	now := time.Now().UTC()
	items := make([]RawItem, 0, len(resp.Items))
	for _, repo := range resp.Items {
		items = append(items, RawItem{
			SourceName: s.Name(),
			FetchedAt:  now,
			Payload: map[string]any{
				"full_name":   repo.FullName,
				"html_url":    repo.HTMLURL,
				"description": repo.Description,
				"language":    repo.Language,
				"stars":       repo.StargazersCount,
				"forks":       repo.ForksCount,
				"open_issues": repo.OpenIssuesCount,
				"created_at":  repo.CreatedAt,
				"topics":      repo.Topics,
			},
		})
	}

	return items, nil
}
