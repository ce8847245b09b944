package api

import (
	"time"

	"github.com/devsignals/pipeline/app/database"
)

type sourceView struct {
	Name            string   `json:"name"`
	Tier            string   `json:"tier"`
	Reliability     float64  `json:"reliability"`
	Enabled         bool     `json:"enabled"`
	FetchMethod     string   `json:"fetch_method"`
	RefreshInterval string   `json:"refresh_interval"`
	StackConditions []string `json:"stack_conditions,omitempty"`
}

type itemView struct {
	ID           string             `json:"id"`
	Source       string             `json:"source"`
	Tier         string             `json:"tier"`
	Title        string             `json:"title"`
	URL          string             `json:"url,omitempty"`
	Description  string             `json:"description,omitempty"`
	Summary      string             `json:"summary,omitempty"`
	PublishedAt  *time.Time         `json:"published_at,omitempty"`
	FetchedAt    time.Time          `json:"fetched_at"`
	Categories   []string           `json:"categories,omitempty"`
	Technologies []string           `json:"technologies,omitempty"`
	Ecosystems   []string           `json:"ecosystems,omitempty"`
	Traction     map[string]float64 `json:"traction,omitempty"`
	Processed    bool               `json:"processed"`
}

type runView struct {
	ID                 string    `json:"id"`
	TotalRaw           int       `json:"total_raw"`
	TotalNormalized    int       `json:"total_normalized"`
	TotalNew           int       `json:"total_new"`
	TotalStored        int       `json:"total_stored"`
	DuplicatesFiltered int       `json:"duplicates_filtered"`
	SourceCount        int       `json:"source_count"`
	ErrorCount         int       `json:"error_count"`
	DurationMs         int64     `json:"duration_ms"`
	CompletedAt        time.Time `json:"completed_at"`
}

func toItemViews(items []database.Item) []itemView {
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView{
			ID:           item.ID,
			Source:       item.Source,
			Tier:         item.Tier,
			Title:        item.Title,
			URL:          item.URL,
			Description:  item.Description,
			Summary:      item.Summary,
			PublishedAt:  item.PublishedAt,
			FetchedAt:    item.FetchedAt,
			Categories:   item.Categories,
			Technologies: item.Technologies,
			Ecosystems:   item.Ecosystems,
			Traction:     item.Traction,
			Processed:    item.Processed,
		})
	}
	return views
}

func toRunViews(runs []database.Run) []runView {
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, runView{
			ID:                 run.ID,
			TotalRaw:           run.TotalRaw,
			TotalNormalized:    run.TotalNormalized,
			TotalNew:           run.TotalNew,
			TotalStored:        run.TotalStored,
			DuplicatesFiltered: run.DuplicatesFiltered,
			SourceCount:        run.SourceCount,
			ErrorCount:         run.ErrorCount,
			DurationMs:         run.Duration.Milliseconds(),
			CompletedAt:        run.CompletedAt,
		})
	}
	return views
}
