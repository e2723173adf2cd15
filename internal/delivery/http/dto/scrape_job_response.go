package dto

import (
	"time"

	"scrape-aggregator/internal/domain/scrape"
)

type ScrapeJobResponse struct {
	ID           string   `json:"id"`
	StartedAt    string   `json:"started_at"`
	EndedAt      string   `json:"ended_at,omitempty"`
	Sources      []string `json:"sources"`
	ItemsSeen    int      `json:"items_seen"`
	ItemsNew     int      `json:"items_new"`
	ItemsUpdated int      `json:"items_updated"`
	ItemsFailed  int      `json:"items_failed"`
	Status       string   `json:"status"`
	ErrorSummary string   `json:"error_summary,omitempty"`
}

func NewScrapeJobResponse(job scrape.Job) ScrapeJobResponse {
	ended := ""
	if job.EndedAt != nil {
		ended = job.EndedAt.UTC().Format(time.RFC3339)
	}
	sources := job.Sources
	if sources == nil {
		sources = []string{}
	}
	return ScrapeJobResponse{
		ID:           job.ID.String(),
		StartedAt:    job.StartedAt.UTC().Format(time.RFC3339),
		EndedAt:      ended,
		Sources:      sources,
		ItemsSeen:    job.ItemsSeen,
		ItemsNew:     job.ItemsNew,
		ItemsUpdated: job.ItemsUpdated,
		ItemsFailed:  job.ItemsFailed,
		Status:       string(job.Status),
		ErrorSummary: job.ErrorSummary,
	}
}
