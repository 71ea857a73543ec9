package model

import "time"

// ScrapeRun records one crawl attempt against a lead's website.
type ScrapeRun struct {
	ID          string     `json:"id"`
	LeadID      int64      `json:"lead_id"`
	Status      RunStatus  `json:"status"`
	PagesFound  int        `json:"pages_found"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ScrapedPage is one fetched page persisted under a scrape run.
type ScrapedPage struct {
	ID          int64     `json:"id"`
	ScrapeRunID string    `json:"scrape_run_id"`
	URL         string    `json:"url"`
	Depth       int       `json:"depth"`
	StatusCode  int       `json:"status_code"`
	HTML        string    `json:"html,omitempty"`
	Text        string    `json:"text,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// FetchedPage is the in-memory input to the extraction engine. Fetching
// itself is an external concern; extraction only aggregates.
type FetchedPage struct {
	PageID int64  `json:"page_id,omitempty"`
	URL    string `json:"url"`
	Depth  int    `json:"depth"`
	HTML   string `json:"html,omitempty"`
	Text   string `json:"text"`
}
