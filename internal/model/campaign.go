package model

import (
	"encoding/json"
	"time"
)

// RunStatus represents the lifecycle state of a campaign run or job.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Campaign is a named set of search queries used to source leads.
type Campaign struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CampaignRun records one execution of a campaign's search list.
type CampaignRun struct {
	ID                string     `json:"id"`
	CampaignID        string     `json:"campaign_id"`
	Status            RunStatus  `json:"status"`
	QueriesExecuted   int        `json:"queries_executed"`
	LeadsFound        int        `json:"leads_found"`
	DuplicatesSkipped int        `json:"duplicates_skipped"`
	Errors            int        `json:"errors"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// SearchQuery is one executed text query, persisted before any lead it produces.
type SearchQuery struct {
	ID            int64     `json:"id"`
	CampaignID    string    `json:"campaign_id"`
	CampaignRunID string    `json:"campaign_run_id"`
	TextQuery     string    `json:"text_query"`
	IncludedType  string    `json:"included_type,omitempty"`
	ResultCount   int       `json:"result_count"`
	ExecutedAt    time.Time `json:"executed_at"`
}

// Job is the task descriptor delivered at ingestion task start.
type Job struct {
	ID                 string    `json:"job_id"`
	CampaignID         string    `json:"campaign_id"`
	CampaignRunID      string    `json:"campaign_run_id"`
	SearchListURL      string    `json:"search_list_url"`
	SkipCachedSearches bool      `json:"skip_cached_searches"`
	MaxResultsPerQuery int       `json:"max_results_per_search"`
	Status             RunStatus `json:"status"`
	ErrorMessage       string    `json:"error_message,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// SearchList is the payload referenced by a job's search-list URL.
// Entries are either bare strings or {textQuery, includedType} objects.
type SearchList struct {
	Searches []SearchSpec `json:"searches"`
}

// SearchSpec is one search phrase plus an optional place-type filter.
type SearchSpec struct {
	TextQuery    string `json:"textQuery" yaml:"text_query"`
	IncludedType string `json:"includedType,omitempty" yaml:"included_type,omitempty"`
}

// UnmarshalJSON accepts either a bare string ("plumbers in Denver, CO")
// or a {"textQuery": ..., "includedType": ...} object.
func (s *SearchSpec) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.TextQuery = str
		s.IncludedType = ""
		return nil
	}

	type alias SearchSpec
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = SearchSpec(a)
	return nil
}
