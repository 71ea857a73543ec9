package scoring

import (
	"encoding/json"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// StageStatus tags the outcome of one LLM stage. "No evidence" (a
// parsed -1) and "call failed" are deliberately distinct states.
type StageStatus int

const (
	// StatusParsed means the stage returned valid, in-range JSON.
	StatusParsed StageStatus = iota
	// StatusMalformed means the response could not be parsed or failed
	// range validation; the lead stays unscored.
	StatusMalformed
	// StatusProviderError means the API call itself failed after
	// retries; only this lead is abandoned.
	StatusProviderError
)

func (s StageStatus) String() string {
	switch s {
	case StatusParsed:
		return "parsed"
	case StatusMalformed:
		return "malformed"
	case StatusProviderError:
		return "provider_error"
	}
	return "unknown"
}

// Facts is the stage 1 output: what the site states, no judgment.
type Facts struct {
	OwnerNames         []string `json:"owner_names"`
	FoundedYear        *int     `json:"founded_year"`
	EmployeeCount      *int     `json:"employee_count"`
	Services           []string `json:"services"`
	OwnershipSignals   string   `json:"ownership_signals"`
	SuccessionSignals  string   `json:"succession_signals"`
	AcquisitionHistory string   `json:"acquisition_history"`
	Certifications     []string `json:"certifications"`
	Notable            string   `json:"notable"`
}

// Verdict is the stage 2 output.
type Verdict struct {
	OwnershipType      string `json:"ownership_type"`
	IsExcluded         bool   `json:"is_excluded"`
	ExcludeReason      string `json:"exclude_reason"`
	QualityScore       int    `json:"quality_score"`
	ExitReadinessScore int    `json:"exit_readiness_score"`
	Rationale          string `json:"rationale"`
}

// validScore accepts 1-10 or the insufficient-evidence sentinel.
func validScore(s int) bool {
	return s == model.ScoreInsufficientEvidence || (s >= 1 && s <= 10)
}

// parseFacts decodes a stage 1 response. Parse failure is malformed,
// never an error: the caller decides what to do with the lead.
func parseFacts(text string) (*Facts, StageStatus) {
	var f Facts
	if err := json.Unmarshal([]byte(cleanJSON(text)), &f); err != nil {
		return nil, StatusMalformed
	}
	return &f, StatusParsed
}

// parseVerdict decodes and range-validates a stage 2 response.
// Out-of-range scores are malformed, never coerced.
func parseVerdict(text string) (*Verdict, StageStatus) {
	raw := cleanJSON(text)
	var v Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, StatusMalformed
	}
	if !validScore(v.QualityScore) || !validScore(v.ExitReadinessScore) {
		return nil, StatusMalformed
	}
	if v.OwnershipType == "" {
		v.OwnershipType = "unknown"
	}
	return &v, StatusParsed
}

// LeadResult reports the outcome of scoring one lead.
type LeadResult struct {
	LeadID  int64
	Status  StageStatus
	Stage   string // "facts" or "verdict", set when Status != StatusParsed
	Verdict *Verdict
	Err     error
}

// Summary aggregates a batch of lead results.
type Summary struct {
	Scored         int
	Excluded       int
	Malformed      int
	ProviderErrors int
	Skipped        int
}
