package model

// Provenance identifies where an extracted fact came from. It is
// permanent audit history: rows are appended per run, never overwritten.
type Provenance struct {
	SourcePageID  int64  `json:"source_page_id,omitempty"`
	SourceURL     string `json:"source_url"`
	ScrapeRunID   string `json:"scrape_run_id"`
	Authoritative bool   `json:"authoritative,omitempty"` // from structured linked data
}

// ExtractedEmail is one email address with provenance.
type ExtractedEmail struct {
	Value      string     `json:"value"`
	Provenance Provenance `json:"provenance"`
}

// ExtractedPhone is one normalized phone number with provenance.
type ExtractedPhone struct {
	Value      string     `json:"value"`
	Provenance Provenance `json:"provenance"`
}

// SocialProfile is one social-network profile link with provenance.
type SocialProfile struct {
	Network    string     `json:"network"` // facebook, linkedin, instagram, twitter, youtube, yelp
	URL        string     `json:"url"`
	Provenance Provenance `json:"provenance"`
}

// TeamMember is one person mentioned on the site. Name may be a bare
// first name when no fuller mention exists.
type TeamMember struct {
	Name       string     `json:"name"`
	Title      string     `json:"title,omitempty"`
	FirstOnly  bool       `json:"first_only,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// AcquisitionSignal is a mention suggesting the business was acquired
// or merged.
type AcquisitionSignal struct {
	Text       string     `json:"text"`
	Date       string     `json:"date,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// Snippet is a free-text fragment of interest (awards, certifications,
// fleet size, service area).
type Snippet struct {
	Category   string     `json:"category"`
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
}

// ExtractedData is the per-lead aggregate produced by one extraction
// pass over a fixed page set.
type ExtractedData struct {
	LeadID      int64  `json:"lead_id"`
	ScrapeRunID string `json:"scrape_run_id"`

	// Scalar fields: first value wins in page priority order.
	FoundedYear      *int   `json:"founded_year,omitempty"`
	FoundedYearURL   string `json:"founded_year_url,omitempty"`
	EmployeeCount    *int   `json:"employee_count,omitempty"`
	EmployeeCountURL string `json:"employee_count_url,omitempty"`

	// Collections: accumulated uniquely across pages, capped per category.
	Emails             []ExtractedEmail    `json:"emails,omitempty"`
	Phones             []ExtractedPhone    `json:"phones,omitempty"`
	SocialProfiles     []SocialProfile     `json:"social_profiles,omitempty"`
	TeamMembers        []TeamMember        `json:"team_members,omitempty"`
	AcquisitionSignals []AcquisitionSignal `json:"acquisition_signals,omitempty"`
	Snippets           []Snippet           `json:"snippets,omitempty"`

	// Derived fields.
	YearsInBusiness    *int   `json:"years_in_business,omitempty"`
	AcquisitionFlag    bool   `json:"acquisition_flag"`
	AcquisitionSummary string `json:"acquisition_summary,omitempty"`
	ContactPageURL     string `json:"contact_page_url,omitempty"`
}
