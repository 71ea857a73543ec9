package extract

import (
	"strings"
	"time"

	"github.com/sells-group/leadgen-pipeline/internal/config"
	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// Extractor aggregates facts from a lead's pages. It is pure: pages in,
// ExtractedData out. Persistence is the Engine's job.
type Extractor struct {
	cfg config.ExtractConfig
}

func NewExtractor(cfg config.ExtractConfig) *Extractor {
	applyCapDefaults(&cfg)
	return &Extractor{cfg: cfg}
}

func applyCapDefaults(cfg *config.ExtractConfig) {
	if cfg.MaxEmails <= 0 {
		cfg.MaxEmails = 10
	}
	if cfg.MaxPhones <= 0 {
		cfg.MaxPhones = 10
	}
	if cfg.MaxSocials <= 0 {
		cfg.MaxSocials = 10
	}
	if cfg.MaxTeamMembers <= 0 {
		cfg.MaxTeamMembers = 25
	}
	if cfg.MaxSnippets <= 0 {
		cfg.MaxSnippets = 20
	}
	if cfg.MaxSignals <= 0 {
		cfg.MaxSignals = 10
	}
}

// Extract runs both passes over the page set. The JSON-LD pass covers
// every page (in priority order) before any heuristic runs, so a
// structured fact anywhere in the crawl beats a heuristic fact
// everywhere; within a pass the first page to yield a scalar wins.
func (x *Extractor) Extract(leadID int64, scrapeRunID string, pages []model.FetchedPage) *model.ExtractedData {
	data := &model.ExtractedData{LeadID: leadID, ScrapeRunID: scrapeRunID}
	acc := newAccumulator(x.cfg, scrapeRunID)
	ordered := orderPages(pages)

	// Pass 1: structured linked data, authoritative.
	for _, page := range ordered {
		if data.ContactPageURL == "" && isContactPage(page.URL) {
			data.ContactPageURL = page.URL
		}

		ld := parseJSONLD(page.HTML)
		if data.FoundedYear == nil && ld.FoundedYear != 0 {
			y := ld.FoundedYear
			data.FoundedYear, data.FoundedYearURL = &y, page.URL
		}
		if data.EmployeeCount == nil && ld.EmployeeCount != 0 {
			n := ld.EmployeeCount
			data.EmployeeCount, data.EmployeeCountURL = &n, page.URL
		}
		if ld.Email != "" {
			acc.addEmail(ld.Email, page, true)
		}
		if ld.Telephone != "" {
			acc.addPhone(ld.Telephone, page, true)
		}
		for _, raw := range ld.SameAs {
			for _, link := range findSocialLinks(raw) {
				acc.addSocial(link, page, true)
			}
		}
	}

	// Pass 2: heuristics over visible text.
	for _, page := range ordered {
		text := page.Text
		if data.FoundedYear == nil {
			if y := findFoundedYear(text); y != 0 {
				data.FoundedYear, data.FoundedYearURL = &y, page.URL
			}
		}
		if data.EmployeeCount == nil {
			if n := findHeadcount(text); n != 0 {
				data.EmployeeCount, data.EmployeeCountURL = &n, page.URL
			}
		}
		for _, e := range findEmails(text) {
			acc.addEmail(e, page, false)
		}
		for _, p := range findPhones(text) {
			acc.addPhone(p, page, false)
		}
		for _, link := range findSocialLinks(page.HTML) {
			acc.addSocial(link, page, false)
		}
		for _, person := range findTeamMembers(text) {
			acc.addPerson(person, page)
		}
		for _, sig := range findAcquisitionSignals(text) {
			acc.addSignal(sig, page)
		}
		for _, hit := range findSnippets(text) {
			acc.addSnippet(hit, page)
		}
	}

	data.Emails = acc.emails
	data.Phones = acc.phones
	data.SocialProfiles = acc.socials
	data.TeamMembers = acc.people
	data.AcquisitionSignals = acc.signals
	data.Snippets = acc.snippets

	deriveFields(data)
	return data
}

// deriveFields computes the summary fields the scoring stage consumes.
func deriveFields(data *model.ExtractedData) {
	if data.FoundedYear != nil {
		years := time.Now().Year() - *data.FoundedYear
		if years >= 0 {
			data.YearsInBusiness = &years
		}
	}
	if len(data.AcquisitionSignals) > 0 {
		data.AcquisitionFlag = true
		first := data.AcquisitionSignals[0]
		data.AcquisitionSummary = first.Text
		if first.Date != "" {
			data.AcquisitionSummary += " (" + first.Date + ")"
		}
	}
	// No contact-ish page found: fall back to wherever a contact fact
	// actually lives.
	if data.ContactPageURL == "" {
		switch {
		case len(data.Emails) > 0:
			data.ContactPageURL = data.Emails[0].Provenance.SourceURL
		case len(data.Phones) > 0:
			data.ContactPageURL = data.Phones[0].Provenance.SourceURL
		}
	}
}

// accumulator deduplicates and caps collection facts across pages.
type accumulator struct {
	cfg         config.ExtractConfig
	scrapeRunID string

	emails   []model.ExtractedEmail
	phones   []model.ExtractedPhone
	socials  []model.SocialProfile
	people   []model.TeamMember
	signals  []model.AcquisitionSignal
	snippets []model.Snippet

	seenEmails  map[string]bool
	seenPhones  map[string]bool
	seenSocials map[string]bool
	seenSignals map[string]bool
	seenSnips   map[string]bool
}

func newAccumulator(cfg config.ExtractConfig, scrapeRunID string) *accumulator {
	return &accumulator{
		cfg:         cfg,
		scrapeRunID: scrapeRunID,
		seenEmails:  map[string]bool{},
		seenPhones:  map[string]bool{},
		seenSocials: map[string]bool{},
		seenSignals: map[string]bool{},
		seenSnips:   map[string]bool{},
	}
}

func (a *accumulator) provenance(page model.FetchedPage, authoritative bool) model.Provenance {
	return model.Provenance{
		SourcePageID:  page.PageID,
		SourceURL:     page.URL,
		ScrapeRunID:   a.scrapeRunID,
		Authoritative: authoritative,
	}
}

func (a *accumulator) addEmail(value string, page model.FetchedPage, auth bool) {
	if len(a.emails) >= a.cfg.MaxEmails || a.seenEmails[value] {
		return
	}
	a.seenEmails[value] = true
	a.emails = append(a.emails, model.ExtractedEmail{Value: value, Provenance: a.provenance(page, auth)})
}

func (a *accumulator) addPhone(value string, page model.FetchedPage, auth bool) {
	if len(a.phones) >= a.cfg.MaxPhones || a.seenPhones[value] {
		return
	}
	a.seenPhones[value] = true
	a.phones = append(a.phones, model.ExtractedPhone{Value: value, Provenance: a.provenance(page, auth)})
}

func (a *accumulator) addSocial(link socialLink, page model.FetchedPage, auth bool) {
	key := link.Network + "|" + strings.ToLower(link.URL)
	if len(a.socials) >= a.cfg.MaxSocials || a.seenSocials[key] {
		return
	}
	a.seenSocials[key] = true
	a.socials = append(a.socials, model.SocialProfile{
		Network:    link.Network,
		URL:        link.URL,
		Provenance: a.provenance(page, auth),
	})
}

// addPerson merges near-duplicate mentions: a bare first name is
// absorbed by an existing full name that starts with it, and a fuller
// mention upgrades an earlier first-name-only entry. When both carry
// titles the longer (richer) title is kept.
func (a *accumulator) addPerson(p personMention, page model.FetchedPage) {
	for i := range a.people {
		existing := &a.people[i]
		if samePerson(*existing, p) {
			if existing.FirstOnly && !p.FirstOnly {
				existing.Name = p.Name
				existing.FirstOnly = false
			}
			if len(p.Title) > len(existing.Title) {
				existing.Title = p.Title
			}
			return
		}
	}
	if len(a.people) >= a.cfg.MaxTeamMembers {
		return
	}
	a.people = append(a.people, model.TeamMember{
		Name:       p.Name,
		Title:      p.Title,
		FirstOnly:  p.FirstOnly,
		Provenance: a.provenance(page, false),
	})
}

func samePerson(existing model.TeamMember, incoming personMention) bool {
	en, in := strings.ToLower(existing.Name), strings.ToLower(incoming.Name)
	if en == in {
		return true
	}
	if existing.FirstOnly && strings.HasPrefix(in, en+" ") {
		return true
	}
	if incoming.FirstOnly && strings.HasPrefix(en, in+" ") {
		return true
	}
	return false
}

func (a *accumulator) addSignal(sig acquisitionMention, page model.FetchedPage) {
	key := strings.ToLower(sig.Text)
	if len(a.signals) >= a.cfg.MaxSignals || a.seenSignals[key] {
		return
	}
	a.seenSignals[key] = true
	a.signals = append(a.signals, model.AcquisitionSignal{
		Text:       sig.Text,
		Date:       sig.Date,
		Provenance: a.provenance(page, false),
	})
}

func (a *accumulator) addSnippet(hit snippetHit, page model.FetchedPage) {
	key := hit.Category + "|" + strings.ToLower(hit.Text)
	if len(a.snippets) >= a.cfg.MaxSnippets || a.seenSnips[key] {
		return
	}
	a.seenSnips[key] = true
	a.snippets = append(a.snippets, model.Snippet{
		Category:   hit.Category,
		Text:       hit.Text,
		Provenance: a.provenance(page, false),
	})
}
