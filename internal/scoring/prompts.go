// Package scoring runs the two-stage LLM verdict per lead: a facts
// extraction pass over crawl text, then a calibrated scoring pass
// against market context.
package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// scoringSystemText carries the calibration policy shared by every
// scoring call, so it is cached once per run.
const scoringSystemText = `You are an M&A analyst evaluating small businesses as acquisition candidates for an advisory firm.

You will receive extracted facts about one business plus market context. Return ONLY a valid JSON object:
{"ownership_type": "<founder-owned|family-owned|partner-owned|pe-backed|corporate-subsidiary|franchise-location|government|non-profit|unknown>",
 "is_excluded": <bool>, "exclude_reason": "<why, or empty>",
 "quality_score": <1-10 or -1>, "exit_readiness_score": <1-10 or -1>,
 "rationale": "<2-4 sentences citing the evidence>"}

Exclusion policy (is_excluded=true, do not rank):
- PE-backed or already acquired / corporate subsidiary
- Government or non-profit entities
- Franchise locations of a national brand

Scoring calibration:
- quality_score measures operational quality: tenure, team depth, reviews vs. market, certifications. Target distribution: 5-6 is typical, 8+ is rare (top decile of its market), 1-2 means clearly troubled.
- exit_readiness_score measures likelihood the owner would sell: owner age signals, succession gaps, 20+ years tenure, thin online presence with strong fundamentals. 8+ means multiple strong signals.
- Missing signals are negative evidence: a business with no team page, no history, no reviews scores low, not neutral.
- Use -1 for a dimension ONLY when the evidence is too thin to score at all. Never guess a middle value to hedge.`

// factsSystemText guides the stage 1 pass: extraction, not judgment.
const factsSystemText = `You are a research assistant extracting facts about one business from its website text. Extract only what the text states. Do not infer, estimate, or fill gaps. Return ONLY a valid JSON object matching the requested schema; use null for anything the text does not state.`

const factsPromptTemplate = `Business: %s (%s) in %s, %s.

Structured data already extracted from the site:
%s

Website text:
%s

Return a JSON object:
{"owner_names": [<full names with roles where stated>],
 "founded_year": <int or null>, "employee_count": <int or null>,
 "services": [<main service lines>],
 "ownership_signals": "<quotes about ownership: family-owned, veteran-owned, PE, parent company, franchise>",
 "succession_signals": "<quotes about retirement, next generation, selling>",
 "acquisition_history": "<quotes about being acquired or merging, or null>",
 "certifications": [<licenses, awards, accreditations>],
 "notable": "<anything else material to valuing this business, or null>"}`

const verdictPromptTemplate = `Evaluate this business.

Business: %s (%s) in %s, %s. Google rating %.1f over %d reviews.

Extracted facts:
%s

%s

Return the verdict JSON object.`

// buildFactsPrompt renders the stage 1 user prompt. Crawl text is
// truncated to the configured budget, whole pages at a time.
func buildFactsPrompt(lead *model.Lead, data *model.ExtractedData, pages []model.ScrapedPage, maxChars int) string {
	seed, _ := json.Marshal(data)
	return fmt.Sprintf(factsPromptTemplate,
		lead.Name, lead.BusinessType, lead.City, lead.State,
		string(seed),
		buildCrawlText(pages, maxChars),
	)
}

// buildVerdictPrompt renders the stage 2 user prompt from parsed facts
// and the market-context paragraph.
func buildVerdictPrompt(lead *model.Lead, factsJSON, marketContext string) string {
	if marketContext == "" {
		marketContext = "No market context available for this cohort."
	}
	return fmt.Sprintf(verdictPromptTemplate,
		lead.Name, lead.BusinessType, lead.City, lead.State,
		lead.Rating, lead.ReviewCount,
		factsJSON,
		marketContext,
	)
}

// buildCrawlText concatenates page text blocks under a character
// budget, pages in stored order, each labeled with its URL.
func buildCrawlText(pages []model.ScrapedPage, maxChars int) string {
	var b strings.Builder
	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		block := fmt.Sprintf("--- %s ---\n%s", p.URL, p.Text)
		if b.Len()+len(block) > maxChars {
			remaining := maxChars - b.Len()
			if remaining > 200 {
				b.WriteString(block[:remaining])
			}
			break
		}
		b.WriteString(block)
		b.WriteString("\n\n")
	}
	if b.Len() == 0 {
		return "(no crawl text available)"
	}
	return b.String()
}

// cleanJSON strips markdown code fences and surrounding prose so the
// response can be unmarshaled.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		text = strings.TrimPrefix(text, "json")
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	}
	// Trim any leading prose before the first brace.
	if i := strings.Index(text, "{"); i > 0 {
		text = text[i:]
	}
	if j := strings.LastIndex(text, "}"); j >= 0 {
		text = text[:j+1]
	}
	return strings.TrimSpace(text)
}
