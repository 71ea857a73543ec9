package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no lang", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"leading prose", `Here is the verdict: {"a": 1}`, `{"a": 1}`},
		{"trailing prose", `{"a": 1} Hope that helps!`, `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func TestParseVerdict(t *testing.T) {
	v, status := parseVerdict(`{"quality_score": 5, "exit_readiness_score": 5, "rationale": "ok"}`)
	require.Equal(t, StatusParsed, status)
	assert.Equal(t, "unknown", v.OwnershipType) // defaulted

	_, status = parseVerdict(`{"quality_score": 5, "exit_readiness_score": 11}`)
	assert.Equal(t, StatusMalformed, status)

	_, status = parseVerdict(`{"quality_score": -2, "exit_readiness_score": 5}`)
	assert.Equal(t, StatusMalformed, status)
}

func TestBuildCrawlText_Budget(t *testing.T) {
	pages := []model.ScrapedPage{
		{URL: "https://acme.com/a", Text: strings.Repeat("a", 500)},
		{URL: "https://acme.com/b", Text: strings.Repeat("b", 500)},
		{URL: "https://acme.com/c", Text: strings.Repeat("c", 500)},
	}

	text := buildCrawlText(pages, 1200)
	assert.LessOrEqual(t, len(text), 1200)
	assert.Contains(t, text, "https://acme.com/a")
	assert.Contains(t, text, "https://acme.com/b")

	assert.Equal(t, "(no crawl text available)", buildCrawlText(nil, 1000))
}

func TestBuildVerdictPrompt_FallbackContext(t *testing.T) {
	lead := &model.Lead{Name: "Acme", BusinessType: "plumber", City: "Denver", State: "CO"}
	prompt := buildVerdictPrompt(lead, "{}", "")
	assert.Contains(t, prompt, "No market context available")
}
