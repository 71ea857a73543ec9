package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseJSONLD_LocalBusiness(t *testing.T) {
	html := `<html><head>
	<script type="application/ld+json">
	{
		"@context": "https://schema.org",
		"@type": "LocalBusiness",
		"name": "Acme Plumbing",
		"foundingDate": "1987-06-01",
		"telephone": "+1-303-555-0123",
		"email": "mailto:office@acmeplumbing.com",
		"numberOfEmployees": {"@type": "QuantitativeValue", "value": 22},
		"sameAs": ["https://www.facebook.com/acmeplumbing", "https://linkedin.com/company/acme"]
	}
	</script>
	</head></html>`

	facts := parseJSONLD(html)
	assert.Equal(t, 1987, facts.FoundedYear)
	assert.Equal(t, 22, facts.EmployeeCount)
	assert.Equal(t, "(303) 555-0123", facts.Telephone)
	assert.Equal(t, "office@acmeplumbing.com", facts.Email)
	assert.Len(t, facts.SameAs, 2)
}

func TestParseJSONLD_GraphAndTypeArray(t *testing.T) {
	html := `<script type="application/ld+json">
	{"@graph": [
		{"@type": "WebSite", "name": "ignored"},
		{"@type": ["Plumber", "LocalBusiness"], "foundingDate": "2005", "numberOfEmployees": "14"}
	]}
	</script>`

	facts := parseJSONLD(html)
	assert.Equal(t, 2005, facts.FoundedYear)
	assert.Equal(t, 14, facts.EmployeeCount)
}

func TestParseJSONLD_BusinessSubtype(t *testing.T) {
	html := `<script type="application/ld+json">{"@type": "HVACBusiness", "foundingDate": "1999"}</script>`
	assert.Equal(t, 1999, parseJSONLD(html).FoundedYear)
}

func TestParseJSONLD_MalformedBlockSkipped(t *testing.T) {
	html := `<script type="application/ld+json">{not json</script>
	<script type="application/ld+json">{"@type": "Organization", "foundingDate": "2010"}</script>`

	assert.Equal(t, 2010, parseJSONLD(html).FoundedYear)
}

func TestParseJSONLD_ImplausibleValuesRejected(t *testing.T) {
	html := `<script type="application/ld+json">
	{"@type": "Organization", "foundingDate": "0800", "numberOfEmployees": 9999999}
	</script>`

	facts := parseJSONLD(html)
	assert.Zero(t, facts.FoundedYear)
	assert.Zero(t, facts.EmployeeCount)
}

func TestParseJSONLD_NoBlocks(t *testing.T) {
	assert.Equal(t, jsonldFacts{}, parseJSONLD("<html><body>plain page</body></html>"))
}
