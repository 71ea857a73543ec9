package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindEmails(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain",
			text: "Reach us at Info@AcmePlumbing.com or sales@acme-plumbing.co",
			want: []string{"info@acmeplumbing.com", "sales@acme-plumbing.co"},
		},
		{
			name: "obfuscated brackets",
			text: "email jim [at] acme [dot] com for quotes",
			want: []string{"jim@acme.com"},
		},
		{
			name: "obfuscated parens with subdomain",
			text: "support (at) mail (dot) acme (dot) com",
			want: []string{"support@mail.acme.com"},
		},
		{
			name: "bare at not matched",
			text: "meet us at the shop dot com",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findEmails(tt.text))
		})
	}
}

func TestFindPhones(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"parens", "Call (303) 555-0123 today", []string{"(303) 555-0123"}},
		{"dots", "303.555.0123", []string{"(303) 555-0123"}},
		{"country code", "+1 303-555-0123", []string{"(303) 555-0123"}},
		{"leading zero area code rejected", "099 555 0123", nil},
		{"too few digits", "call 555-0123", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findPhones(tt.text))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "(303) 555-0123", normalizePhone("1-303-555-0123"))
	assert.Equal(t, "", normalizePhone("12345"))
	assert.Equal(t, "", normalizePhone("(103) 555-0123")) // NANP area codes start 2-9
}

func TestFindSocialLinks(t *testing.T) {
	html := `<a href="https://www.facebook.com/acmeplumbing">FB</a>
		<a href="https://linkedin.com/company/acme-plumbing/">LI</a>
		<a href="https://x.com/acmeplumb">X</a>
		<a href="https://facebook.com/">bare root</a>
		<a href="https://twitter.com/intent/tweet?text=hi">share widget</a>`

	links := findSocialLinks(html)
	assert.Len(t, links, 3)
	assert.Equal(t, socialLink{"facebook", "https://www.facebook.com/acmeplumbing"}, links[0])
	assert.Equal(t, socialLink{"linkedin", "https://linkedin.com/company/acme-plumbing"}, links[1])
	assert.Equal(t, "twitter", links[2].Network)
}

func TestFindTeamMembers(t *testing.T) {
	text := `John Smith, Owner and Sarah McDonald - General Manager lead the company.
		Call Mike for a quote. Call today for service.`

	people := findTeamMembers(text)
	assert.Len(t, people, 3)
	assert.Equal(t, personMention{Name: "John Smith", Title: "Owner"}, people[0])
	assert.Equal(t, personMention{Name: "Sarah McDonald", Title: "General Manager"}, people[1])
	assert.Equal(t, personMention{Name: "Mike", FirstOnly: true}, people[2])
}

func TestFindFoundedYear(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"founded in", "Founded in 2005, we serve Denver.", 2005},
		{"since", "Serving the Front Range since 1987.", 1987},
		{"est", "Acme Plumbing, Est. 1999", 1999},
		{"implausibly old", "founded in 1492", 0},
		{"future", "founded in 2099", 0},
		{"none", "we fix pipes", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findFoundedYear(tt.text))
		})
	}
}

func TestFindHeadcount(t *testing.T) {
	assert.Equal(t, 12, findHeadcount("We have a team of 12 ready to help"))
	assert.Equal(t, 40, findHeadcount("with over 40 technicians on call"))
	assert.Equal(t, 25, findHeadcount("25 employees strong"))
	assert.Equal(t, 0, findHeadcount("our team serves you"))
}

func TestFindAcquisitionSignals(t *testing.T) {
	text := "Acme Plumbing was acquired by MegaCorp in June 2021. We still answer our own phones."
	signals := findAcquisitionSignals(text)
	assert.Len(t, signals, 1)
	assert.Contains(t, signals[0].Text, "acquired by MegaCorp")
	assert.Equal(t, "June 2021", signals[0].Date)

	noDate := findAcquisitionSignals("We recently merged with Front Range HVAC to serve you better.")
	assert.Len(t, noDate, 1)
	assert.Empty(t, noDate[0].Date)

	assert.Empty(t, findAcquisitionSignals("We acquired new trucks this spring."))
}

func TestFindSnippets(t *testing.T) {
	text := `Voted Best of Denver 2023. Our NATE-certified technicians are ready. ` +
		`We run a fleet of 30 trucks. Proudly serving the entire metro area. The weather is nice.`

	snippets := findSnippets(text)
	categories := make([]string, len(snippets))
	for i, s := range snippets {
		categories[i] = s.Category
	}
	assert.Equal(t, []string{"award", "certification", "fleet", "service_area"}, categories)
}
