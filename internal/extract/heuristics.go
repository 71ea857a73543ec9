package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailRe = regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`)

	// Obfuscated addresses like "info [at] acme [dot] com". Only the
	// bracketed forms; a bare "at" matches too much English.
	obfuscatedEmailRe = regexp.MustCompile(`(?i)\b([a-zA-Z0-9._%+\-]+)\s*[\[(]\s*at\s*[\])]\s*([a-zA-Z0-9\-]+(?:\s*[\[(]\s*dot\s*[\])]\s*[a-zA-Z0-9\-]+)*)\s*[\[(]\s*dot\s*[\])]\s*([a-zA-Z]{2,})\b`)

	obfuscatedDotRe = regexp.MustCompile(`(?i)\s*[\[(]\s*dot\s*[\])]\s*`)

	phoneRe = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}\b`)

	socialHostRe = regexp.MustCompile(`(?i)https?://(?:www\.)?([a-z0-9.\-]+)(/[^\s"'<>)\]]*)`)

	// "John Smith, Owner" / "Jane O'Brien - General Manager".
	namedTitleRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+(?:[A-Z]\.|[A-Z][a-z]+|O'[A-Z][a-z]+|Mc[A-Z][a-z]+))+)\s*[,\-–]\s*((?:Co-)?(?:Owner|President|CEO|CFO|COO|Founder|Co-Founder|Vice President|General Manager|Manager|Director|Principal|Partner|Operations Manager|Service Manager|Office Manager)s?)\b`)

	// First-name-only mentions: "Call Mike today", "ask for Susan". The
	// captured name stays case-sensitive so ordinary words don't match.
	firstNameRe = regexp.MustCompile(`\b(?i:call|ask for|contact|talk to)\s+([A-Z][a-z]{2,})\b`)

	foundedRe = regexp.MustCompile(`(?i)\b(?:founded in|established in|est\.?|in business since|serving [\w\s]{0,30}since|since)\s+(\d{4})\b`)

	// "team of 12" needs no noun; a bare number does, so "over 40 years"
	// never reads as headcount.
	headcountRe = regexp.MustCompile(`(?i)\b(?:a )?(?:team|staff|crew) of\s+(\d{1,5})\b|\b(?:over|more than|nearly)?\s*(\d{1,5})\s*\+?\s+(?:employees|technicians|team members|professionals|plumbers|electricians)\b`)

	acquisitionRe = regexp.MustCompile(`(?i)[^.!?]*\b(?:acquired by|was acquired|merged with|now (?:a )?part of|joined the [\w\s]{0,30}family of companies)\b[^.!?]*[.!?]?`)

	acquisitionDateRe = regexp.MustCompile(`(?i)\bin\s+((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}|\d{4})\b`)

	sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)
)

// snippetKeywords pairs a snippet category with the lowercase markers
// that place a sentence in it. First matching category wins.
var snippetKeywords = []struct {
	category string
	markers  []string
}{
	{"award", []string{"award", "best of", "winner", "voted"}},
	{"certification", []string{"certified", "certification", "accredited", "licensed and insured", "bbb"}},
	{"fleet", []string{"fleet", "trucks", "service vehicles"}},
	{"service_area", []string{"service area", "serving the", "proudly serving", "we serve"}},
}

// socialNetworks maps a hostname fragment to its canonical network name.
var socialNetworks = map[string]string{
	"facebook.com":  "facebook",
	"linkedin.com":  "linkedin",
	"instagram.com": "instagram",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"youtube.com":   "youtube",
	"yelp.com":      "yelp",
}

func findEmails(text string) []string {
	var out []string
	for _, m := range emailRe.FindAllString(text, -1) {
		out = append(out, strings.ToLower(m))
	}
	for _, m := range obfuscatedEmailRe.FindAllStringSubmatch(text, -1) {
		domain := obfuscatedDotRe.ReplaceAllString(m[2], ".")
		out = append(out, strings.ToLower(m[1]+"@"+domain+"."+m[3]))
	}
	return out
}

// findPhones returns NANP numbers normalized to "(NXX) NXX-XXXX".
func findPhones(text string) []string {
	var out []string
	for _, m := range phoneRe.FindAllString(text, -1) {
		if p := normalizePhone(m); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizePhone strips formatting and a leading country code, and
// rejects anything that is not a plausible ten-digit NANP number.
func normalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 || digits[0] == '0' || digits[0] == '1' {
		return ""
	}
	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}

// socialLink pairs a network name with a profile URL.
type socialLink struct {
	Network string
	URL     string
}

// findSocialLinks scans HTML (not text, since profile links live in
// hrefs) for known social-network profile URLs. Bare domain roots and
// share widgets are skipped.
func findSocialLinks(html string) []socialLink {
	var out []socialLink
	for _, m := range socialHostRe.FindAllStringSubmatch(html, -1) {
		host, path := strings.ToLower(m[1]), m[2]
		network := ""
		for frag, name := range socialNetworks {
			if host == frag || strings.HasSuffix(host, "."+frag) {
				network = name
				break
			}
		}
		if network == "" || path == "/" || strings.Contains(path, "/share") || strings.Contains(path, "/intent/") {
			continue
		}
		out = append(out, socialLink{Network: network, URL: strings.TrimRight(m[0], "/.,")})
	}
	return out
}

// personMention is a heuristic team-member hit on one page.
type personMention struct {
	Name      string
	Title     string
	FirstOnly bool
}

func findTeamMembers(text string) []personMention {
	var out []personMention
	for _, m := range namedTitleRe.FindAllStringSubmatch(text, -1) {
		out = append(out, personMention{Name: m[1], Title: m[2]})
	}
	for _, m := range firstNameRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if commonNonNames[strings.ToLower(name)] {
			continue
		}
		out = append(out, personMention{Name: name, FirstOnly: true})
	}
	return out
}

// commonNonNames are capitalized words that follow "call"/"contact" in
// ordinary copy and are not people.
var commonNonNames = map[string]bool{
	"today": true, "now": true, "our": true, "the": true, "your": true,
	"anytime": true, "toll": true,
}

func findFoundedYear(text string) int {
	for _, m := range foundedRe.FindAllStringSubmatch(text, -1) {
		y, err := strconv.Atoi(m[1])
		if err == nil && plausibleFoundedYear(y) {
			return y
		}
	}
	return 0
}

func plausibleFoundedYear(y int) bool {
	return y >= 1850 && y <= time.Now().Year()
}

func findHeadcount(text string) int {
	for _, m := range headcountRe.FindAllStringSubmatch(text, -1) {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		n, err := strconv.Atoi(raw)
		if err == nil && clampHeadcount(n) != 0 {
			return n
		}
	}
	return 0
}

// acquisitionMention is one acquisition/merger sentence, with a date
// when the sentence names one.
type acquisitionMention struct {
	Text string
	Date string
}

func findAcquisitionSignals(text string) []acquisitionMention {
	var out []acquisitionMention
	for _, sentence := range acquisitionRe.FindAllString(text, -1) {
		m := acquisitionMention{Text: strings.TrimSpace(sentence)}
		if d := acquisitionDateRe.FindStringSubmatch(sentence); d != nil {
			m.Date = d[1]
		}
		out = append(out, m)
	}
	return out
}

// snippetHit is one categorized sentence of interest.
type snippetHit struct {
	Category string
	Text     string
}

// findSnippets splits text into sentences and keeps those matching a
// snippet category. Sentences are trimmed to 300 chars so a missing
// period cannot drag in a whole page.
func findSnippets(text string) []snippetHit {
	var out []snippetHit
	for _, sentence := range sentenceSplitRe.Split(text, -1) {
		s := strings.TrimSpace(sentence)
		if s == "" {
			continue
		}
		if len(s) > 300 {
			s = s[:300]
		}
		if category := snippetCategory(strings.ToLower(s)); category != "" {
			out = append(out, snippetHit{Category: category, Text: s})
		}
	}
	return out
}

func snippetCategory(lower string) string {
	for _, kw := range snippetKeywords {
		for _, marker := range kw.markers {
			if strings.Contains(lower, marker) {
				return kw.category
			}
		}
	}
	return ""
}
