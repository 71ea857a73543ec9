package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// jsonldFacts holds facts pulled from one page's JSON-LD blocks. These
// are authoritative: structured data the site owner published
// deliberately, so they win over heuristic matches.
type jsonldFacts struct {
	FoundedYear   int
	EmployeeCount int
	Telephone     string
	Email         string
	SameAs        []string
}

var scriptLDRe = regexp.MustCompile(`(?is)<script[^>]+type\s*=\s*["']application/ld\+json["'][^>]*>(.*?)</script>`)

// orgTypes are the schema.org @type values worth mining. LocalBusiness
// subtypes (Plumber, HVACBusiness, ...) declare the parent via @type
// arrays often enough that we also accept any type containing
// "Business".
var orgTypes = map[string]bool{
	"Organization":  true,
	"LocalBusiness": true,
	"Corporation":   true,
}

// parseJSONLD scans a page's HTML for ld+json script blocks and
// collects Organization/LocalBusiness facts. Malformed blocks are
// skipped; one broken block never hides the others.
func parseJSONLD(html string) jsonldFacts {
	var facts jsonldFacts
	for _, m := range scriptLDRe.FindAllStringSubmatch(html, -1) {
		var doc any
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &doc); err != nil {
			continue
		}
		walkLD(doc, &facts)
	}
	return facts
}

// walkLD descends into a decoded JSON-LD document. Top-level arrays and
// @graph containers both hold node lists.
func walkLD(doc any, facts *jsonldFacts) {
	switch node := doc.(type) {
	case []any:
		for _, item := range node {
			walkLD(item, facts)
		}
	case map[string]any:
		if graph, ok := node["@graph"]; ok {
			walkLD(graph, facts)
		}
		if isOrgNode(node) {
			collectOrgFacts(node, facts)
		}
	}
}

func isOrgNode(node map[string]any) bool {
	switch t := node["@type"].(type) {
	case string:
		return orgTypes[t] || strings.Contains(t, "Business")
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && (orgTypes[s] || strings.Contains(s, "Business")) {
				return true
			}
		}
	}
	return false
}

func collectOrgFacts(node map[string]any, facts *jsonldFacts) {
	if facts.FoundedYear == 0 {
		if y := foundingYear(ldString(node["foundingDate"])); y != 0 {
			facts.FoundedYear = y
		}
	}
	if facts.EmployeeCount == 0 {
		facts.EmployeeCount = employeeCount(node["numberOfEmployees"])
	}
	if facts.Telephone == "" {
		if p := normalizePhone(ldString(node["telephone"])); p != "" {
			facts.Telephone = p
		}
	}
	if facts.Email == "" {
		e := strings.TrimPrefix(ldString(node["email"]), "mailto:")
		if emailRe.MatchString(e) {
			facts.Email = strings.ToLower(e)
		}
	}
	switch sa := node["sameAs"].(type) {
	case string:
		facts.SameAs = append(facts.SameAs, sa)
	case []any:
		for _, v := range sa {
			if s, ok := v.(string); ok {
				facts.SameAs = append(facts.SameAs, s)
			}
		}
	}
}

// ldString accepts the string-or-array shapes schema.org publishers
// actually emit.
func ldString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
				return strings.TrimSpace(str)
			}
		}
	}
	return ""
}

// foundingYear pulls a plausible year out of an ISO-ish foundingDate
// ("1987", "1987-06-01").
func foundingYear(s string) int {
	if len(s) < 4 {
		return 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || !plausibleFoundedYear(y) {
		return 0
	}
	return y
}

// employeeCount handles the number, numeric-string, and
// QuantitativeValue{value|minValue} shapes of numberOfEmployees.
func employeeCount(v any) int {
	switch n := v.(type) {
	case float64:
		return clampHeadcount(int(n))
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return clampHeadcount(i)
	case map[string]any:
		if inner := employeeCount(n["value"]); inner != 0 {
			return inner
		}
		return employeeCount(n["minValue"])
	}
	return 0
}

func clampHeadcount(n int) int {
	if n < 1 || n > 100000 {
		return 0
	}
	return n
}
