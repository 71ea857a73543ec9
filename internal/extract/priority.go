// Package extract aggregates structured facts from a lead's crawled
// pages: contacts, people, history, and acquisition signals with full
// source provenance.
package extract

import (
	"net/url"
	"sort"
	"strings"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// prioritySegments are path fragments that mark pages likely to carry
// company facts. Earlier entries rank higher.
var prioritySegments = []string{
	"about",
	"contact",
	"team",
	"staff",
	"leadership",
	"our-story",
	"history",
	"who-we-are",
	"meet",
}

// pagePriority returns the rank of a page URL: 0..n-1 for priority
// segments, len(prioritySegments) otherwise.
func pagePriority(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return len(prioritySegments)
	}
	p := strings.ToLower(u.Path)
	for i, seg := range prioritySegments {
		if strings.Contains(p, seg) {
			return i
		}
	}
	return len(prioritySegments)
}

// orderPages sorts pages so fact-dense pages are visited first: priority
// segment rank, then crawl depth, then input order. The sort is stable,
// so equal pages keep the crawler's ordering.
func orderPages(pages []model.FetchedPage) []model.FetchedPage {
	ordered := make([]model.FetchedPage, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := pagePriority(ordered[i].URL), pagePriority(ordered[j].URL)
		if pi != pj {
			return pi < pj
		}
		return ordered[i].Depth < ordered[j].Depth
	})
	return ordered
}

// isContactPage reports whether the URL looks like a contact page.
func isContactPage(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Path), "contact")
}
