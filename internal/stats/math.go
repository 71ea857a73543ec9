// Package stats maintains materialized cohort distributions and turns
// raw 1-10 scores into market-relative percentile ranks and an
// entropy-weighted composite score.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// MinCohortSize is the default floor below which a cohort yields no
// percentile ranks. Too few members make a percent-rank meaningless.
const MinCohortSize = 5

// Histogram counts occurrences per score value within one cohort.
type Histogram map[int]int

// Size returns the total member count.
func (h Histogram) Size() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// Entropy returns the Shannon entropy (base-10 log) of the score
// distribution. A constant-valued cohort has entropy 0: ranking inside
// it carries no information.
func (h Histogram) Entropy() float64 {
	total := float64(h.Size())
	if total == 0 {
		return 0
	}
	e := 0.0
	for _, count := range h {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		e -= p * math.Log10(p)
	}
	return e
}

// Weight is the cohort's contribution to the composite score:
// cohort size scaled by distribution entropy.
func (h Histogram) Weight() float64 {
	return float64(h.Size()) * h.Entropy()
}

// PercentRank returns the statistical percent-rank (0-100) of score
// within the histogram: the share of members strictly below it, plus
// half the members tied with it.
func (h Histogram) PercentRank(score int) float64 {
	total := h.Size()
	if total == 0 {
		return 0
	}
	below, equal := 0, 0
	for value, count := range h {
		switch {
		case value < score:
			below += count
		case value == score:
			equal += count
		}
	}
	return 100 * (float64(below) + float64(equal)/2) / float64(total)
}

// weightedRank pairs one raw percentile with its cohort weight.
type weightedRank struct {
	pct    float64
	weight float64
}

// CompositeScore returns the weighted mean of the available percentile
// ranks. The second return is false when no rank carries weight, which
// leaves the composite undefined.
func CompositeScore(ranks []weightedRank) (float64, bool) {
	var sum, weightSum float64
	for _, r := range ranks {
		sum += r.pct * r.weight
		weightSum += r.weight
	}
	if weightSum == 0 {
		return 0, false
	}
	return sum / weightSum, true
}

// bucketStep is one labeled percentile threshold, walked highest first.
type bucketStep struct {
	pct   float64
	label string
}

var bucketSteps = []bucketStep{
	{99.9, "99.9th+ percentile"},
	{99, "99th–99.9th percentile"},
	{95, "95th–99th percentile"},
	{90, "90th–95th percentile"},
	{85, "85th–90th percentile"},
	{80, "80th–85th percentile"},
	{75, "75th–80th percentile"},
	{70, "70th–75th percentile"},
	{65, "65th–70th percentile"},
	{60, "60th–65th percentile"},
	{55, "55th–60th percentile"},
	{50, "50th–55th percentile"},
	{45, "45th–50th percentile"},
	{40, "40th–45th percentile"},
	{35, "35th–40th percentile"},
	{30, "30th–35th percentile"},
	{25, "25th–30th percentile"},
	{20, "20th–25th percentile"},
	{15, "15th–20th percentile"},
	{10, "10th–15th percentile"},
	{5, "5th–10th percentile"},
	{0, "below minimum"},
}

// BucketLabel maps a percent-rank (0-100) to its display bucket,
// walking thresholds from 99.9 down.
func BucketLabel(pct float64) string {
	for _, step := range bucketSteps {
		if pct >= step.pct && step.pct > 0 {
			return step.label
		}
	}
	return "below minimum"
}

// PercentRankOf returns the percent-rank of value within a sample of
// raw observations (review counts). Used for bucket labeling and the
// market-context paragraph, where the data is a value list rather than
// a score histogram.
func PercentRankOf(value float64, sample []float64) float64 {
	if len(sample) == 0 {
		return 0
	}
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)
	below := sort.SearchFloat64s(sorted, value)
	equal := 0
	for i := below; i < len(sorted) && sorted[i] == value; i++ {
		equal++
	}
	return 100 * (float64(below) + float64(equal)/2) / float64(len(sorted))
}

// ordinal renders 1 -> "1st", 92 -> "92nd" for context paragraphs.
func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
