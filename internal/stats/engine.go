package stats

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// Store is the slice of the persistence layer the statistics engine
// needs.
type Store interface {
	RefreshMarketStats(ctx context.Context, minCohortSize int) error
	ListQualifiedLeads(ctx context.Context) ([]model.Lead, error)
	UpdateLeadPercentiles(ctx context.Context, sets []model.PercentileSet) error
	GetMarketStatsByType(ctx context.Context, businessType string) (*model.MarketStats, error)
	GetMarketStatsByCity(ctx context.Context, city, state string) (*model.MarketStats, error)
}

// Engine maintains materialized cohort stats and recomputes percentile
// standings in batch.
type Engine struct {
	store         Store
	minCohortSize int
}

func NewEngine(store Store, minCohortSize int) *Engine {
	if minCohortSize <= 0 {
		minCohortSize = MinCohortSize
	}
	return &Engine{store: store, minCohortSize: minCohortSize}
}

// Refresh rematerializes the per-type, per-city, and per-state
// distribution tables.
func (e *Engine) Refresh(ctx context.Context) error {
	if err := e.store.RefreshMarketStats(ctx, e.minCohortSize); err != nil {
		return eris.Wrap(err, "stats: refresh market stats")
	}
	zap.L().Info("market stats refreshed", zap.Int("min_cohort_size", e.minCohortSize))
	return nil
}

// cohort holds the two score histograms of one grouping key.
type cohort struct {
	quality Histogram
	exit    Histogram
}

func newCohort() *cohort {
	return &cohort{quality: Histogram{}, exit: Histogram{}}
}

func (c *cohort) add(lead *model.Lead) {
	c.quality[*lead.QualityScore]++
	c.exit[*lead.ExitScore]++
}

// ComputePercentiles loads every qualifying lead (both scores present,
// neither the insufficient-evidence sentinel, not excluded), partitions
// by business type and by city+state, and writes back up to four
// percentile ranks plus the entropy-weighted composite per lead.
// Returns the number of leads updated.
func (e *Engine) ComputePercentiles(ctx context.Context) (int, error) {
	leads, err := e.store.ListQualifiedLeads(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "stats: list qualified leads")
	}
	if len(leads) == 0 {
		return 0, nil
	}

	byType := map[string]*cohort{}
	byCity := map[string]*cohort{}
	for i := range leads {
		lead := &leads[i]
		if key := lead.BusinessType; key != "" {
			if byType[key] == nil {
				byType[key] = newCohort()
			}
			byType[key].add(lead)
		}
		if key := cityKey(lead); key != "" {
			if byCity[key] == nil {
				byCity[key] = newCohort()
			}
			byCity[key].add(lead)
		}
	}

	sets := make([]model.PercentileSet, 0, len(leads))
	for i := range leads {
		lead := &leads[i]
		set := model.PercentileSet{LeadID: lead.ID}
		var ranks []weightedRank

		if c := e.qualifyingCohort(byType[lead.BusinessType]); c != nil {
			set.QualityPctByType = rankPtr(c.quality, *lead.QualityScore, &ranks)
			set.ExitPctByType = rankPtr(c.exit, *lead.ExitScore, &ranks)
		}
		if c := e.qualifyingCohort(byCity[cityKey(lead)]); c != nil {
			set.QualityPctByCity = rankPtr(c.quality, *lead.QualityScore, &ranks)
			set.ExitPctByCity = rankPtr(c.exit, *lead.ExitScore, &ranks)
		}

		if composite, ok := CompositeScore(ranks); ok {
			set.CompositeScore = &composite
		}
		sets = append(sets, set)
	}

	if err := e.store.UpdateLeadPercentiles(ctx, sets); err != nil {
		return 0, eris.Wrap(err, "stats: update lead percentiles")
	}

	zap.L().Info("percentiles recomputed",
		zap.Int("leads", len(sets)),
		zap.Int("type_cohorts", len(byType)),
		zap.Int("city_cohorts", len(byCity)))
	return len(sets), nil
}

func (e *Engine) qualifyingCohort(c *cohort) *cohort {
	if c == nil || c.quality.Size() < e.minCohortSize {
		return nil
	}
	return c
}

// rankPtr computes one percent-rank and registers it with its cohort
// weight for the composite. Zero-entropy cohorts still yield a rank but
// contribute no weight.
func rankPtr(h Histogram, score int, ranks *[]weightedRank) *float64 {
	pct := h.PercentRank(score)
	*ranks = append(*ranks, weightedRank{pct: pct, weight: h.Weight()})
	return &pct
}

func cityKey(lead *model.Lead) string {
	if lead.City == "" || lead.State == "" {
		return ""
	}
	return lead.City + "|" + lead.State
}

// ContextForLead assembles the market-context paragraph for the scoring
// prompt, preferring the by-type cohort.
func (e *Engine) ContextForLead(ctx context.Context, lead *model.Lead) (string, error) {
	if lead.BusinessType == "" {
		return "", nil
	}
	ms, err := e.store.GetMarketStatsByType(ctx, lead.BusinessType)
	if err != nil {
		return "", eris.Wrap(err, "stats: get market stats by type")
	}
	return MarketContext(lead, ms), nil
}
