package scoring

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-pipeline/internal/config"
	"github.com/sells-group/leadgen-pipeline/internal/model"
	"github.com/sells-group/leadgen-pipeline/internal/resilience"
	"github.com/sells-group/leadgen-pipeline/pkg/anthropic"
)

const (
	factsMaxTokens   = 1024
	verdictMaxTokens = 1024

	defaultMaxConcurrentLeads = 4
	defaultMaxPromptChars     = 24000
)

// Store is the slice of the persistence layer the scoring engine needs.
type Store interface {
	GetLatestExtractedData(ctx context.Context, leadID int64) (*model.ExtractedData, error)
	ListScrapedPages(ctx context.Context, scrapeRunID string) ([]model.ScrapedPage, error)
	UpdateLeadScores(ctx context.Context, lead *model.Lead) error
}

// MarketContextProvider supplies the market-context paragraph injected
// into the stage 2 prompt. stats.Engine satisfies it.
type MarketContextProvider interface {
	ContextForLead(ctx context.Context, lead *model.Lead) (string, error)
}

// Engine orchestrates per-lead two-stage scoring with bounded
// cross-lead concurrency. Within one lead the stages are sequential.
type Engine struct {
	store   Store
	llm     anthropic.Client
	market  MarketContextProvider
	aiCfg   config.AnthropicConfig
	cfg     config.ScoringConfig
	retry   resilience.RetryConfig
	sysOnce sync.Once
	system  []anthropic.SystemBlock
}

func NewEngine(store Store, llm anthropic.Client, market MarketContextProvider, aiCfg config.AnthropicConfig, cfg config.ScoringConfig) *Engine {
	if cfg.MaxConcurrentLeads <= 0 {
		cfg.MaxConcurrentLeads = defaultMaxConcurrentLeads
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = defaultMaxPromptChars
	}
	return &Engine{
		store:  store,
		llm:    llm,
		market: market,
		aiCfg:  aiCfg,
		cfg:    cfg,
		retry:  resilience.DefaultRetryConfig(),
	}
}

func (e *Engine) systemBlocks() []anthropic.SystemBlock {
	e.sysOnce.Do(func() {
		e.system = anthropic.BuildCachedSystemBlocks(scoringSystemText)
	})
	return e.system
}

// ScoreBatch scores every given lead, up to MaxConcurrentLeads at a
// time. Individual failures never abort the batch.
func (e *Engine) ScoreBatch(ctx context.Context, leads []model.Lead) (*Summary, error) {
	if len(leads) == 0 {
		return &Summary{}, nil
	}

	results := make([]LeadResult, len(leads))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrentLeads)

	for i := range leads {
		g.Go(func() error {
			results[i] = e.ScoreLead(gCtx, &leads[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "scoring: batch")
	}

	summary := &Summary{}
	for _, r := range results {
		switch {
		case r.Status == StatusParsed && r.Verdict == nil:
			summary.Skipped++
		case r.Status == StatusParsed && r.Verdict.IsExcluded:
			summary.Excluded++
		case r.Status == StatusParsed:
			summary.Scored++
		case r.Status == StatusMalformed:
			summary.Malformed++
		case r.Status == StatusProviderError:
			summary.ProviderErrors++
		}
	}

	zap.L().Info("scoring batch complete",
		zap.Int("leads", len(leads)),
		zap.Int("scored", summary.Scored),
		zap.Int("excluded", summary.Excluded),
		zap.Int("malformed", summary.Malformed),
		zap.Int("provider_errors", summary.ProviderErrors),
		zap.Int("skipped", summary.Skipped))
	return summary, nil
}

// ScoreLead runs the two stages for one lead and persists the verdict.
// Re-scoring is idempotent: only score fields are overwritten,
// extraction provenance is untouched.
func (e *Engine) ScoreLead(ctx context.Context, lead *model.Lead) LeadResult {
	result := LeadResult{LeadID: lead.ID}
	log := zap.L().With(zap.Int64("lead_id", lead.ID), zap.String("name", lead.Name))

	data, err := e.store.GetLatestExtractedData(ctx, lead.ID)
	if err != nil {
		result.Status, result.Stage, result.Err = StatusProviderError, "facts", err
		log.Warn("scoring: load extracted data failed", zap.Error(err))
		return result
	}
	if data == nil {
		// Never crawled/extracted: nothing to score from.
		log.Debug("scoring: no extraction data, skipping")
		return result
	}

	pages, err := e.store.ListScrapedPages(ctx, data.ScrapeRunID)
	if err != nil {
		result.Status, result.Stage, result.Err = StatusProviderError, "facts", err
		log.Warn("scoring: load scraped pages failed", zap.Error(err))
		return result
	}

	facts, status, err := e.extractFacts(ctx, lead, data, pages)
	if status != StatusParsed {
		result.Status, result.Stage, result.Err = status, "facts", err
		log.Warn("scoring: facts stage failed",
			zap.String("status", status.String()), zap.Error(err))
		return result
	}

	marketCtx := ""
	if e.market != nil {
		if marketCtx, err = e.market.ContextForLead(ctx, lead); err != nil {
			// Market context is enrichment. Score without it.
			log.Warn("scoring: market context unavailable", zap.Error(err))
			marketCtx = ""
		}
	}

	verdict, status, err := e.scoreVerdict(ctx, lead, facts, marketCtx)
	if status != StatusParsed {
		result.Status, result.Stage, result.Err = status, "verdict", err
		log.Warn("scoring: verdict stage failed",
			zap.String("status", status.String()), zap.Error(err))
		return result
	}

	lead.QualityScore = &verdict.QualityScore
	lead.ExitScore = &verdict.ExitReadinessScore
	lead.OwnershipType = verdict.OwnershipType
	lead.ScoreRationale = verdict.Rationale
	lead.IsExcluded = verdict.IsExcluded
	lead.ExcludeReason = verdict.ExcludeReason

	if err := e.store.UpdateLeadScores(ctx, lead); err != nil {
		result.Status, result.Stage, result.Err = StatusProviderError, "persist", err
		log.Error("scoring: persist verdict failed", zap.Error(err))
		return result
	}

	result.Verdict = verdict
	log.Info("lead scored",
		zap.Int("quality", verdict.QualityScore),
		zap.Int("exit_readiness", verdict.ExitReadinessScore),
		zap.String("ownership", verdict.OwnershipType),
		zap.Bool("excluded", verdict.IsExcluded))
	return result
}

// extractFacts runs stage 1 on the haiku-class model.
func (e *Engine) extractFacts(ctx context.Context, lead *model.Lead, data *model.ExtractedData, pages []model.ScrapedPage) (*Facts, StageStatus, error) {
	req := anthropic.MessageRequest{
		Model:     e.aiCfg.ExtractModel,
		MaxTokens: factsMaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(factsSystemText),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildFactsPrompt(lead, data, pages, e.cfg.MaxPromptChars)},
		},
	}

	resp, err := e.createMessage(ctx, req)
	if err != nil {
		return nil, StatusProviderError, err
	}
	resp.Usage.LogCost(e.aiCfg.ExtractModel, "scoring.facts")

	facts, status := parseFacts(resp.Text())
	if status != StatusParsed {
		return nil, status, eris.New("scoring: facts response is not valid JSON")
	}
	return facts, StatusParsed, nil
}

// scoreVerdict runs stage 2 on the sonnet-class model.
func (e *Engine) scoreVerdict(ctx context.Context, lead *model.Lead, facts *Facts, marketCtx string) (*Verdict, StageStatus, error) {
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return nil, StatusMalformed, eris.Wrap(err, "scoring: marshal facts")
	}

	req := anthropic.MessageRequest{
		Model:     e.aiCfg.ScoreModel,
		MaxTokens: verdictMaxTokens,
		System:    e.systemBlocks(),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildVerdictPrompt(lead, string(factsJSON), marketCtx)},
		},
	}

	resp, err := e.createMessage(ctx, req)
	if err != nil {
		return nil, StatusProviderError, err
	}
	resp.Usage.LogCost(e.aiCfg.ScoreModel, "scoring.verdict")

	verdict, status := parseVerdict(resp.Text())
	if status != StatusParsed {
		return nil, status, eris.New("scoring: verdict response failed validation")
	}
	return verdict, StatusParsed, nil
}

// createMessage wraps the LLM call with transient-only retry.
func (e *Engine) createMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	cfg := e.retry
	cfg.OnRetry = resilience.RetryLogger("anthropic", "create_message")
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.llm.CreateMessage(ctx, req)
	})
}
