package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-pipeline/internal/scoring"
	"github.com/sells-group/leadgen-pipeline/internal/stats"
	"github.com/sells-group/leadgen-pipeline/internal/store"
	"github.com/sells-group/leadgen-pipeline/pkg/anthropic"
)

var (
	scoreRunID   string
	scoreRescore bool
	scoreLimit   int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score leads with the two-stage LLM pipeline",
	Long:  "Runs facts extraction (haiku) then calibrated scoring (sonnet) per lead, with bounded cross-lead concurrency. Re-scoring overwrites verdicts only; extraction provenance is untouched.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("score"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		filter := store.LeadFilter{
			CampaignRunID: scoreRunID,
			UnscoredOnly:  !scoreRescore,
			Limit:         scoreLimit,
		}
		leads, err := st.ListLeads(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "score: list leads")
		}
		if len(leads) == 0 {
			zap.L().Info("no leads to score")
			return nil
		}

		market := stats.NewEngine(st, cfg.Stats.MinCohortSize)
		engine := scoring.NewEngine(st, anthropic.NewClient(cfg.Anthropic.Key), market, cfg.Anthropic, cfg.Scoring)

		summary, err := engine.ScoreBatch(ctx, leads)
		if err != nil {
			return eris.Wrap(err, "score")
		}

		zap.L().Info("scoring complete",
			zap.Int("scored", summary.Scored),
			zap.Int("excluded", summary.Excluded),
			zap.Int("malformed", summary.Malformed),
			zap.Int("provider_errors", summary.ProviderErrors),
			zap.Int("skipped", summary.Skipped),
		)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreRunID, "run", "", "restrict to leads from one campaign run")
	scoreCmd.Flags().BoolVar(&scoreRescore, "rescore", false, "re-score leads that already have verdicts")
	scoreCmd.Flags().IntVar(&scoreLimit, "limit", 0, "max leads to score (0 = all)")
	rootCmd.AddCommand(scoreCmd)
}
