package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-pipeline/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Maintain market statistics and percentile rankings",
}

var statsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rematerialize cohort distributions and recompute lead percentiles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("stats"); err != nil {
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

		engine := stats.NewEngine(st, cfg.Stats.MinCohortSize)
		if err := engine.Refresh(ctx); err != nil {
			return err
		}

		updated, err := engine.ComputePercentiles(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("stats refresh complete", zap.Int("leads_updated", updated))
		return nil
	},
}

var statsPercentilesCmd = &cobra.Command{
	Use:   "percentiles",
	Short: "Recompute lead percentiles against the current cohort snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("stats"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		updated, err := stats.NewEngine(st, cfg.Stats.MinCohortSize).ComputePercentiles(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("percentiles recomputed", zap.Int("leads_updated", updated))
		return nil
	},
}

var statsContextCmd = &cobra.Command{
	Use:   "context <lead-id>",
	Short: "Print the market-context paragraph used in the scoring prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("stats"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var leadID int64
		if _, err := fmt.Sscan(args[0], &leadID); err != nil {
			return eris.Errorf("stats context: invalid lead id %q", args[0])
		}

		lead, err := st.GetLead(ctx, leadID)
		if err != nil {
			return eris.Wrap(err, "stats context")
		}
		if lead == nil {
			return eris.Errorf("stats context: lead %d not found", leadID)
		}

		text, err := stats.NewEngine(st, cfg.Stats.MinCohortSize).ContextForLead(ctx, lead)
		if err != nil {
			return err
		}
		if text == "" {
			fmt.Fprintln(os.Stderr, "No market context available for this lead.")
			return nil
		}
		fmt.Fprintln(os.Stdout, text)
		return nil
	},
}

func init() {
	statsCmd.AddCommand(statsRefreshCmd)
	statsCmd.AddCommand(statsPercentilesCmd)
	statsCmd.AddCommand(statsContextCmd)
	rootCmd.AddCommand(statsCmd)
}
