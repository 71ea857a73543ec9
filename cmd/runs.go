package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-pipeline/internal/model"
	"github.com/sells-group/leadgen-pipeline/internal/store"
)

var (
	runsCampaignID string
	runsStatus     string
	runsLimit      int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect campaign run history",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaign runs with their counters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runs, err := st.ListCampaignRuns(ctx, store.RunFilter{
			CampaignID: runsCampaignID,
			Status:     model.RunStatus(runsStatus),
			Limit:      runsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a campaign run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetCampaignRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func formatRunsList(w io.Writer, runs []model.CampaignRun) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCAMPAIGN\tSTATUS\tQUERIES\tLEADS\tDUPES\tERRORS\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.CampaignID, r.Status,
			r.QueriesExecuted, r.LeadsFound, r.DuplicatesSkipped, r.Errors,
			r.StartedAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	runsListCmd.Flags().StringVar(&runsCampaignID, "campaign", "", "filter by campaign ID")
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (queued|running|completed|failed)")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 50, "max runs to list")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
