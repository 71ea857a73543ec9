package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-pipeline/internal/extract"
)

var (
	extractLeadID      int64
	extractScrapeRunID string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured facts from a lead's crawled pages",
	Long:  "Runs the two-pass extraction (JSON-LD, then heuristics) over the pages of one scrape run, appends provenance rows, and writes scalar facts onto the lead.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("extract"); err != nil {
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

		engine := extract.NewEngine(st, extract.NewExtractor(cfg.Extract))
		data, err := engine.RunScrape(ctx, extractLeadID, extractScrapeRunID)
		if err != nil {
			return eris.Wrap(err, "extract")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	},
}

func init() {
	extractCmd.Flags().Int64Var(&extractLeadID, "lead", 0, "lead ID (required)")
	extractCmd.Flags().StringVar(&extractScrapeRunID, "scrape-run", "", "scrape run ID (required)")
	_ = extractCmd.MarkFlagRequired("lead")
	_ = extractCmd.MarkFlagRequired("scrape-run")
	rootCmd.AddCommand(extractCmd)
}
