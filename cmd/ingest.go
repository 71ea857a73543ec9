package main

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-pipeline/internal/ingest"
	"github.com/sells-group/leadgen-pipeline/internal/model"
	"github.com/sells-group/leadgen-pipeline/pkg/google"
)

var (
	ingestJobPath    string
	ingestCampaignID string
	ingestSearchList string
	ingestMaxResults int
	ingestSkipCached bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run a places ingestion job",
	Long:  "Executes one ingestion job: loads the search list, queries Google Places with rate-limited pagination, and persists deduplicated leads.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
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

		var job *model.Job
		switch {
		case ingestJobPath != "":
			data, err := os.ReadFile(ingestJobPath)
			if err != nil {
				return eris.Wrap(err, "ingest: read job descriptor")
			}
			job = &model.Job{}
			if err := json.Unmarshal(data, job); err != nil {
				return eris.Wrap(err, "ingest: parse job descriptor")
			}
		case ingestCampaignID != "" && ingestSearchList != "":
			run, err := st.CreateCampaignRun(ctx, ingestCampaignID)
			if err != nil {
				return eris.Wrap(err, "ingest: create campaign run")
			}
			job = &model.Job{
				ID:                 uuid.NewString(),
				CampaignID:         ingestCampaignID,
				CampaignRunID:      run.ID,
				SearchListURL:      ingestSearchList,
				SkipCachedSearches: ingestSkipCached,
				MaxResultsPerQuery: ingestMaxResults,
			}
			if err := st.CreateJob(ctx, job); err != nil {
				return eris.Wrap(err, "ingest: create job")
			}
		default:
			return eris.New("ingest: either --job or both --campaign and --search-list are required")
		}

		var gopts []google.Option
		if cfg.Google.BaseURL != "" {
			gopts = append(gopts, google.WithBaseURL(cfg.Google.BaseURL))
		}
		engine := ingest.NewEngine(st, google.NewClient(cfg.Google.Key, gopts...), cfg)

		run, err := engine.Run(ctx, job)
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		zap.L().Info("ingestion complete",
			zap.String("campaign_run_id", run.ID),
			zap.Int("queries_executed", run.QueriesExecuted),
			zap.Int("leads_found", run.LeadsFound),
			zap.Int("duplicates_skipped", run.DuplicatesSkipped),
			zap.Int("errors", run.Errors),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestJobPath, "job", "", "path to a job descriptor JSON file")
	ingestCmd.Flags().StringVar(&ingestCampaignID, "campaign", "", "campaign ID to mint a new run for")
	ingestCmd.Flags().StringVar(&ingestSearchList, "search-list", "", "search list URL or file path")
	ingestCmd.Flags().IntVar(&ingestMaxResults, "max-results", 0, "max results per query (default from config, capped at 60)")
	ingestCmd.Flags().BoolVar(&ingestSkipCached, "skip-cached", true, "skip searches executed within the cache window")
	rootCmd.AddCommand(ingestCmd)
}
