package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-pipeline/internal/ingest"
	"github.com/sells-group/leadgen-pipeline/internal/model"
)

var (
	campaignName        string
	campaignDescription string
	campaignFile        string
	campaignOut         string
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Manage lead-sourcing campaigns",
}

var campaignsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Create a campaign from a search-phrase file",
	Long:  "Reads search phrases from an XLSX or YAML file, creates the campaign, and writes the search-list JSON referenced by ingestion jobs.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if campaignName == "" || campaignFile == "" {
			return eris.New("campaigns: --name and --file are required")
		}

		list, err := ingest.ParseSearchFile(campaignFile)
		if err != nil {
			return err
		}

		if err := cfg.Validate("migrate"); err != nil {
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

		campaign, err := st.CreateCampaign(ctx, campaignName, campaignDescription)
		if err != nil {
			return eris.Wrap(err, "campaigns: create campaign")
		}

		out := campaignOut
		if out == "" {
			out = strings.ReplaceAll(strings.ToLower(campaignName), " ", "-") + ".searches.json"
		}
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return eris.Wrap(err, "campaigns: marshal search list")
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return eris.Wrap(err, "campaigns: write search list")
		}

		zap.L().Info("campaign imported",
			zap.String("campaign_id", campaign.ID),
			zap.String("name", campaign.Name),
			zap.Int("searches", len(list.Searches)),
			zap.String("search_list", out),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "campaign %s created with %d searches (%s)\n", campaign.ID, len(list.Searches), out)
		return nil
	},
}

var campaignsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("migrate"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		campaigns, err := st.ListCampaigns(ctx)
		if err != nil {
			return eris.Wrap(err, "campaigns: list")
		}

		fmt.Fprint(cmd.OutOrStdout(), formatCampaignsList(campaigns))
		return nil
	},
}

func formatCampaignsList(campaigns []model.Campaign) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CAMPAIGN ID\tNAME\tDESCRIPTION\tCREATED")
	for _, c := range campaigns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			c.ID, c.Name, c.Description, c.CreatedAt.Format("2006-01-02"))
	}
	w.Flush() //nolint:errcheck
	return sb.String()
}

func init() {
	campaignsImportCmd.Flags().StringVar(&campaignName, "name", "", "campaign name")
	campaignsImportCmd.Flags().StringVar(&campaignDescription, "description", "", "campaign description")
	campaignsImportCmd.Flags().StringVar(&campaignFile, "file", "", "XLSX or YAML file of search phrases")
	campaignsImportCmd.Flags().StringVar(&campaignOut, "out", "", "path for the generated search-list JSON (default derived from name)")
	campaignsCmd.AddCommand(campaignsImportCmd)
	campaignsCmd.AddCommand(campaignsListCmd)
	rootCmd.AddCommand(campaignsCmd)
}
