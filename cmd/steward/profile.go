package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agenthands/steward/internal/core"
)

var profileCmd = &cobra.Command{
	Use:   "profile FILE",
	Short: "Profile a CSV file",
	Long:  `Describe every column, score data quality, look for duplicates and suggest a cleaning plan.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		columns, _ := cmd.Flags().GetStringSlice("columns")
		noDuplicates, _ := cmd.Flags().GetBool("no-duplicates")
		ai, _ := cmd.Flags().GetBool("ai")
		graph, _ := cmd.Flags().GetBool("graph")

		req := core.ProfileRequest{
			FilePath:     args[0],
			FocusColumns: columns,
			AIAnalysis:   ai,
			ExportGraph:  graph,
		}
		if noDuplicates {
			analyze := false
			req.AnalyzeDuplicates = &analyze
		}
		if cmd.Flags().Changed("threshold") {
			threshold, _ := cmd.Flags().GetInt("threshold")
			req.SimilarityThreshold = &threshold
		}

		resp, err := svc.Steward.ProfileCSV(context.Background(), req)
		report("Profile", resp, err)
	},
}

func init() {
	profileCmd.Flags().StringSlice("columns", nil, "Columns to describe (default all)")
	profileCmd.Flags().Bool("no-duplicates", false, "Skip duplicate detection")
	profileCmd.Flags().Int("threshold", 0, "Minimum 0-100 similarity for fuzzy duplicates")
	profileCmd.Flags().Bool("ai", false, "Ask the configured language model for insights")
	profileCmd.Flags().Bool("graph", false, "Export duplicate groups to the graph database")
	rootCmd.AddCommand(profileCmd)
}
