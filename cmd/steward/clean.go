package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/agenthands/steward/internal/core"
	"github.com/agenthands/steward/internal/core/model"
)

var cleanCmd = &cobra.Command{
	Use:   "clean FILE",
	Short: "Clean a CSV file",
	Long: `Remove duplicates, fill missing values and standardize capitalization.

Without --tasks the tasks are derived from a profile of the file. --tasks
takes a JSON list such as [{"type":"remove_exact_duplicates"}].`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tasks, _ := cmd.Flags().GetString("tasks")
		autoApply, _ := cmd.Flags().GetBool("auto-apply")
		output, _ := cmd.Flags().GetString("output")

		req := core.CleanRequest{
			FilePath:   args[0],
			AutoApply:  autoApply,
			OutputPath: output,
		}
		if tasks != "" {
			var envs []model.TaskEnvelope
			if err := json.Unmarshal([]byte(tasks), &envs); err != nil {
				fail("invalid --tasks", err)
			}
			req.CleaningTasks = envs
		}
		if cmd.Flags().Changed("review-threshold") {
			threshold, _ := cmd.Flags().GetFloat64("review-threshold")
			req.ReviewThreshold = &threshold
		}

		resp, err := svc.Steward.CleanData(context.Background(), req)
		report("Clean", resp, err)
	},
}

func init() {
	cleanCmd.Flags().String("tasks", "", "Cleaning tasks as a JSON list")
	cleanCmd.Flags().Bool("auto-apply", false, "Merge fuzzy duplicate groups above the review threshold")
	cleanCmd.Flags().Float64("review-threshold", 0, "Group cohesion below which a person decides")
	cleanCmd.Flags().StringP("output", "o", "", "Where to write the cleaned file")
	rootCmd.AddCommand(cleanCmd)
}
