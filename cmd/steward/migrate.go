package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agenthands/steward/internal/core"
)

var checkCmd = &cobra.Command{
	Use:   "check MAPPED TARGET",
	Short: "Check mapped records against the target data",
	Long:  `Find mapped records that already exist in the target and write the duplicate and unique files.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		keys, _ := cmd.Flags().GetStringSlice("keys")
		handling, _ := cmd.Flags().GetString("handling")

		req := core.CheckRequest{
			MappedFilePath:    args[0],
			TargetDataFile:    args[1],
			KeyFields:         keys,
			DuplicateHandling: handling,
		}
		if cmd.Flags().Changed("threshold") {
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			req.SimilarityThreshold = &threshold
		}

		resp, err := svc.Steward.ValidateAndCheckDuplicates(context.Background(), req)
		report("Duplicate Check", resp, err)
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer MAPPED TARGET",
	Short: "Transfer mapped records to the target",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		handling, _ := cmd.Flags().GetString("handling")

		resp, err := svc.Steward.ProcessDuplicates(context.Background(), core.ProcessRequest{
			MappedFilePath: args[0],
			TargetPath:     args[1],
			HandlingOption: handling,
		})
		report("Transfer", resp, err)
	},
}

func init() {
	checkCmd.Flags().StringSlice("keys", nil, "Fields identifying a record (default common columns)")
	checkCmd.Flags().Float64("threshold", 0, "Minimum 0-100 similarity of a duplicate")
	checkCmd.Flags().String("handling", "", "ask, skip, overwrite or append")
	transferCmd.Flags().String("handling", "skip", "skip, overwrite or append")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(transferCmd)
}
