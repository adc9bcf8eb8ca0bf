package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/steward/internal/core"
)

var routeCmd = &cobra.Command{
	Use:   "route [REQUEST...]",
	Short: "Show which agent handles a request next",
	Run: func(cmd *cobra.Command, args []string) {
		source, _ := cmd.Flags().GetString("source")

		resp, err := svc.Steward.Route(context.Background(), core.RouteRequest{
			Request:    strings.Join(args, " "),
			DataSource: source,
		})
		report("Route", resp, err)
	},
}

var leadCmd = &cobra.Command{
	Use:   "lead TASK",
	Short: "Show the next orchestration action for a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")

		resp, err := svc.Steward.Lead(context.Background(), core.LeadRequest{Task: args[0], Status: status})
		report("Lead", resp, err)
	},
}

func init() {
	routeCmd.Flags().String("source", "", "CSV file the request is about")
	leadCmd.Flags().String("status", "", "pending, in_progress, completed or failed")

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(leadCmd)
}
