package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agenthands/steward/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the tools over MCP on stdin and stdout",
	Run: func(cmd *cobra.Command, args []string) {
		if err := mcp.ServeStdio(mcp.New(svc.Steward, version, logger)); err != nil {
			fail("mcp server stopped", err)
		}
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded tool runs",
	Run: func(cmd *cobra.Command, args []string) {
		if svc.History == nil {
			fail("no run history", fmt.Errorf("set history.path or STEWARD_HISTORY_PATH"))
		}
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := svc.History.List(context.Background(), limit)
		if err != nil {
			fail("failed to list runs", err)
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(runs) == 0 {
			fmt.Printf("  %s\n", gray("No recorded runs"))
			return
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  %s\n",
				gray(r.CreatedAt.Format(time.DateTime)), yellow(r.Tool), gray(r.ID))
		}
	},
}

func init() {
	runsCmd.Flags().IntP("limit", "n", 20, "Number of recent runs to show")

	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(runsCmd)
}
