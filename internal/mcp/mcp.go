// Package mcp publishes the steward tools as an MCP server.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/agenthands/steward/internal/core"
	"github.com/agenthands/steward/internal/logging"
)

const instructions = `Steward prepares CSV data for migration. Start with profile_csv, ` +
	`clean with clean_data, map with map_data and the mapping tools, then check the mapped file ` +
	`against the target with validate_and_check_duplicates and transfer it with process_duplicates. ` +
	`steward_route suggests the next step.`

// New registers every steward tool on a new MCP server.
func New(steward *core.Steward, version string, logger *zap.Logger) *server.MCPServer {
	logger = logging.OrNop(logger)
	s := server.NewMCPServer(
		"steward",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range steward.Tools() {
		s.AddTool(definition(t), handle(t, logger))
	}
	return s
}

// ServeStdio serves s on stdin and stdout until the input closes.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func definition(t core.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, p := range t.Params {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		switch p.Type {
		case core.TypeString:
			opts = append(opts, mcp.WithString(p.Name, popts...))
		case core.TypeNumber:
			opts = append(opts, mcp.WithNumber(p.Name, popts...))
		case core.TypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, popts...))
		case core.TypeArray:
			opts = append(opts, mcp.WithArray(p.Name, popts...))
		case core.TypeObject:
			opts = append(opts, mcp.WithObject(p.Name, popts...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}

func handle(t core.Tool, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
		}
		result, err := t.Run(ctx, args)
		if err != nil {
			logger.Warn("tool failed", zap.String("tool", t.Name), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
