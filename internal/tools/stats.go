package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewStatsHandler creates the get_stats tool handler.
func NewStatsHandler(deps *Dependencies) mcp.ToolHandlerFor[EmptyInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (
		*mcp.CallToolResult, any, error,
	) {
		if deps.Metrics == nil {
			return ErrorResult("Statistics are not available", ""), nil, nil
		}
		return JSONResult(deps.Metrics.Snapshot()), nil, nil
	}
}
