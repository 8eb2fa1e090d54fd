package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxArgLogLen is the maximum length for logged arguments before truncation.
const maxArgLogLen = 200

// slowRequestThreshold is the duration above which protocol requests are
// logged at WARN level. Tool calls run the classifier and LLM, so they are
// always logged at INFO with their duration instead.
const slowRequestThreshold = 100 * time.Millisecond

// LoggingMiddleware returns middleware that logs all requests with timing.
// Tool results flagged as errors are logged at WARN level.
// Arguments are truncated to 200 characters.
func LoggingMiddleware(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()

			result, err := next(ctx, method, req)

			duration := time.Since(start)

			attrs := []any{
				"method", method,
				"duration_ms", duration.Milliseconds(),
			}

			tool, args := callParams(req)
			if tool != "" {
				attrs = append(attrs, "tool", tool)
			}
			if args != "" {
				attrs = append(attrs, "params", truncate(args, maxArgLogLen))
			}

			switch {
			case err != nil:
				attrs = append(attrs, "error", err.Error())
				logger.Error("request failed", attrs...)
			case isToolError(result):
				logger.Warn("tool returned error", attrs...)
			case tool != "":
				logger.Info("tool completed", attrs...)
			case duration > slowRequestThreshold:
				logger.Warn("slow request", attrs...)
			default:
				logger.Debug("request completed", attrs...)
			}

			return result, err
		}
	}
}

// callParams returns the tool name and raw arguments of a tools/call
// request, or just the formatted params for any other request.
func callParams(req mcp.Request) (tool, args string) {
	params := req.GetParams()
	if params == nil {
		return "", ""
	}
	if call, ok := params.(*mcp.CallToolParamsRaw); ok && call != nil {
		return call.Name, string(call.Arguments)
	}
	return "", fmt.Sprintf("%+v", params)
}

func isToolError(result mcp.Result) bool {
	r, ok := result.(*mcp.CallToolResult)
	return ok && r != nil && r.IsError
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
