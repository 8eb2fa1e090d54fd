// Package tools provides MCP tool handlers and registration.
package tools

import (
	"log/slog"

	"github.com/raphaelgruber/scamdetect/internal/metrics"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Session *triage.Shared
	Metrics *metrics.Collector
	Logger  *slog.Logger
}
