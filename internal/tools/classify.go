package tools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/scamdetect/internal/classifier"
	"github.com/raphaelgruber/scamdetect/internal/prompt"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

// ClassifyInput defines the input schema for the classify_text tool.
type ClassifyInput struct {
	Text string `json:"text" jsonschema:"The suspicious message to classify"`
}

// ClassifyResult is the response from the classify_text tool.
type ClassifyResult struct {
	Label      string  `json:"label"`
	Likelihood float64 `json:"likelihood"`
	Table      string  `json:"table"`
}

// NewClassifyHandler creates the classify_text tool handler.
// Classifies text without touching any room.
func NewClassifyHandler(deps *Dependencies) mcp.ToolHandlerFor[ClassifyInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClassifyInput) (
		*mcp.CallToolResult, any, error,
	) {
		if strings.TrimSpace(input.Text) == "" {
			return ErrorResult("Text is required", "Provide the message to classify"), nil, nil
		}

		var verdict classifier.Result
		err := deps.Session.Do(func(sess *triage.Session) error {
			var err error
			verdict, err = sess.Classify(ctx, input.Text)
			return err
		})
		if err != nil {
			deps.Logger.Warn("classify_text failed", "error", err)
			return ErrorResult(err.Error(), "The classifier may be unavailable"), nil, nil
		}

		return JSONResult(ClassifyResult{
			Label:      verdict.Label,
			Likelihood: verdict.Likelihood,
			Table:      prompt.TableRow(verdict),
		}), nil, nil
	}
}
