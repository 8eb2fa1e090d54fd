package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

// ErrorResult creates a tool error result with optional recovery hint.
// If hint is non-empty, formats as "{msg}. {hint}".
// Returns IsError=true so LLM can see the error and self-correct.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// TextResult creates a success result with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// JSONResult creates a success result with v rendered as indented JSON.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result", err.Error())
	}
	return TextResult(string(data))
}

// FormatResults joins items with newlines for list output.
func FormatResults(items []string) string {
	return strings.Join(items, "\n")
}

// sessionError maps a session command failure to a tool error with a hint
// the caller can act on.
func sessionError(err error, view triage.View) *mcp.CallToolResult {
	switch {
	case errors.Is(err, chat.ErrRoomOutOfRange):
		return ErrorResult("Room index out of range",
			fmt.Sprintf("There are %d rooms; call list_rooms for valid indexes", len(view.Rooms)))
	case errors.Is(err, triage.ErrClassifierFailure), errors.Is(err, triage.ErrResponderFailure):
		return ErrorResult(err.Error(),
			fmt.Sprintf("The reply is still pending; call select_room with index %d to retry", view.Current))
	default:
		return ErrorResult(err.Error(), "")
	}
}
