package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

// SubmitInput defines the input schema for the submit_message tool.
type SubmitInput struct {
	Content string `json:"content" jsonschema:"Message to send to the current room"`
}

// SelectInput defines the input schema for the select_room tool.
type SelectInput struct {
	Index int `json:"index" jsonschema:"Zero-based room index as listed by list_rooms"`
}

// EmptyInput is the input schema for tools without arguments.
type EmptyInput struct{}

// ViewResult is the response of every room tool.
type ViewResult struct {
	Current int          `json:"current"`
	State   triage.State `json:"state"`
	Turns   []chat.Turn  `json:"turns"`
	// Reply is the newest assistant turn, if the room ends with one.
	Reply string `json:"reply,omitempty"`
}

func newViewResult(view triage.View) ViewResult {
	r := ViewResult{
		Current: view.Current,
		State:   view.State,
		Turns:   view.Turns,
	}
	if n := len(view.Turns); n > 0 && view.Turns[n-1].Role == chat.RoleAssistant {
		r.Reply = view.Turns[n-1].Content
	}
	return r
}

// command runs fn on the shared session and renders its view or error.
func command(deps *Dependencies, name string, fn func(*triage.Session) (triage.View, error)) *mcp.CallToolResult {
	var view triage.View
	err := deps.Session.Do(func(sess *triage.Session) error {
		var err error
		view, err = fn(sess)
		return err
	})
	if err != nil {
		deps.Logger.Warn("room command failed", "tool", name, "error", err)
		return sessionError(err, view)
	}
	return JSONResult(newViewResult(view))
}

// NewSubmitHandler creates the submit_message tool handler.
// Appends a user turn to the current room and returns the assistant reply.
func NewSubmitHandler(deps *Dependencies) mcp.ToolHandlerFor[SubmitInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SubmitInput) (
		*mcp.CallToolResult, any, error,
	) {
		if strings.TrimSpace(input.Content) == "" {
			return ErrorResult("Content is required", "Provide the suspicious message or a follow-up question"), nil, nil
		}
		return command(deps, "submit_message", func(sess *triage.Session) (triage.View, error) {
			return sess.Submit(ctx, input.Content)
		}), nil, nil
	}
}

// NewNewRoomHandler creates the new_room tool handler.
func NewNewRoomHandler(deps *Dependencies) mcp.ToolHandlerFor[EmptyInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (
		*mcp.CallToolResult, any, error,
	) {
		return command(deps, "new_room", func(sess *triage.Session) (triage.View, error) {
			return sess.NewRoom(ctx)
		}), nil, nil
	}
}

// NewSelectRoomHandler creates the select_room tool handler.
// Selecting the current room retries a pending reply.
func NewSelectRoomHandler(deps *Dependencies) mcp.ToolHandlerFor[SelectInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SelectInput) (
		*mcp.CallToolResult, any, error,
	) {
		return command(deps, "select_room", func(sess *triage.Session) (triage.View, error) {
			return sess.SelectRoom(ctx, input.Index)
		}), nil, nil
	}
}

// NewClearRoomHandler creates the clear_room tool handler.
func NewClearRoomHandler(deps *Dependencies) mcp.ToolHandlerFor[EmptyInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (
		*mcp.CallToolResult, any, error,
	) {
		return command(deps, "clear_room", func(sess *triage.Session) (triage.View, error) {
			return sess.ClearRoom(ctx)
		}), nil, nil
	}
}

// NewListRoomsHandler creates the list_rooms tool handler.
func NewListRoomsHandler(deps *Dependencies) mcp.ToolHandlerFor[EmptyInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (
		*mcp.CallToolResult, any, error,
	) {
		var rooms []chat.RoomSummary
		_ = deps.Session.Do(func(sess *triage.Session) error {
			rooms = sess.Store().Rooms()
			return nil
		})

		lines := make([]string, 0, len(rooms))
		for _, r := range rooms {
			marker := ""
			if r.Current {
				marker = " (current)"
			}
			lines = append(lines, fmt.Sprintf("%d: %s, %d turns%s", r.Index, r.Title, r.Turns, marker))
		}
		return TextResult(FormatResults(lines)), nil, nil
	}
}
