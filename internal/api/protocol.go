// Package api serves one triage session over HTTP and WebSocket.
package api

import "github.com/raphaelgruber/scamdetect/internal/triage"

// Command types accepted on the WebSocket.
const (
	CommandSubmit  = "submit"
	CommandNewRoom = "new_room"
	CommandClear   = "clear"
	CommandSelect  = "select"
	CommandView    = "view"
)

// Frame types sent on the WebSocket.
const (
	FrameView  = "view"
	FrameError = "error"
)

// Command is a client request on the WebSocket.
type Command struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Index   int    `json:"index,omitempty"`
}

// Frame is a server message on the WebSocket. Every command is answered by
// exactly one frame with Final set; submit may send a non-final view first
// showing the pending user turn.
type Frame struct {
	ID    string       `json:"id,omitempty"`
	Type  string       `json:"type"`
	Final bool         `json:"final"`
	View  *triage.View `json:"view,omitempty"`
	Error string       `json:"error,omitempty"`
}

// MessageRequest is the body of POST /api/messages.
type MessageRequest struct {
	Content string `json:"content"`
}

// Response is the body of every /api endpoint.
type Response struct {
	View  triage.View `json:"view"`
	Error string      `json:"error,omitempty"`
}
