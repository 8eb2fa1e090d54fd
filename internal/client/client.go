// Package client drives a remote scamdetect session over WebSocket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/scamdetect/internal/api"
	"github.com/raphaelgruber/scamdetect/internal/metrics"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

// ErrNotConnected is returned by commands issued before Connect or after
// the connection was lost.
var ErrNotConnected = errors.New("not connected")

// RemoteError is a command failure reported by the server. View is the
// session state after the failure.
type RemoteError struct {
	Message string
	View    triage.View
}

func (e *RemoteError) Error() string {
	return "server: " + e.Message
}

// Client is a WebSocket client for the scamdetect server.
// Commands are sent one at a time.
type Client struct {
	endpoint   string
	httpClient *http.Client

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a client. If endpoint is empty, uses SCAMDETECT_SERVER_URL or
// defaults to localhost:8501.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("SCAMDETECT_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8501"
	}
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Connect opens the WebSocket.
func (c *Client) Connect(ctx context.Context) error {
	wsEndpoint := c.endpoint
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/ws")
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Do sends cmd and waits for its final frame. onUpdate, if set, receives
// intermediate views such as the pending user turn of a submit.
func (c *Client) Do(ctx context.Context, cmd api.Command, onUpdate func(triage.View)) (triage.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return triage.View{}, ErrNotConnected
	}
	conn := c.conn

	if cmd.ID == "" {
		cmd.ID = uuid.New().String()
	}
	if err := conn.WriteJSON(cmd); err != nil {
		c.drop()
		return triage.View{}, fmt.Errorf("send command: %w", err)
	}

	// Unblock the read if the context ends first
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	for {
		var frame api.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			// A failed read leaves the connection unusable
			c.drop()
			if ctx.Err() != nil {
				return triage.View{}, ctx.Err()
			}
			return triage.View{}, fmt.Errorf("read frame: %w", err)
		}
		if frame.ID != cmd.ID {
			continue
		}

		var view triage.View
		if frame.View != nil {
			view = *frame.View
		}

		if !frame.Final {
			if onUpdate != nil {
				onUpdate(view)
			}
			continue
		}

		if frame.Type == api.FrameError {
			return view, &RemoteError{Message: frame.Error, View: view}
		}
		return view, nil
	}
}

// drop closes a broken connection so later calls report "not connected".
// Caller must hold mu.
func (c *Client) drop() {
	if c.conn == nil {
		return
	}
	_ = c.conn.Close()
	c.conn = nil
}

// Submit sends a user message to the current room.
func (c *Client) Submit(ctx context.Context, content string, onUpdate func(triage.View)) (triage.View, error) {
	return c.Do(ctx, api.Command{Type: api.CommandSubmit, Content: content}, onUpdate)
}

// NewRoom creates and selects a room.
func (c *Client) NewRoom(ctx context.Context) (triage.View, error) {
	return c.Do(ctx, api.Command{Type: api.CommandNewRoom}, nil)
}

// ClearRoom resets the current room.
func (c *Client) ClearRoom(ctx context.Context) (triage.View, error) {
	return c.Do(ctx, api.Command{Type: api.CommandClear}, nil)
}

// SelectRoom switches to the room at index.
func (c *Client) SelectRoom(ctx context.Context, index int) (triage.View, error) {
	return c.Do(ctx, api.Command{Type: api.CommandSelect, Index: index}, nil)
}

// View fetches the current session view.
func (c *Client) View(ctx context.Context) (triage.View, error) {
	return c.Do(ctx, api.Command{Type: api.CommandView}, nil)
}

// Stats fetches the server's runtime statistics over HTTP.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server error: %s - %s", resp.Status, string(body))
	}

	var snap metrics.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	return &snap, nil
}
