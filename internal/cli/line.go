package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/raphaelgruber/scamdetect/internal/chat"
	"github.com/raphaelgruber/scamdetect/internal/client"
	"github.com/raphaelgruber/scamdetect/internal/triage"
)

// driver is a session the line mode can operate, local or remote.
type driver interface {
	Submit(ctx context.Context, content string) (triage.View, error)
	NewRoom(ctx context.Context) (triage.View, error)
	ClearRoom(ctx context.Context) (triage.View, error)
	SelectRoom(ctx context.Context, index int) (triage.View, error)
	View(ctx context.Context) (triage.View, error)
}

type localDriver struct {
	*triage.Session
}

func (d localDriver) View(context.Context) (triage.View, error) {
	return d.Session.View(), nil
}

type remoteDriver struct {
	*client.Client
}

func (d remoteDriver) Submit(ctx context.Context, content string) (triage.View, error) {
	return d.Client.Submit(ctx, content, nil)
}

// remoteView unwraps the view carried by a server-side failure so the
// transcript stays in sync.
func remoteView(view triage.View, err error) triage.View {
	var remote *client.RemoteError
	if errors.As(err, &remote) {
		return remote.View
	}
	return view
}

type lineKind int

const (
	lineSubmit lineKind = iota
	lineNew
	lineClear
	lineRoom
	lineRooms
	lineHelp
	lineQuit
)

type lineCommand struct {
	kind  lineKind
	text  string
	index int // zero-based room index for lineRoom
}

const lineHelpText = `Commands:
  /new       open a new chat room
  /clear     clear the current room
  /room N    switch to room N
  /rooms     list rooms
  /quit      exit
Anything else is sent as a message.`

// parseLine maps one input line to a command. Lines not starting with a
// slash are submissions.
func parseLine(line string) (lineCommand, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return lineCommand{kind: lineSubmit, text: line}, nil
	}

	fields := strings.Fields(trimmed)
	switch fields[0] {
	case "/new":
		return lineCommand{kind: lineNew}, nil
	case "/clear":
		return lineCommand{kind: lineClear}, nil
	case "/rooms":
		return lineCommand{kind: lineRooms}, nil
	case "/help":
		return lineCommand{kind: lineHelp}, nil
	case "/quit", "/exit":
		return lineCommand{kind: lineQuit}, nil
	case "/room":
		if len(fields) != 2 {
			return lineCommand{}, fmt.Errorf("usage: /room N")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return lineCommand{}, fmt.Errorf("invalid room number %q", fields[1])
		}
		return lineCommand{kind: lineRoom, index: n - 1}, nil
	default:
		return lineCommand{}, fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
}

// lineREPL renders a session as plain text, one command per input line.
type lineREPL struct {
	d   driver
	out io.Writer

	room  int // room whose transcript is on screen
	shown int // turns of that room already printed
}

func runLines(ctx context.Context, d driver, in io.Reader, out io.Writer) error {
	r := &lineREPL{d: d, out: out, room: -1}

	view, err := d.View(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	r.render(view)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		cmd, err := parseLine(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		switch cmd.kind {
		case lineQuit:
			return nil
		case lineHelp:
			fmt.Fprintln(out, lineHelpText)
			continue
		case lineRooms:
			view, err = d.View(ctx)
			if err == nil {
				printRooms(out, view)
			}
		case lineSubmit:
			view, err = d.Submit(ctx, cmd.text)
		case lineNew:
			view, err = d.NewRoom(ctx)
		case lineClear:
			view, err = d.ClearRoom(ctx)
		case lineRoom:
			view, err = d.SelectRoom(ctx, cmd.index)
		}

		if err != nil {
			r.fail(remoteView(view, err), err)
			continue
		}
		r.render(view)
	}
}

// render prints what changed since the last render. Switching or clearing
// a room reprints its whole transcript; otherwise only new assistant turns
// are printed, since the user just typed theirs.
func (r *lineREPL) render(view triage.View) {
	if len(view.Turns) == 0 {
		return
	}
	if view.Current != r.room || len(view.Turns) < r.shown {
		fmt.Fprintf(r.out, "── %s ──\n", chat.RoomTitle(view.Current))
		for _, t := range view.Turns {
			printTurn(r.out, t)
		}
	} else {
		for _, t := range view.Turns[r.shown:] {
			if t.Role == chat.RoleAssistant {
				printTurn(r.out, t)
			}
		}
	}
	r.room = view.Current
	r.shown = len(view.Turns)
}

func (r *lineREPL) fail(view triage.View, err error) {
	if errors.Is(err, chat.ErrRoomOutOfRange) {
		fmt.Fprintf(r.out, "Error: no such room (there are %d)\n", len(view.Rooms))
		return
	}
	fmt.Fprintf(r.out, "Error: %v\n", err)
	if len(view.Turns) == 0 {
		return
	}
	if view.State == triage.GenerationPending {
		fmt.Fprintf(r.out, "The reply is still pending. Use /room %d to retry.\n\n", view.Current+1)
	}
	r.room = view.Current
	r.shown = len(view.Turns)
}

func printTurn(out io.Writer, t chat.Turn) {
	speaker := "You"
	if t.Role == chat.RoleAssistant {
		speaker = "ScamDetect"
	}
	fmt.Fprintf(out, "%s: %s\n\n", speaker, t.Content)
}

func printRooms(out io.Writer, view triage.View) {
	for _, room := range view.Rooms {
		marker := "  "
		if room.Current {
			marker = "📌"
		}
		fmt.Fprintf(out, "%s %s (%d turns)\n", marker, room.Title, room.Turns)
	}
}
