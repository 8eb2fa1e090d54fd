// Package chat holds the conversation state: turns, rooms and the room store.
package chat

import (
	"github.com/google/uuid"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a room. Turns are never modified once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Room is one independent conversation thread.
// A room always holds at least the greeting turn.
type Room struct {
	ID    uuid.UUID
	turns []Turn
	// revision increments on every append and reset.
	revision uint64
}

func newRoom(greeting string) *Room {
	return &Room{
		ID:    uuid.New(),
		turns: []Turn{{Role: RoleAssistant, Content: greeting}},
	}
}

// Append adds a turn to the end of the room.
func (r *Room) Append(t Turn) {
	r.turns = append(r.turns, t)
	r.revision++
}

// Revision identifies the room's content. Any append or reset changes it,
// including a reset followed by appends that restore the previous length.
func (r *Room) Revision() uint64 {
	return r.revision
}

// Len returns the number of turns in the room.
func (r *Room) Len() int {
	return len(r.turns)
}

// Last returns the most recent turn.
func (r *Room) Last() Turn {
	return r.turns[len(r.turns)-1]
}

// SeedText returns the content of the first user turn, or "" if the user
// has not written anything yet. The seed is what gets classified.
func (r *Room) SeedText() string {
	for _, t := range r.turns {
		if t.Role == RoleUser {
			return t.Content
		}
	}
	return ""
}

// Turns returns a copy of the room's turns in conversation order.
func (r *Room) Turns() []Turn {
	out := make([]Turn, len(r.turns))
	copy(out, r.turns)
	return out
}

func (r *Room) reset(greeting string) {
	r.turns = []Turn{{Role: RoleAssistant, Content: greeting}}
	r.revision++
}
