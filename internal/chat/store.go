package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrRoomOutOfRange is returned when a room index does not exist.
var ErrRoomOutOfRange = errors.New("room index out of range")

// DefaultGreeting is the assistant turn every room starts with.
const DefaultGreeting = "Please input your suspicious text."

// Store owns all rooms of a session and the pointer to the active one.
// It is not safe for concurrent use; a session has exactly one writer.
type Store struct {
	greeting string
	rooms    []*Room
	current  int
}

// RoomSummary describes a room for room lists and sidebars.
type RoomSummary struct {
	Index   int       `json:"index"`
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Turns   int       `json:"turns"`
	Current bool      `json:"current"`
}

// NewStore creates a store with a single default room selected.
// An empty greeting uses DefaultGreeting.
func NewStore(greeting string) *Store {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return &Store{
		greeting: greeting,
		rooms:    []*Room{newRoom(greeting)},
	}
}

// Greeting returns the text new and cleared rooms start with.
func (s *Store) Greeting() string {
	return s.greeting
}

// Create appends a fresh room, selects it and returns its index.
func (s *Store) Create() int {
	s.rooms = append(s.rooms, newRoom(s.greeting))
	s.current = len(s.rooms) - 1
	return s.current
}

// Select makes the room at index current.
func (s *Store) Select(index int) error {
	if index < 0 || index >= len(s.rooms) {
		return fmt.Errorf("%w: %d (have %d)", ErrRoomOutOfRange, index, len(s.rooms))
	}
	s.current = index
	return nil
}

// ClearCurrent resets the current room to the greeting alone.
// The room keeps its index and ID.
func (s *Store) ClearCurrent() {
	s.rooms[s.current].reset(s.greeting)
}

// Current returns the active room. All appends go here.
func (s *Store) Current() *Room {
	return s.rooms[s.current]
}

// CurrentIndex returns the index of the active room.
func (s *Store) CurrentIndex() int {
	return s.current
}

// Room returns the room at index.
func (s *Store) Room(index int) (*Room, error) {
	if index < 0 || index >= len(s.rooms) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrRoomOutOfRange, index, len(s.rooms))
	}
	return s.rooms[index], nil
}

// Len returns the number of rooms. It is always at least one.
func (s *Store) Len() int {
	return len(s.rooms)
}

// Rooms lists all rooms in creation order.
func (s *Store) Rooms() []RoomSummary {
	out := make([]RoomSummary, 0, len(s.rooms))
	for i, r := range s.rooms {
		out = append(out, RoomSummary{
			Index:   i,
			ID:      r.ID,
			Title:   RoomTitle(i),
			Turns:   r.Len(),
			Current: i == s.current,
		})
	}
	return out
}

// RoomTitle is the display name for the room at index (1-based).
func RoomTitle(index int) string {
	return fmt.Sprintf("Room %d", index+1)
}
