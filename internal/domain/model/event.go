// Package model contains domain models passed between layers.
package model

import (
	"strings"

	"github.com/okian/rinkline/internal/domain/rink"
)

// EventType names the kind of play an event records.
type EventType string

// Known event types. Other values are accepted and flow through unchanged.
const (
	Faceoff   EventType = "faceoff"
	Shot      EventType = "shot"
	Goal      EventType = "goal"
	Pass      EventType = "pass"
	Hit       EventType = "hit"
	Takeaway  EventType = "takeaway"
	Giveaway  EventType = "giveaway"
	Block     EventType = "block"
	ZoneEntry EventType = "zone-entry"
	DumpIn    EventType = "dump-in"
	Rebound   EventType = "rebound"
)

// ParseEventType normalizes user supplied type names ("Zone Entry" -> "zone-entry").
func ParseEventType(s string) EventType {
	s = strings.ToLower(strings.TrimSpace(s))
	return EventType(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "-"))
}

// Terminal reports whether the type ends a chain (shots and goals).
func (t EventType) Terminal() bool {
	return t == Shot || t == Goal
}

// Role is the part a player takes in an event, e.g. "shooter" or "passer".
type Role string

// Player is a participant of an event with its own positions.
type Player struct {
	ID        string              `json:"id"`
	Role      Role                `json:"role,omitempty"`
	Positions []rink.RinkPosition `json:"positions"`
}

// PlayerRef selects a participant by id.
type PlayerRef struct {
	ID string `json:"id"`
}

// Event is one recorded play. Ordering inside a game comes from
// SequenceIndex when present, PlayIndex otherwise. LinkedEventKey, when set,
// names the explicit predecessor.
type Event struct {
	EventKey       string              `json:"event_key"`
	GameID         string              `json:"game_id"`
	Type           EventType           `json:"event_type"`
	Period         int                 `json:"period"`
	Team           rink.Team           `json:"team"`
	Zone           rink.Zone           `json:"zone,omitempty"`
	SequenceIndex  *int                `json:"sequence_index,omitempty"`
	PlayIndex      *int                `json:"play_index,omitempty"`
	LinkedEventKey string              `json:"linked_event_key,omitempty"`
	PuckPositions  []rink.RinkPosition `json:"puck_positions"`
	Players        []Player            `json:"players"`
}

// Index returns a pointer to i for the optional ordering fields.
func Index(i int) *int { return &i }

// Clone returns a deep copy so callers can mutate positions freely.
func (e Event) Clone() Event {
	out := e
	if e.SequenceIndex != nil {
		out.SequenceIndex = Index(*e.SequenceIndex)
	}
	if e.PlayIndex != nil {
		out.PlayIndex = Index(*e.PlayIndex)
	}
	out.PuckPositions = append([]rink.RinkPosition(nil), e.PuckPositions...)
	if e.Players != nil {
		out.Players = make([]Player, len(e.Players))
		for i, p := range e.Players {
			p.Positions = append([]rink.RinkPosition(nil), p.Positions...)
			out.Players[i] = p
		}
	}
	return out
}

// PlayerIndex returns the index of the player with id, or -1.
func (e Event) PlayerIndex(id string) int {
	for i, p := range e.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
