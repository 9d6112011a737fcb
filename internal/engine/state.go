package engine

import "github.com/dugout-app/lineup-backend/internal/positions"

// Player is immutable reference data for the engine; the roster is loaded
// once per editing session.
type Player struct {
	ID        string               `json:"id"`
	FirstName string               `json:"first_name"`
	LastName  string               `json:"last_name"`
	Number    string               `json:"number,omitempty"`
	Primary   positions.Position   `json:"primary_position,omitempty"`
	Secondary []positions.Position `json:"secondary_positions,omitempty"`
	TeamID    string               `json:"team_id,omitempty"`
}

// Slot binds one player to a batting order and an optional position.
// The ID is stable across reorders.
type Slot struct {
	ID           string             `json:"id"`
	PlayerID     string             `json:"player_id"`
	Position     positions.Position `json:"position,omitempty"`
	BattingOrder int                `json:"batting_order"`
	Inning       int                `json:"inning"`
}

// Substitute is a player set aside from the active lineup but still
// tracked for the game.
type Substitute struct {
	ID       string `json:"id"`
	PlayerID string `json:"player_id"`
}

// State is the full lineup snapshot for one game and one inning scope.
// Roster and Available are reference data; Lineup and Substitutes are the
// two explicit partitions, the third (unassigned) is derived.
type State struct {
	Inning      int             `json:"inning"`
	Roster      []Player        `json:"roster"`
	Available   map[string]bool `json:"available"`
	Lineup      []Slot          `json:"lineup"`
	Substitutes []Substitute    `json:"substitutes"`
}

// NewState builds the initial state for a session: full roster, everyone
// available and unassigned.
func NewState(inning int, roster []Player) State {
	if inning < 1 {
		inning = 1
	}
	avail := make(map[string]bool, len(roster))
	for _, p := range roster {
		avail[p.ID] = true
	}
	return State{
		Inning:      inning,
		Roster:      roster,
		Available:   avail,
		Lineup:      []Slot{},
		Substitutes: []Substitute{},
	}
}

func (s State) player(playerID string) (Player, bool) {
	for _, p := range s.Roster {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// assigned reports whether the player already holds a lineup slot or a
// substitute entry. Guards the partition invariant.
func (s State) assigned(playerID string) bool {
	for _, slot := range s.Lineup {
		if slot.PlayerID == playerID {
			return true
		}
	}
	for _, sub := range s.Substitutes {
		if sub.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Unassigned returns the derived third partition: roster players holding
// neither a lineup slot nor a substitute entry, in roster order.
func Unassigned(s State) []string {
	out := []string{}
	for _, p := range s.Roster {
		if !s.assigned(p.ID) {
			out = append(out, p.ID)
		}
	}
	return out
}

// clone deep-copies the mutable parts of the state. Roster is shared: it
// is reference data the engine never writes.
func (s State) clone() State {
	next := s
	next.Lineup = make([]Slot, len(s.Lineup))
	copy(next.Lineup, s.Lineup)
	next.Substitutes = make([]Substitute, len(s.Substitutes))
	copy(next.Substitutes, s.Substitutes)
	next.Available = make(map[string]bool, len(s.Available))
	for id, ok := range s.Available {
		next.Available[id] = ok
	}
	return next
}

// SetAvailability flags a player's availability for the game. Not a
// transfer command: availability edits come from the roster surface and
// do not touch the partitions.
func SetAvailability(s State, playerID string, available bool) State {
	next := s.clone()
	next.Available[playerID] = available
	return next
}
