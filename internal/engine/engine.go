package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dugout-app/lineup-backend/internal/positions"
)

var ErrInvalidTransfer = errors.New("invalid transfer")
var ErrUnknownPlayer = fmt.Errorf("%w: unknown player", ErrInvalidTransfer)
var ErrUnknownSlot = fmt.Errorf("%w: unknown lineup slot", ErrInvalidTransfer)
var ErrUnknownSubstitute = fmt.Errorf("%w: unknown substitute", ErrInvalidTransfer)
var ErrPlayerAssigned = fmt.Errorf("%w: player already assigned", ErrInvalidTransfer)
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdRosterToLineup     CommandType = "RosterToLineup"
	CmdLineupReorder      CommandType = "LineupReorder"
	CmdLineupToSubstitute CommandType = "LineupToSubstitute"
	CmdSubstituteToLineup CommandType = "SubstituteToLineup"
	CmdPositionChange     CommandType = "PositionChange"
	CmdRemove             CommandType = "Remove"
)

type Command struct {
	Type         CommandType
	PlayerID     string
	SlotID       string
	SubstituteID string
	Position     positions.Position
	// TargetIndex is the insertion/move index within the lineup.
	// Negative means append. Out-of-range values are clamped.
	TargetIndex int
}

// newID is a var so tests can pin slot/substitute identifiers.
var newID = uuid.NewString

// Apply runs one transfer command against s and returns the resulting
// state. s itself is never mutated; on error the returned state is s
// unchanged. Every successful command renumbers batting order densely
// 1..N in list order.
func Apply(s State, cmd Command) (State, error) {
	switch cmd.Type {
	case CmdRosterToLineup:
		p, ok := s.player(cmd.PlayerID)
		if !ok {
			return s, ErrUnknownPlayer
		}
		if s.assigned(cmd.PlayerID) {
			return s, ErrPlayerAssigned
		}
		next := s.clone()
		slot := Slot{
			ID:       newID(),
			PlayerID: p.ID,
			Position: p.Primary,
			Inning:   s.Inning,
		}
		next.Lineup = insertSlot(next.Lineup, slot, cmd.TargetIndex)
		renumber(next.Lineup)
		return next, nil

	case CmdLineupReorder:
		from := slotIndex(s.Lineup, cmd.SlotID)
		if from < 0 {
			return s, ErrUnknownSlot
		}
		next := s.clone()
		next.Lineup = moveSlot(next.Lineup, from, cmd.TargetIndex)
		renumber(next.Lineup)
		return next, nil

	case CmdLineupToSubstitute:
		i := slotIndex(s.Lineup, cmd.SlotID)
		if i < 0 {
			return s, ErrUnknownSlot
		}
		next := s.clone()
		playerID := next.Lineup[i].PlayerID
		next.Lineup = append(next.Lineup[:i], next.Lineup[i+1:]...)
		next.Substitutes = append(next.Substitutes, Substitute{ID: newID(), PlayerID: playerID})
		renumber(next.Lineup)
		return next, nil

	case CmdSubstituteToLineup:
		i := subIndex(s.Substitutes, cmd.SubstituteID)
		if i < 0 {
			return s, ErrUnknownSubstitute
		}
		next := s.clone()
		playerID := next.Substitutes[i].PlayerID
		next.Substitutes = append(next.Substitutes[:i], next.Substitutes[i+1:]...)
		slot := Slot{
			ID:       newID(),
			PlayerID: playerID,
			Inning:   s.Inning,
		}
		if p, ok := next.player(playerID); ok {
			slot.Position = p.Primary
		}
		next.Lineup = insertSlot(next.Lineup, slot, cmd.TargetIndex)
		renumber(next.Lineup)
		return next, nil

	case CmdPositionChange:
		i := slotIndex(s.Lineup, cmd.SlotID)
		if i < 0 {
			return s, ErrUnknownSlot
		}
		// Duplicate positions are surfaced via Conflicts, never blocked:
		// a coach swapping two players' positions passes through a
		// transiently conflicting state.
		next := s.clone()
		next.Lineup[i].Position = cmd.Position
		return next, nil

	case CmdRemove:
		i := slotIndex(s.Lineup, cmd.SlotID)
		if i < 0 {
			return s, ErrUnknownSlot
		}
		next := s.clone()
		next.Lineup = append(next.Lineup[:i], next.Lineup[i+1:]...)
		renumber(next.Lineup)
		return next, nil

	default:
		return s, ErrUnsupportedCommand
	}
}

func slotIndex(lineup []Slot, slotID string) int {
	for i, slot := range lineup {
		if slot.ID == slotID {
			return i
		}
	}
	return -1
}

func subIndex(subs []Substitute, subID string) int {
	for i, sub := range subs {
		if sub.ID == subID {
			return i
		}
	}
	return -1
}

func insertSlot(lineup []Slot, slot Slot, index int) []Slot {
	if index < 0 || index > len(lineup) {
		index = len(lineup)
	}
	lineup = append(lineup, Slot{})
	copy(lineup[index+1:], lineup[index:])
	lineup[index] = slot
	return lineup
}

func moveSlot(lineup []Slot, from, to int) []Slot {
	if to < 0 || to >= len(lineup) {
		to = len(lineup) - 1
	}
	slot := lineup[from]
	lineup = append(lineup[:from], lineup[from+1:]...)
	lineup = append(lineup, Slot{})
	copy(lineup[to+1:], lineup[to:])
	lineup[to] = slot
	return lineup
}

// renumber rewrites batting order as the 1-based list position. Always
// dense, never preserves gaps after a removal.
func renumber(lineup []Slot) {
	for i := range lineup {
		lineup[i].BattingOrder = i + 1
	}
}
