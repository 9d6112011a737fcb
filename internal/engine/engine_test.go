package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dugout-app/lineup-backend/internal/positions"
)

func testRoster() []Player {
	return []Player{
		{ID: "a", FirstName: "Ada", LastName: "Avery", Primary: positions.Pitcher},
		{ID: "b", FirstName: "Ben", LastName: "Bloom", Primary: positions.Catcher},
		{ID: "c", FirstName: "Cam", LastName: "Cole", Primary: ""},
	}
}

// pin slot IDs so tests can reference them
func pinIDs(t *testing.T) {
	t.Helper()
	orig := newID
	n := 0
	newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	t.Cleanup(func() { newID = orig })
}

func mustApply(t *testing.T, s State, cmd Command) State {
	t.Helper()
	next, err := Apply(s, cmd)
	if err != nil {
		t.Fatalf("Apply(%s): unexpected err: %v", cmd.Type, err)
	}
	return next
}

func checkDense(t *testing.T, lineup []Slot) {
	t.Helper()
	for i, slot := range lineup {
		if slot.BattingOrder != i+1 {
			t.Fatalf("batting order not dense: slot %d has order %d", i, slot.BattingOrder)
		}
	}
}

func checkPartition(t *testing.T, s State) {
	t.Helper()
	seen := map[string]int{}
	for _, slot := range s.Lineup {
		seen[slot.PlayerID]++
	}
	for _, sub := range s.Substitutes {
		seen[sub.PlayerID]++
	}
	for _, id := range Unassigned(s) {
		seen[id]++
	}
	for _, p := range s.Roster {
		if seen[p.ID] != 1 {
			t.Fatalf("player %s appears in %d partitions, want 1", p.ID, seen[p.ID])
		}
	}
}

func TestRosterToLineup_AppendsAndNumbers(t *testing.T) {
	pinIDs(t)
	s := NewState(1, testRoster())

	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "a", TargetIndex: -1})
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "b", TargetIndex: -1})

	if len(s.Lineup) != 2 {
		t.Fatalf("want 2 slots, got %d", len(s.Lineup))
	}
	if s.Lineup[0].PlayerID != "a" || s.Lineup[0].BattingOrder != 1 {
		t.Fatalf("slot 0: got %+v", s.Lineup[0])
	}
	if s.Lineup[1].PlayerID != "b" || s.Lineup[1].BattingOrder != 2 {
		t.Fatalf("slot 1: got %+v", s.Lineup[1])
	}
	if s.Lineup[0].Position != positions.Pitcher {
		t.Fatalf("slot 0 position: want P (primary), got %q", s.Lineup[0].Position)
	}
	if got := Unassigned(s); len(got) != 1 || got[0] != "c" {
		t.Fatalf("unassigned: want [c], got %v", got)
	}
	checkPartition(t, s)
}

func TestRosterToLineup_InsertAtIndex(t *testing.T) {
	pinIDs(t)
	s := NewState(1, testRoster())
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "a", TargetIndex: -1})
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "b", TargetIndex: -1})
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "c", TargetIndex: 0})

	want := []string{"c", "a", "b"}
	for i, id := range want {
		if s.Lineup[i].PlayerID != id {
			t.Fatalf("lineup order: slot %d want %s, got %s", i, id, s.Lineup[i].PlayerID)
		}
	}
	checkDense(t, s.Lineup)
}

func TestInvalidTransfers(t *testing.T) {
	pinIDs(t)
	base := NewState(1, testRoster())
	base = mustApply(t, base, Command{Type: CmdRosterToLineup, PlayerID: "a", TargetIndex: -1})

	cases := []struct {
		name    string
		cmd     Command
		wantErr error
	}{
		{
			name:    "unknown player",
			cmd:     Command{Type: CmdRosterToLineup, PlayerID: "nope", TargetIndex: -1},
			wantErr: ErrUnknownPlayer,
		},
		{
			name:    "player already in lineup",
			cmd:     Command{Type: CmdRosterToLineup, PlayerID: "a", TargetIndex: -1},
			wantErr: ErrPlayerAssigned,
		},
		{
			name:    "unknown slot on reorder",
			cmd:     Command{Type: CmdLineupReorder, SlotID: "nope", TargetIndex: 0},
			wantErr: ErrUnknownSlot,
		},
		{
			name:    "unknown slot on position change",
			cmd:     Command{Type: CmdPositionChange, SlotID: "nope", Position: positions.Catcher},
			wantErr: ErrUnknownSlot,
		},
		{
			name:    "unknown substitute",
			cmd:     Command{Type: CmdSubstituteToLineup, SubstituteID: "nope", TargetIndex: -1},
			wantErr: ErrUnknownSubstitute,
		},
		{
			name:    "unknown slot on remove",
			cmd:     Command{Type: CmdRemove, SlotID: "nope"},
			wantErr: ErrUnknownSlot,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Apply(base, tc.cmd)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			if !errors.Is(err, ErrInvalidTransfer) {
				t.Fatalf("want error to wrap ErrInvalidTransfer, got %v", err)
			}
			// no-op on failure
			if len(next.Lineup) != len(base.Lineup) || len(next.Substitutes) != len(base.Substitutes) {
				t.Fatalf("failed command mutated state")
			}
			checkPartition(t, next)
		})
	}
}

func TestLineupToSubstitute_RemovesSlotAndRenumbers(t *testing.T) {
	pinIDs(t)
	s := NewState(1, testRoster())
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "a", TargetIndex: -1})
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "b", TargetIndex: -1})
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "c", TargetIndex: -1})

	s = mustApply(t, s, Command{Type: CmdLineupToSubstitute, SlotID: s.Lineup[1].ID})

	if len(s.Lineup) != 2 {
		t.Fatalf("want 2 slots, got %d", len(s.Lineup))
	}
	if s.Lineup[0].PlayerID != "a" || s.Lineup[1].PlayerID != "c" {
		t.Fatalf("lineup after move: got %s, %s", s.Lineup[0].PlayerID, s.Lineup[1].PlayerID)
	}
	checkDense(t, s.Lineup)
	if len(s.Substitutes) != 1 || s.Substitutes[0].PlayerID != "b" {
		t.Fatalf("substitutes: got %+v", s.Substitutes)
	}
	checkPartition(t, s)
}

func TestSubstituteToLineup_RoundTrip(t *testing.T) {
	pinIDs(t)
	s := NewState(1, testRoster())
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "a", TargetIndex: -1})
	s = mustApply(t, s, Command{Type: CmdLineupToSubstitute, SlotID: s.Lineup[0].ID})
	s = mustApply(t, s, Command{Type: CmdSubstituteToLineup, SubstituteID: s.Substitutes[0].ID, TargetIndex: -1})

	if len(s.Substitutes) != 0 {
		t.Fatalf("want no substitutes, got %+v", s.Substitutes)
	}
	if len(s.Lineup) != 1 || s.Lineup[0].PlayerID != "a" {
		t.Fatalf("lineup: got %+v", s.Lineup)
	}
	// position re-defaults from the player's primary on re-entry
	if s.Lineup[0].Position != positions.Pitcher {
		t.Fatalf("position: want P, got %q", s.Lineup[0].Position)
	}
	checkPartition(t, s)
}

func TestLineupReorder(t *testing.T) {
	pinIDs(t)
	s := NewState(1, testRoster())
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "a", TargetIndex: -1})
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "b", TargetIndex: -1})
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "c", TargetIndex: -1})

	moved := mustApply(t, s, Command{Type: CmdLineupReorder, SlotID: s.Lineup[2].ID, TargetIndex: 0})
	want := []string{"c", "a", "b"}
	for i, id := range want {
		if moved.Lineup[i].PlayerID != id {
			t.Fatalf("slot %d: want %s, got %s", i, id, moved.Lineup[i].PlayerID)
		}
	}
	checkDense(t, moved.Lineup)

	// moving a slot onto its own index changes nothing
	same := mustApply(t, s, Command{Type: CmdLineupReorder, SlotID: s.Lineup[1].ID, TargetIndex: 1})
	for i := range s.Lineup {
		if same.Lineup[i] != s.Lineup[i] {
			t.Fatalf("idempotent reorder: slot %d changed: %+v -> %+v", i, s.Lineup[i], same.Lineup[i])
		}
	}
}

func TestRemove_ReturnsPlayerToRoster(t *testing.T) {
	pinIDs(t)
	s := NewState(1, testRoster())
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "a", TargetIndex: -1})
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "b", TargetIndex: -1})

	s = mustApply(t, s, Command{Type: CmdRemove, SlotID: s.Lineup[0].ID})

	if len(s.Lineup) != 1 || s.Lineup[0].PlayerID != "b" || s.Lineup[0].BattingOrder != 1 {
		t.Fatalf("lineup after remove: got %+v", s.Lineup)
	}
	unassigned := Unassigned(s)
	if len(unassigned) != 2 {
		t.Fatalf("unassigned: want [a c], got %v", unassigned)
	}
	checkPartition(t, s)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	pinIDs(t)
	s := NewState(1, testRoster())
	s = mustApply(t, s, Command{Type: CmdRosterToLineup, PlayerID: "a", TargetIndex: -1})

	before := s.Lineup[0]
	_ = mustApply(t, s, Command{Type: CmdPositionChange, SlotID: s.Lineup[0].ID, Position: positions.Shortstop})

	if s.Lineup[0] != before {
		t.Fatalf("input state mutated: %+v -> %+v", before, s.Lineup[0])
	}
}

func TestSetAvailability(t *testing.T) {
	s := NewState(1, testRoster())
	next := SetAvailability(s, "b", false)

	if next.Available["b"] {
		t.Fatalf("want b unavailable")
	}
	if !s.Available["b"] {
		t.Fatalf("input state mutated")
	}
}
