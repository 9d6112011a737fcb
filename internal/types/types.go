package types

import (
	"github.com/dugout-app/lineup-backend/internal/engine"
	"github.com/dugout-app/lineup-backend/internal/positions"
	"github.com/dugout-app/lineup-backend/internal/session"
)

type ClientMessage struct {
	Type          string `json:"type"`
	PlayerID      string `json:"player_id,omitempty"`
	SlotID        string `json:"slot_id,omitempty"`
	SubstituteID  string `json:"substitute_id,omitempty"`
	Position      string `json:"position,omitempty"`
	ClearPosition bool   `json:"clear_position,omitempty"`
	TargetIndex   *int   `json:"target_index,omitempty"`
}

type ServerMessage struct {
	Type      string               `json:"type"` // "StateSnapshot" | "Error"
	Version   int                  `json:"version,omitempty"`
	Status    session.SyncStatus   `json:"status,omitempty"`
	State     *engine.State        `json:"state,omitempty"`
	Conflicts []positions.Position `json:"conflicts,omitempty"`
	Error     string               `json:"error,omitempty"`
}
