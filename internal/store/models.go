package store

import "time"

const (
	GameStatusPending    = "pending"
	GameStatusInProgress = "in_progress"
	GameStatusCompleted  = "completed"
)

const (
	RoleLineup     = "lineup"
	RoleSubstitute = "substitute"
)

// Player is the persisted roster row.
type Player struct {
	ID                 string   `gorm:"primaryKey"`
	TeamID             string   `gorm:"index"`
	FirstName          string
	LastName           string
	Number             string
	PrimaryPosition    string
	SecondaryPositions []string `gorm:"serializer:json"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Game is the game context: created outside this engine, loaded once per
// editing session.
type Game struct {
	ID          string `gorm:"primaryKey"`
	TeamID      string `gorm:"index"`
	Opponent    string
	ScheduledAt time.Time
	Location    string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LineupRow is one persisted assignment, keyed by (game, player, inning).
// Lineup slots and substitute entries share the table under a role
// column so a single replace-set write covers both partitions.
type LineupRow struct {
	GameID       string `gorm:"primaryKey"`
	PlayerID     string `gorm:"primaryKey"`
	Inning       int    `gorm:"primaryKey"`
	SlotID       string
	Role         string
	Position     string
	BattingOrder int
	UpdatedAt    time.Time
}

// PlayerAvailability flags a player's availability for one game.
type PlayerAvailability struct {
	GameID      string `gorm:"primaryKey"`
	PlayerID    string `gorm:"primaryKey"`
	IsAvailable bool
	Notes       string
	UpdatedAt   time.Time
}
