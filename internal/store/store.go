package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dugout-app/lineup-backend/internal/engine"
	"github.com/dugout-app/lineup-backend/internal/positions"
)

var ErrGameNotFound = errors.New("game not found")

// LineupStore is the durable-store surface the sync layer writes
// through. ReplaceLineup is the replace-set write keyed by
// (game_id, player_id, inning).
type LineupStore interface {
	LoadRoster(ctx context.Context, teamID string) ([]engine.Player, error)
	LoadGame(ctx context.Context, gameID string) (Game, error)
	LoadLineup(ctx context.Context, gameID string, inning int) ([]engine.Slot, []engine.Substitute, error)
	ReplaceLineup(ctx context.Context, gameID string, inning int, lineup []engine.Slot, subs []engine.Substitute) error
	LoadAvailability(ctx context.Context, gameID string) (map[string]bool, error)
	SaveAvailability(ctx context.Context, gameID, playerID string, available bool) error
}

type gormStore struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(dsn string) (LineupStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Player{}, &Game{}, &LineupRow{}, &PlayerAvailability{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &gormStore{db: db}, nil
}

// New wraps an existing gorm handle without connecting or migrating.
// Open is the production path.
func New(db *gorm.DB) LineupStore {
	return &gormStore{db: db}
}

func (s *gormStore) LoadRoster(ctx context.Context, teamID string) ([]engine.Player, error) {
	var rows []Player
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("number").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load roster for team %s: %w", teamID, err)
	}

	roster := make([]engine.Player, 0, len(rows))
	for _, row := range rows {
		roster = append(roster, playerFromRow(row))
	}
	return roster, nil
}

func (s *gormStore) LoadGame(ctx context.Context, gameID string) (Game, error) {
	var game Game
	err := s.db.WithContext(ctx).First(&game, "id = ?", gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Game{}, ErrGameNotFound
	}
	if err != nil {
		return Game{}, fmt.Errorf("load game %s: %w", gameID, err)
	}
	return game, nil
}

func (s *gormStore) LoadLineup(ctx context.Context, gameID string, inning int) ([]engine.Slot, []engine.Substitute, error) {
	var rows []LineupRow
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND inning = ?", gameID, inning).
		Order("batting_order").
		Find(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("load lineup for game %s inning %d: %w", gameID, inning, err)
	}
	lineup, subs := PartitionsFromRows(rows)
	return lineup, subs, nil
}

func (s *gormStore) ReplaceLineup(ctx context.Context, gameID string, inning int, lineup []engine.Slot, subs []engine.Substitute) error {
	rows := RowsFromPartitions(gameID, inning, lineup, subs)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ? AND inning = ?", gameID, inning).Delete(&LineupRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("replace lineup for game %s inning %d: %w", gameID, inning, err)
	}
	return nil
}

func (s *gormStore) LoadAvailability(ctx context.Context, gameID string) (map[string]bool, error) {
	var rows []PlayerAvailability
	err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load availability for game %s: %w", gameID, err)
	}
	out := make(map[string]bool, len(rows))
	for _, row := range rows {
		out[row.PlayerID] = row.IsAvailable
	}
	return out, nil
}

func (s *gormStore) SaveAvailability(ctx context.Context, gameID, playerID string, available bool) error {
	row := PlayerAvailability{
		GameID:      gameID,
		PlayerID:    playerID,
		IsAvailable: available,
		UpdatedAt:   time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save availability for game %s player %s: %w", gameID, playerID, err)
	}
	return nil
}

func playerFromRow(row Player) engine.Player {
	secondary := make([]positions.Position, 0, len(row.SecondaryPositions))
	for _, raw := range row.SecondaryPositions {
		if p := positions.Parse(raw); p != "" {
			secondary = append(secondary, p)
		}
	}
	return engine.Player{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Number:    row.Number,
		Primary:   positions.Parse(row.PrimaryPosition),
		Secondary: secondary,
		TeamID:    row.TeamID,
	}
}

// RowsFromPartitions flattens a lineup + substitute snapshot into rows
// under the composite key. A player appearing twice within the batch
// would violate the key, so later duplicates are dropped.
func RowsFromPartitions(gameID string, inning int, lineup []engine.Slot, subs []engine.Substitute) []LineupRow {
	now := time.Now().UTC()
	seen := map[string]bool{}
	rows := make([]LineupRow, 0, len(lineup)+len(subs))

	for _, slot := range lineup {
		if seen[slot.PlayerID] {
			continue
		}
		seen[slot.PlayerID] = true
		rows = append(rows, LineupRow{
			GameID:       gameID,
			PlayerID:     slot.PlayerID,
			Inning:       inning,
			SlotID:       slot.ID,
			Role:         RoleLineup,
			Position:     string(slot.Position),
			BattingOrder: slot.BattingOrder,
			UpdatedAt:    now,
		})
	}
	for _, sub := range subs {
		if seen[sub.PlayerID] {
			continue
		}
		seen[sub.PlayerID] = true
		rows = append(rows, LineupRow{
			GameID:    gameID,
			PlayerID:  sub.PlayerID,
			Inning:    inning,
			SlotID:    sub.ID,
			Role:      RoleSubstitute,
			UpdatedAt: now,
		})
	}
	return rows
}

// PartitionsFromRows rebuilds the two explicit partitions from persisted
// rows, lineup ordered by batting order.
func PartitionsFromRows(rows []LineupRow) ([]engine.Slot, []engine.Substitute) {
	lineup := []engine.Slot{}
	subs := []engine.Substitute{}
	for _, row := range rows {
		switch row.Role {
		case RoleSubstitute:
			subs = append(subs, engine.Substitute{ID: row.SlotID, PlayerID: row.PlayerID})
		default:
			lineup = append(lineup, engine.Slot{
				ID:           row.SlotID,
				PlayerID:     row.PlayerID,
				Position:     positions.Parse(row.Position),
				BattingOrder: row.BattingOrder,
				Inning:       row.Inning,
			})
		}
	}
	sort.Slice(lineup, func(i, j int) bool { return lineup[i].BattingOrder < lineup[j].BattingOrder })
	return lineup, subs
}
