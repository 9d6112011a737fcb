package hub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dugout-app/lineup-backend/internal/engine"
	"github.com/dugout-app/lineup-backend/internal/feed"
	"github.com/dugout-app/lineup-backend/internal/session"
	"github.com/dugout-app/lineup-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

// EnsureSession returns the session for (game, inning), creating it from
// persisted state if needed. Reply receives nil when loading fails.
type EnsureSession struct {
	GameID string
	Inning int
	Reply  chan *session.Session
}

type GetSession struct {
	GameID string
	Inning int
	Reply  chan *session.Session
}

type RemoveSession struct {
	GameID string
	Inning int
}

// BroadcastAvailability fans an availability refresh out to every live
// session for the game, whatever inning scope it covers.
type BroadcastAvailability struct {
	GameID    string
	PlayerID  string
	Available bool
}

type ShutdownHub struct{}

func (EnsureSession) isHubMsg()         {}
func (GetSession) isHubMsg()            {}
func (RemoveSession) isHubMsg()         {}
func (BroadcastAvailability) isHubMsg() {}
func (ShutdownHub) isHubMsg()           {}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	store    store.LineupStore
	feed     feed.Feed
	debounce time.Duration
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, st store.LineupStore, f feed.Feed, debounce time.Duration, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		store:    st,
		feed:     f,
		debounce: debounce,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func sessionKey(gameID string, inning int) string {
	return fmt.Sprintf("%s/%d", gameID, inning)
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureSession:
				key := sessionKey(msg.GameID, msg.Inning)
				if s := h.sessions[key]; s != nil {
					msg.Reply <- s
					break
				}
				s, err := h.spawn(msg.GameID, msg.Inning)
				if err != nil {
					h.log.Error("failed to create session",
						zap.String("game_id", msg.GameID),
						zap.Int("inning", msg.Inning),
						zap.Error(err))
					msg.Reply <- nil
					break
				}
				h.sessions[key] = s
				msg.Reply <- s

			case GetSession:
				msg.Reply <- h.sessions[sessionKey(msg.GameID, msg.Inning)] // May be nil

			case RemoveSession:
				key := sessionKey(msg.GameID, msg.Inning)
				if s := h.sessions[key]; s != nil {
					s.Inbox() <- session.Shutdown{}
					delete(h.sessions, key)
				}

			case BroadcastAvailability:
				prefix := msg.GameID + "/"
				for key, s := range h.sessions {
					if strings.HasPrefix(key, prefix) {
						s.Inbox() <- session.AvailabilityChanged{PlayerID: msg.PlayerID, Available: msg.Available}
					}
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// spawn loads the game context, roster and any persisted rows, then
// starts the session actor over that state.
func (h *Hub) spawn(gameID string, inning int) (*session.Session, error) {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()

	game, err := h.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	roster, err := h.store.LoadRoster(ctx, game.TeamID)
	if err != nil {
		return nil, err
	}
	lineup, subs, err := h.store.LoadLineup(ctx, gameID, inning)
	if err != nil {
		return nil, err
	}
	availability, err := h.store.LoadAvailability(ctx, gameID)
	if err != nil {
		return nil, err
	}

	initial := engine.NewState(inning, roster)
	initial.Lineup = lineup
	initial.Substitutes = subs
	for playerID, available := range availability {
		initial.Available[playerID] = available
	}

	h.log.Info("session created",
		zap.String("game_id", gameID),
		zap.Int("inning", inning),
		zap.String("opponent", game.Opponent),
		zap.Int("slots", len(lineup)))

	return session.New(h.ctx, session.Config{
		GameID:   gameID,
		Inning:   inning,
		Debounce: h.debounce,
		Store:    h.store,
		Feed:     h.feed,
		Logger:   h.log,
	}, initial), nil
}

func (h *Hub) shutdown() {
	for key, s := range h.sessions {
		s.Inbox() <- session.Shutdown{}
		delete(h.sessions, key)
	}
	h.cancel()
}
