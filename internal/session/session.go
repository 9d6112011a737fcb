package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dugout-app/lineup-backend/internal/engine"
	"github.com/dugout-app/lineup-backend/internal/feed"
	"github.com/dugout-app/lineup-backend/internal/positions"
	"github.com/dugout-app/lineup-backend/internal/store"
)

// DefaultDebounce is the quiet period before a durable write.
const DefaultDebounce = 2 * time.Second

const saveTimeout = 10 * time.Second

type SyncStatus string

const (
	StatusIdle   SyncStatus = "idle"
	StatusDirty  SyncStatus = "dirty"
	StatusSaving SyncStatus = "saving"
	StatusError  SyncStatus = "error"
)

type Msg interface{ isSessionMsg() }

type FromClient struct {
	Cmd engine.Command
	// Reply, if non-nil, receives the command's transfer error (or nil).
	// Must be buffered.
	Reply chan error
}

func (FromClient) isSessionMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

// AvailabilityChanged refreshes a roster availability flag. Not a
// transfer command: it does not dirty the lineup or trigger a save.
type AvailabilityChanged struct {
	PlayerID  string
	Available bool
}

func (AvailabilityChanged) isSessionMsg() {}

// Retry re-arms the save cycle after a persistence failure.
type Retry struct{}

func (Retry) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type saveResult struct {
	seq int
	err error
}

func (saveResult) isSessionMsg() {}

type Snapshot struct {
	Version   int
	Status    SyncStatus
	Err       string
	State     engine.State
	Conflicts []positions.Position
}

type View struct {
	Version    int
	NumClients int
	Status     SyncStatus
	Err        string
	State      engine.State
}

type Config struct {
	GameID   string
	Inning   int
	Debounce time.Duration
	Store    store.LineupStore
	Feed     feed.Feed
	Logger   *zap.Logger
}

// Session owns the lineup state for one (game, inning) editing scope.
// All mutations flow through its inbox and run to completion before the
// next message is processed.
type Session struct {
	inbox  chan Msg
	id     string
	gameID string
	inning int

	state     engine.State
	confirmed engine.State // last durably-confirmed snapshot
	version   int

	status          SyncStatus
	lastErr         string
	debounce        time.Duration
	timer           *time.Timer
	saveSeq         int
	inflight        engine.State
	dirtyDuringSave bool
	pendingRemote   *feed.Event

	clients map[string]chan Snapshot

	store  store.LineupStore
	feed   feed.Feed
	feedCh <-chan feed.Event
	unsub  func()

	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, cfg Config, initial engine.State) *Session {
	ctx, cancel := context.WithCancel(parent)

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Session{
		inbox:     make(chan Msg, 64),
		id:        uuid.NewString(),
		gameID:    cfg.GameID,
		inning:    cfg.Inning,
		state:     initial,
		confirmed: initial,
		status:    StatusIdle,
		debounce:  cfg.Debounce,
		clients:   make(map[string]chan Snapshot),
		store:     cfg.Store,
		feed:      cfg.Feed,
		log:       cfg.Logger.With(zap.String("game_id", cfg.GameID), zap.Int("inning", cfg.Inning)),
		ctx:       ctx,
		cancel:    cancel,
	}

	if s.feed != nil {
		s.feedCh, s.unsub = s.feed.Subscribe(cfg.GameID, 8)
	}

	go s.loop()
	return s
}

// Inbox exposes the message channel to the ws layer and tests.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) loop() {
	for {
		var timerC <-chan time.Time
		if s.timer != nil {
			timerC = s.timer.C
		}

		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case <-timerC:
			s.timer = nil
			s.beginSave()

		case evt, ok := <-s.feedCh:
			if !ok {
				// Dropped for falling behind. Resubscribe with a fresh
				// buffer; events in the gap are lost, but the next one
				// carries a full snapshot anyway.
				s.feedCh, s.unsub = s.feed.Subscribe(s.gameID, 8)
				s.log.Warn("change feed subscription dropped, resubscribed")
				continue
			}
			// Events are scoped by game; sibling-inning sessions for
			// the same game must not absorb each other's snapshots.
			if evt.Origin == s.id || evt.Inning != s.inning {
				continue
			}
			s.handleRemote(evt)

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- s.snapshot()

			case Leave:
				delete(s.clients, msg.ClientID)

			case FromClient:
				s.handleCommand(msg)

			case AvailabilityChanged:
				s.state = engine.SetAvailability(s.state, msg.PlayerID, msg.Available)
				s.confirmed = engine.SetAvailability(s.confirmed, msg.PlayerID, msg.Available)
				s.version++
				s.broadcast()

			case Retry:
				if s.status == StatusError {
					s.status = StatusDirty
					s.armTimer()
					s.broadcast()
				}

			case saveResult:
				s.handleSaveResult(msg)

			case GetState:
				msg.Reply <- View{
					Version:    s.version,
					NumClients: len(s.clients),
					Status:     s.status,
					Err:        s.lastErr,
					State:      s.state,
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) handleCommand(msg FromClient) {
	next, err := engine.Apply(s.state, msg.Cmd)
	if msg.Reply != nil {
		msg.Reply <- err
	}
	if err != nil {
		s.log.Debug("transfer rejected", zap.String("cmd", string(msg.Cmd.Type)), zap.Error(err))
		return
	}

	s.state = next
	s.version++
	s.markDirty()
	s.broadcast()
}

// markDirty transitions toward a durable write. A mutation during an
// in-flight save coalesces into the next cycle instead of arming a timer.
func (s *Session) markDirty() {
	if s.status == StatusSaving {
		s.dirtyDuringSave = true
		return
	}
	s.status = StatusDirty
	s.lastErr = ""
	s.armTimer()
}

// armTimer (re)starts the debounce window. Rapid successive mutations
// collapse into a single pending write.
func (s *Session) armTimer() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.NewTimer(s.debounce)
}

func (s *Session) beginSave() {
	if s.status != StatusDirty {
		return
	}
	s.status = StatusSaving
	s.saveSeq++
	s.inflight = s.state
	s.broadcast()

	seq := s.saveSeq
	lineup := s.inflight.Lineup
	subs := s.inflight.Substitutes

	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, saveTimeout)
		defer cancel()
		err := s.store.ReplaceLineup(ctx, s.gameID, s.inning, lineup, subs)
		select {
		case s.inbox <- saveResult{seq: seq, err: err}:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Session) handleSaveResult(msg saveResult) {
	if msg.seq != s.saveSeq {
		return // stale result from a superseded write
	}

	if msg.err != nil {
		s.log.Warn("lineup save failed, rolling back", zap.Error(msg.err))
		s.state = s.confirmed
		s.status = StatusError
		s.lastErr = msg.err.Error()
		s.dirtyDuringSave = false
		s.version++
		s.broadcast()
		return
	}

	s.confirmed = s.inflight
	s.log.Info("lineup saved",
		zap.Int("slots", len(s.confirmed.Lineup)),
		zap.Int("substitutes", len(s.confirmed.Substitutes)))

	if s.feed != nil {
		s.feed.Publish(feed.Event{
			GameID:      s.gameID,
			Inning:      s.inning,
			Origin:      s.id,
			Lineup:      s.confirmed.Lineup,
			Substitutes: s.confirmed.Substitutes,
		})
	}

	if s.dirtyDuringSave {
		s.dirtyDuringSave = false
		s.status = StatusDirty
		s.armTimer()
	} else {
		s.status = StatusIdle
		s.lastErr = ""
		if s.pendingRemote != nil {
			evt := *s.pendingRemote
			s.pendingRemote = nil
			s.applyRemote(evt)
		}
	}
	s.broadcast()
}

// handleRemote merges an externally-pushed snapshot. Last-writer-wins at
// snapshot granularity when idle; otherwise buffered (latest wins) until
// the local write settles, so in-flight edits are not discarded.
func (s *Session) handleRemote(evt feed.Event) {
	if s.status != StatusIdle {
		s.pendingRemote = &evt
		return
	}
	s.applyRemote(evt)
	s.broadcast()
}

func (s *Session) applyRemote(evt feed.Event) {
	if engine.HasDuplicateBattingOrder(evt.Lineup) {
		s.log.Warn("remote snapshot has duplicate batting order")
	}
	s.state.Lineup = evt.Lineup
	s.state.Substitutes = evt.Substitutes
	s.confirmed = s.state
	s.version++
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Version:   s.version,
		Status:    s.status,
		Err:       s.lastErr,
		State:     s.state,
		Conflicts: engine.Conflicts(s.state.Lineup),
	}
}

func (s *Session) broadcast() {
	snap := s.snapshot()
	for id, ch := range s.clients {
		select {
		case ch <- snap:
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(s.clients, id)
		}
	}
}

func (s *Session) shutdown() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.cancel()
}
