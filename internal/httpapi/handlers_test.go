package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dugout-app/lineup-backend/internal/engine"
	"github.com/dugout-app/lineup-backend/internal/hub"
	"github.com/dugout-app/lineup-backend/internal/session"
	"github.com/dugout-app/lineup-backend/internal/store"
	"github.com/dugout-app/lineup-backend/internal/types"
)

type stubStore struct {
	game    store.Game
	roster  []engine.Player
	lineup  []engine.Slot
	subs    []engine.Substitute
	availIn map[string]bool

	savedAvailability map[string]bool
}

func (s *stubStore) LoadRoster(ctx context.Context, teamID string) ([]engine.Player, error) {
	return s.roster, nil
}

func (s *stubStore) LoadGame(ctx context.Context, gameID string) (store.Game, error) {
	if gameID != s.game.ID {
		return store.Game{}, store.ErrGameNotFound
	}
	return s.game, nil
}

func (s *stubStore) LoadLineup(ctx context.Context, gameID string, inning int) ([]engine.Slot, []engine.Substitute, error) {
	return s.lineup, s.subs, nil
}

func (s *stubStore) ReplaceLineup(ctx context.Context, gameID string, inning int, lineup []engine.Slot, subs []engine.Substitute) error {
	return nil
}

func (s *stubStore) LoadAvailability(ctx context.Context, gameID string) (map[string]bool, error) {
	return s.availIn, nil
}

func (s *stubStore) SaveAvailability(ctx context.Context, gameID, playerID string, available bool) error {
	if s.savedAvailability == nil {
		s.savedAvailability = map[string]bool{}
	}
	s.savedAvailability[playerID] = available
	return nil
}

func testStore() *stubStore {
	return &stubStore{
		game: store.Game{ID: "g1", TeamID: "t1", Opponent: "Wildcats", Status: store.GameStatusPending},
		roster: []engine.Player{
			{ID: "a", FirstName: "Ada", LastName: "Avery"},
			{ID: "b", FirstName: "Ben", LastName: "Bloom"},
		},
		lineup: []engine.Slot{
			{ID: "s1", PlayerID: "a", BattingOrder: 1, Inning: 1},
		},
		availIn: map[string]bool{"b": false},
	}
}

func newTestRouter(t *testing.T, st *stubStore) (http.Handler, *hub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, st, nil, 500*time.Millisecond, nil)
	return SetupRoutes(h, st, []string{"*"}, zap.NewNop()), h
}

func TestGetLineup_ReadsWithoutSpawningSession(t *testing.T) {
	st := testStore()
	router, h := newTestRouter(t, st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/games/g1/lineup", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	require.Equal(t, "StateSnapshot", msg.Type)
	require.Equal(t, session.StatusIdle, msg.Status)
	require.Len(t, msg.State.Lineup, 1)
	require.Equal(t, "a", msg.State.Lineup[0].PlayerID)
	require.False(t, msg.State.Available["b"])

	// a plain read must not have left a session behind
	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.GetSession{GameID: "g1", Inning: 1, Reply: reply}
	require.Nil(t, <-reply)
}

func TestGetLineup_AnswersFromLiveSession(t *testing.T) {
	st := testStore()
	router, h := newTestRouter(t, st)

	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.EnsureSession{GameID: "g1", Inning: 1, Reply: reply}
	sess := <-reply
	require.NotNil(t, sess)

	// optimistic, not-yet-saved edit
	errReply := make(chan error, 1)
	sess.Inbox() <- session.FromClient{
		Cmd:   engine.Command{Type: engine.CmdRosterToLineup, PlayerID: "b", TargetIndex: -1},
		Reply: errReply,
	}
	require.NoError(t, <-errReply)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/games/g1/lineup", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	require.Len(t, msg.State.Lineup, 2)
	require.Equal(t, session.StatusDirty, msg.Status)
}

func TestGetLineup_UnknownGame(t *testing.T) {
	router, _ := newTestRouter(t, testStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/games/missing/lineup", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLineup_BadInning(t *testing.T) {
	router, _ := newTestRouter(t, testStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/games/g1/lineup?inning=zero", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetAvailability_Persists(t *testing.T) {
	st := testStore()
	router, _ := newTestRouter(t, st)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/games/g1/availability/a", strings.NewReader(`{"available":false}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, map[string]bool{"a": false}, st.savedAvailability)
}
