package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dugout-app/lineup-backend/internal/engine"
	"github.com/dugout-app/lineup-backend/internal/hub"
	"github.com/dugout-app/lineup-backend/internal/session"
	"github.com/dugout-app/lineup-backend/internal/store"
	"github.com/dugout-app/lineup-backend/internal/types"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func queryInning(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("inning")
	if raw == "" {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// GetLineup reads the current snapshot for a game and inning. A live
// session answers so reads see unsaved optimistic state; otherwise the
// snapshot is built straight from persisted rows. Plain reads never
// spawn a session - sessions belong to connected editors.
func GetLineup(h *hub.Hub, st store.LineupStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		inning, ok := queryInning(r)
		if !ok {
			http.Error(w, "bad inning", http.StatusBadRequest)
			return
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetSession{GameID: gameID, Inning: inning, Reply: reply}
		if sess := <-reply; sess != nil {
			viewReply := make(chan session.View, 1)
			sess.Inbox() <- session.GetState{Reply: viewReply}
			view := <-viewReply
			writeSnapshot(w, view.Version, view.Status, view.Err, view.State)
			return
		}

		game, err := st.LoadGame(r.Context(), gameID)
		if errors.Is(err, store.ErrGameNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "failed to load game", http.StatusInternalServerError)
			return
		}
		roster, err := st.LoadRoster(r.Context(), game.TeamID)
		if err != nil {
			http.Error(w, "failed to load roster", http.StatusInternalServerError)
			return
		}
		lineup, subs, err := st.LoadLineup(r.Context(), gameID, inning)
		if err != nil {
			http.Error(w, "failed to load lineup", http.StatusInternalServerError)
			return
		}
		availability, err := st.LoadAvailability(r.Context(), gameID)
		if err != nil {
			http.Error(w, "failed to load availability", http.StatusInternalServerError)
			return
		}

		state := engine.NewState(inning, roster)
		state.Lineup = lineup
		state.Substitutes = subs
		for playerID, available := range availability {
			state.Available[playerID] = available
		}
		writeSnapshot(w, 0, session.StatusIdle, "", state)
	}
}

func writeSnapshot(w http.ResponseWriter, version int, status session.SyncStatus, errMsg string, state engine.State) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.ServerMessage{
		Type:      "StateSnapshot",
		Version:   version,
		Status:    status,
		State:     &state,
		Conflicts: engine.Conflicts(state.Lineup),
		Error:     errMsg,
	})
}

// SetAvailability persists a per-game availability flag and pushes the
// refresh into any live session. Availability edits bypass the lineup
// save cycle: they are their own rows.
func SetAvailability(h *hub.Hub, st store.LineupStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		playerID := chi.URLParam(r, "playerID")

		var body struct {
			Available bool `json:"available"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		if err := st.SaveAvailability(r.Context(), gameID, playerID, body.Available); err != nil {
			log.Error("failed to save availability",
				zap.String("game_id", gameID),
				zap.String("player_id", playerID),
				zap.Error(err))
			http.Error(w, "failed to save availability", http.StatusInternalServerError)
			return
		}

		// refresh live sessions for this game; inning scopes share flags
		h.Inbox() <- hub.BroadcastAvailability{
			GameID:    gameID,
			PlayerID:  playerID,
			Available: body.Available,
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
