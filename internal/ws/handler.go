package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/dugout-app/lineup-backend/internal/engine"
	"github.com/dugout-app/lineup-backend/internal/hub"
	"github.com/dugout-app/lineup-backend/internal/positions"
	"github.com/dugout-app/lineup-backend/internal/session"
	"github.com/dugout-app/lineup-backend/internal/types"
)

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := r.URL.Query().Get("game")
		if gameID == "" {
			http.Error(w, "missing game", http.StatusBadRequest)
			return
		}
		inning := 1
		if raw := r.URL.Query().Get("inning"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "bad inning", http.StatusBadRequest)
				return
			}
			inning = n
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.EnsureSession{GameID: gameID, Inning: inning, Reply: reply}
		sess := <-reply
		if sess == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan session.Snapshot, 8)
		clientID := randID(6)

		sess.Inbox() <- session.Join{ClientID: clientID, Outbox: out}
		defer func() { sess.Inbox() <- session.Leave{ClientID: clientID} }()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{
					Type:      "StateSnapshot",
					Version:   snap.Version,
					Status:    snap.Status,
					State:     &snap.State,
					Conflicts: snap.Conflicts,
					Error:     snap.Err,
				}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			if cm.Type == "Retry" {
				sess.Inbox() <- session.Retry{}
				continue
			}

			cmd, ok := toCommand(cm)
			if !ok {
				writeError(r.Context(), conn, "unknown type")
				continue
			}

			cmdReply := make(chan error, 1)
			sess.Inbox() <- session.FromClient{Cmd: cmd, Reply: cmdReply}
			if cmdErr := <-cmdReply; cmdErr != nil {
				log.Debug("transfer rejected",
					zap.String("game_id", gameID),
					zap.String("cmd", cm.Type),
					zap.Error(cmdErr))
				writeError(r.Context(), conn, cmdErr.Error())
			}
		}
	}
}

func toCommand(m types.ClientMessage) (engine.Command, bool) {
	targetIndex := -1
	if m.TargetIndex != nil {
		targetIndex = *m.TargetIndex
	}

	switch m.Type {
	case "RosterToLineup":
		return engine.Command{Type: engine.CmdRosterToLineup, PlayerID: m.PlayerID, TargetIndex: targetIndex}, true
	case "LineupReorder":
		return engine.Command{Type: engine.CmdLineupReorder, SlotID: m.SlotID, TargetIndex: targetIndex}, true
	case "LineupToSubstitute":
		return engine.Command{Type: engine.CmdLineupToSubstitute, SlotID: m.SlotID}, true
	case "SubstituteToLineup":
		return engine.Command{Type: engine.CmdSubstituteToLineup, SubstituteID: m.SubstituteID, TargetIndex: targetIndex}, true
	case "PositionChange":
		pos := positions.Position("")
		if !m.ClearPosition {
			pos = positions.Parse(m.Position)
			if pos == "" && m.Position != "" {
				return engine.Command{}, false
			}
		}
		return engine.Command{Type: engine.CmdPositionChange, SlotID: m.SlotID, Position: pos}, true
	case "Remove":
		return engine.Command{Type: engine.CmdRemove, SlotID: m.SlotID}, true
	default:
		return engine.Command{}, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
