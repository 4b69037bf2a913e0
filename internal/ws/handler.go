package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/battlesnake-replay/internal/hub"
	"github.com/DoyleJ11/battlesnake-replay/internal/playback"
	"github.com/DoyleJ11/battlesnake-replay/internal/types"
)

// Handler streams a match's shared playback session to a websocket client.
// The match is chosen by the "code" query parameter.
func Handler(h *hub.Hub, originPatterns []string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		sess := h.Get(r.Context(), code)
		if sess == nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := log.With(zap.String("match", code), zap.String("client_id", clientID))

		out := make(chan playback.Update, 8)
		if !sess.Send(playback.Join{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "match closed")
			return
		}
		defer sess.Send(playback.Leave{ClientID: clientID})
		log.Debug("viewer joined")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for up := range out {
				write(writeCtx, conn, toServerMessage(up))
			}
			// Session dropped us or shut down.
			conn.Close(websocket.StatusGoingAway, "playback ended")
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read failed", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				write(r.Context(), conn, types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}

			msg, reply, ok := toSessionMsg(cm)
			if !ok {
				write(r.Context(), conn, types.ServerMessage{Type: "Error", Error: "unknown type"})
				continue
			}
			if !sess.Send(msg) {
				return
			}
			if reply == nil {
				continue
			}
			select {
			case err := <-reply:
				if err != nil {
					write(r.Context(), conn, types.ServerMessage{Type: "Error", Error: err.Error()})
				}
			case <-sess.Done():
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}

func toSessionMsg(m types.ClientMessage) (playback.Msg, chan error, bool) {
	switch m.Type {
	case "seek":
		reply := make(chan error, 1)
		return playback.Seek{Turn: m.Turn, Reply: reply}, reply, true
	case "step":
		reply := make(chan error, 1)
		return playback.Step{Delta: m.Delta, Reply: reply}, reply, true
	case "play":
		return playback.Play{Interval: time.Duration(m.IntervalMS) * time.Millisecond}, nil, true
	case "pause":
		return playback.Pause{}, nil, true
	default:
		return nil, nil, false
	}
}

func toServerMessage(up playback.Update) types.ServerMessage {
	if up.Err != nil {
		return types.ServerMessage{Type: "Error", Version: up.Version, Error: up.Err.Error()}
	}
	return types.ServerMessage{Type: "Frame", Version: up.Version, Frame: &up.Frame}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, _ := json.Marshal(msg)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
