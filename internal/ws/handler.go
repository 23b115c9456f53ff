package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/questlog/backend/internal/campaigns"
	"github.com/questlog/backend/internal/rooms"
	"github.com/questlog/backend/internal/store"
	"github.com/questlog/backend/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler upgrades to a websocket and runs the room protocol: join/leave for
// membership, newEvent to fan a freshly persisted event out to everyone else
// in the room. Membership dies with the connection.
func Handler(reg *rooms.Registry, dir campaigns.Directory, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := randID(6)
		out := make(chan store.Event, 8)
		rlog := log.With(zap.String("conn", connID))

		defer func() { reg.Inbox() <- rooms.Disconnect{ConnID: connID} }()

		// Writer goroutine: pushes room deliveries until the registry
		// closes the outbox on disconnect or eviction.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for ev := range out {
				msg := types.ServerMessage{Type: "newEvent", Event: &ev}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

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

			switch cm.Type {
			case "join":
				ok, err := dir.CampaignExists(r.Context(), cm.CampaignID)
				if err != nil {
					rlog.Warn("campaign lookup failed", zap.Error(err))
					writeError(r.Context(), conn, "campaign lookup failed")
					continue
				}
				if !ok {
					writeError(r.Context(), conn, "campaign not found")
					continue
				}
				reg.Inbox() <- rooms.Join{CampaignID: cm.CampaignID, ConnID: connID, Outbox: out}

			case "leave":
				reg.Inbox() <- rooms.Leave{CampaignID: cm.CampaignID, ConnID: connID}

			case "newEvent":
				if cm.Event == nil || cm.CampaignID == "" {
					writeError(r.Context(), conn, "newEvent requires campaignId and event")
					continue
				}
				reg.Inbox() <- rooms.Publish{CampaignID: cm.CampaignID, Sender: connID, Event: *cm.Event}

			default:
				writeError(r.Context(), conn, "unknown type")
			}
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, text string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "error", Error: text})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
