package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/questlog/backend/internal/campaigns"
	"github.com/questlog/backend/internal/rooms"
	"github.com/questlog/backend/internal/store"
	"github.com/questlog/backend/internal/types"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var sm types.ServerMessage
	if err := json.Unmarshal(data, &sm); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return sm
}

func newWSServer(t *testing.T) string {
	t.Helper()
	reg := rooms.NewRegistry(context.Background())
	dir := campaigns.NewMemoryDirectory("c1")
	srv := httptest.NewServer(Handler(reg, dir, zap.NewNop()))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestNewEventReachesJoinedViewer(t *testing.T) {
	url := newWSServer(t)

	viewer := dial(t, url)
	send(t, viewer, types.ClientMessage{Type: "join", CampaignID: "c1"})

	producer := dial(t, url)
	send(t, producer, types.ClientMessage{Type: "join", CampaignID: "c1"})

	// Let both joins land in the registry before publishing.
	time.Sleep(200 * time.Millisecond)

	ev := store.Event{
		ID:         "ev1",
		CampaignID: "c1",
		Type:       "skill-3",
		Result:     17,
		Formula:    "20:14;6:3",
		CreatedAt:  time.Now().UTC(),
	}
	send(t, producer, types.ClientMessage{Type: "newEvent", CampaignID: "c1", Event: &ev})

	got := read(t, viewer)
	if got.Type != "newEvent" || got.Event == nil {
		t.Fatalf("got %+v, want newEvent with event", got)
	}
	if got.Event.ID != ev.ID || got.Event.Result != ev.Result || got.Event.Formula != ev.Formula {
		t.Fatalf("got %+v, want %+v", got.Event, ev)
	}
}

func TestJoinUnknownCampaign(t *testing.T) {
	url := newWSServer(t)

	conn := dial(t, url)
	send(t, conn, types.ClientMessage{Type: "join", CampaignID: "nope"})

	got := read(t, conn)
	if got.Type != "error" || got.Error == "" {
		t.Fatalf("got %+v, want error message", got)
	}
}

func TestBadMessages(t *testing.T) {
	url := newWSServer(t)
	conn := dial(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := read(t, conn); got.Type != "error" {
		t.Fatalf("got %+v, want error for bad json", got)
	}

	send(t, conn, types.ClientMessage{Type: "teleport"})
	if got := read(t, conn); got.Type != "error" {
		t.Fatalf("got %+v, want error for unknown type", got)
	}

	send(t, conn, types.ClientMessage{Type: "newEvent", CampaignID: "c1"})
	if got := read(t, conn); got.Type != "error" {
		t.Fatalf("got %+v, want error for newEvent without event", got)
	}
}
