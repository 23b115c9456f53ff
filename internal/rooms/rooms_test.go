package rooms

import (
	"context"
	"testing"
	"time"

	"github.com/questlog/backend/internal/store"
)

func view(t *testing.T, r *Registry, campaignID string) View {
	t.Helper()
	reply := make(chan View, 1)
	r.Inbox() <- GetView{CampaignID: campaignID, Reply: reply}
	return <-reply
}

func TestPublishReachesOtherMembersOnly(t *testing.T) {
	r := NewRegistry(context.Background())

	outA := make(chan store.Event, 8)
	outB := make(chan store.Event, 8)
	r.Inbox() <- Join{CampaignID: "c1", ConnID: "a", Outbox: outA}
	r.Inbox() <- Join{CampaignID: "c1", ConnID: "b", Outbox: outB}

	ev := store.Event{ID: "ev1", CampaignID: "c1", Result: 17, Formula: "20:14;6:3"}
	r.Inbox() <- Publish{CampaignID: "c1", Sender: "a", Event: ev}

	select {
	case got := <-outB:
		if got.ID != ev.ID || got.Result != ev.Result || got.Formula != ev.Formula {
			t.Fatalf("got %+v, want %+v", got, ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("b never received the event")
	}

	// The sender must not hear its own publish, and b must not hear twice.
	r.Inbox() <- Publish{CampaignID: "c1", Sender: "b", Event: store.Event{ID: "ev2", CampaignID: "c1"}}
	select {
	case got := <-outA:
		if got.ID != "ev2" {
			t.Fatalf("a got %q, want ev2", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("a never received ev2")
	}
	select {
	case got := <-outA:
		t.Fatalf("a received unexpected extra event %q", got.ID)
	case got := <-outB:
		t.Fatalf("b received its own publish or a duplicate: %q", got.ID)
	case <-time.After(50 * time.Millisecond):
		// quiet, as expected
	}
}

func TestPublishScopedToRoom(t *testing.T) {
	r := NewRegistry(context.Background())

	out := make(chan store.Event, 8)
	r.Inbox() <- Join{CampaignID: "c2", ConnID: "b", Outbox: out}

	r.Inbox() <- Publish{CampaignID: "c1", Sender: "a", Event: store.Event{ID: "ev1"}}

	select {
	case got := <-out:
		t.Fatalf("received event %q from a room never joined", got.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	r := NewRegistry(context.Background())

	out := make(chan store.Event, 8)
	r.Inbox() <- Join{CampaignID: "c1", ConnID: "b", Outbox: out}
	r.Inbox() <- Leave{CampaignID: "c1", ConnID: "b"}
	r.Inbox() <- Publish{CampaignID: "c1", Sender: "a", Event: store.Event{ID: "ev1"}}

	if v := view(t, r, "c1"); v.NumMembers != 0 {
		t.Fatalf("got %d members, want 0", v.NumMembers)
	}
	select {
	case got := <-out:
		t.Fatalf("received %q after leaving", got.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRegistry(context.Background())

	out := make(chan store.Event, 8)
	r.Inbox() <- Join{CampaignID: "c1", ConnID: "b", Outbox: out}
	r.Inbox() <- Join{CampaignID: "c1", ConnID: "b", Outbox: out}

	if v := view(t, r, "c1"); v.NumMembers != 1 {
		t.Fatalf("got %d members, want 1", v.NumMembers)
	}

	r.Inbox() <- Publish{CampaignID: "c1", Sender: "a", Event: store.Event{ID: "ev1"}}
	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatalf("member never received the event")
	}
	select {
	case got := <-out:
		t.Fatalf("double join caused duplicate delivery of %q", got.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDisconnectRemovesFromAllRoomsAndClosesOutbox(t *testing.T) {
	r := NewRegistry(context.Background())

	out := make(chan store.Event, 8)
	r.Inbox() <- Join{CampaignID: "c1", ConnID: "b", Outbox: out}
	r.Inbox() <- Join{CampaignID: "c2", ConnID: "b", Outbox: out}
	r.Inbox() <- Disconnect{ConnID: "b"}

	if v := view(t, r, "c1"); v.NumMembers != 0 {
		t.Fatalf("c1 still has %d members", v.NumMembers)
	}
	if v := view(t, r, "c2"); v.NumMembers != 0 {
		t.Fatalf("c2 still has %d members", v.NumMembers)
	}

	select {
	case _, open := <-out:
		if open {
			t.Fatalf("expected closed outbox, got a value")
		}
	case <-time.After(time.Second):
		t.Fatalf("outbox never closed")
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	r := NewRegistry(context.Background())

	// Unbuffered outbox with no reader: the first publish can't be
	// delivered and must evict the member instead of blocking the loop.
	stuck := make(chan store.Event)
	r.Inbox() <- Join{CampaignID: "c1", ConnID: "b", Outbox: stuck}
	r.Inbox() <- Publish{CampaignID: "c1", Sender: "a", Event: store.Event{ID: "ev1"}}

	if v := view(t, r, "c1"); v.NumMembers != 0 {
		t.Fatalf("got %d members, want 0 after eviction", v.NumMembers)
	}

	// Eviction leaves the outbox open: the connection is still alive and
	// only its Disconnect may close the channel.
	select {
	case got, open := <-stuck:
		if !open {
			t.Fatalf("eviction closed the outbox")
		}
		t.Fatalf("unexpected delivery %q after eviction", got.ID)
	case <-time.After(50 * time.Millisecond):
	}

	r.Inbox() <- Disconnect{ConnID: "b"}
	select {
	case _, open := <-stuck:
		if open {
			t.Fatalf("expected closed outbox after disconnect")
		}
	case <-time.After(time.Second):
		t.Fatalf("outbox never closed on disconnect")
	}
}

func TestEvictedMemberCanRejoinSameOutbox(t *testing.T) {
	r := NewRegistry(context.Background())

	stuck := make(chan store.Event)
	r.Inbox() <- Join{CampaignID: "c1", ConnID: "b", Outbox: stuck}
	r.Inbox() <- Publish{CampaignID: "c1", Sender: "a", Event: store.Event{ID: "ev1"}}

	if v := view(t, r, "c1"); v.NumMembers != 0 {
		t.Fatalf("got %d members, want 0 after eviction", v.NumMembers)
	}

	// The reader loop doesn't know it was evicted; it re-arms the same
	// channel. The registry must accept it and keep running.
	r.Inbox() <- Join{CampaignID: "c1", ConnID: "b", Outbox: stuck}
	if v := view(t, r, "c1"); v.NumMembers != 1 {
		t.Fatalf("got %d members after rejoin, want 1", v.NumMembers)
	}

	r.Inbox() <- Publish{CampaignID: "c1", Sender: "a", Event: store.Event{ID: "ev2"}}

	// Still nobody reading, so the member is evicted again, but the loop
	// must survive to answer this.
	if v := view(t, r, "c1"); v.NumMembers != 0 {
		t.Fatalf("got %d members, want 0 after second eviction", v.NumMembers)
	}

	// A rejoin with a live reader receives deliveries again.
	ready := make(chan store.Event, 1)
	r.Inbox() <- Join{CampaignID: "c1", ConnID: "b", Outbox: ready}
	r.Inbox() <- Publish{CampaignID: "c1", Sender: "a", Event: store.Event{ID: "ev3"}}
	select {
	case got := <-ready:
		if got.ID != "ev3" {
			t.Fatalf("got %q, want ev3", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("rejoined member never received ev3")
	}
}
