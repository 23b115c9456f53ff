// Package rooms fans freshly created campaign events out to every other
// live viewer of the same campaign. Membership is ephemeral and in-memory:
// it lives exactly as long as the connection, and a message published while
// a viewer is absent is gone for good (the viewer catches up by paging).
package rooms

import (
	"context"

	"github.com/questlog/backend/internal/store"
)

type Msg interface{ isRoomsMsg() }

type Join struct {
	CampaignID string
	ConnID     string
	Outbox     chan store.Event // where this connection receives events
}

func (Join) isRoomsMsg() {}

type Leave struct {
	CampaignID string
	ConnID     string
}

func (Leave) isRoomsMsg() {}

// Disconnect removes the connection from every room and closes its outbox.
type Disconnect struct{ ConnID string }

func (Disconnect) isRoomsMsg() {}

// Publish delivers Event to every member of the campaign's room except the
// sender. At-most-once: nothing is buffered or retried.
type Publish struct {
	CampaignID string
	Sender     string
	Event      store.Event
}

func (Publish) isRoomsMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomsMsg() {}

// GetView reflects internal state for tests without data races.
type GetView struct {
	CampaignID string
	Reply      chan View
}

func (GetView) isRoomsMsg() {}

type View struct {
	NumMembers int
}

type member struct {
	outbox chan store.Event
	rooms  map[string]bool
}

// Registry owns the room membership table. All mutation happens on its
// single actor goroutine, so two publishes from the same producer keep
// their order.
type Registry struct {
	inbox  chan Msg
	rooms  map[string]map[string]*member // campaignID -> connID -> member
	conns  map[string]*member
	ctx    context.Context
	cancel context.CancelFunc
}

func NewRegistry(parent context.Context) *Registry {
	ctx, cancel := context.WithCancel(parent)
	r := &Registry{
		inbox:  make(chan Msg, 64),
		rooms:  make(map[string]map[string]*member),
		conns:  make(map[string]*member),
		ctx:    ctx,
		cancel: cancel,
	}
	go r.loop()
	return r
}

func (r *Registry) Inbox() chan<- Msg { return r.inbox }

func (r *Registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.join(msg)

			case Leave:
				r.leave(msg.CampaignID, msg.ConnID)

			case Disconnect:
				r.disconnect(msg.ConnID)

			case Publish:
				r.publish(msg)

			case GetView:
				msg.Reply <- View{NumMembers: len(r.rooms[msg.CampaignID])}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Registry) join(msg Join) {
	mem := r.conns[msg.ConnID]
	if mem == nil {
		mem = &member{rooms: make(map[string]bool)}
		r.conns[msg.ConnID] = mem
	}
	mem.outbox = msg.Outbox
	mem.rooms[msg.CampaignID] = true

	room := r.rooms[msg.CampaignID]
	if room == nil {
		room = make(map[string]*member)
		r.rooms[msg.CampaignID] = room
	}
	room[msg.ConnID] = mem
}

func (r *Registry) leave(campaignID, connID string) {
	mem := r.conns[connID]
	if mem == nil {
		return
	}
	delete(mem.rooms, campaignID)
	r.dropFromRoom(campaignID, connID)
}

// evict removes a connection from every room without touching its outbox.
func (r *Registry) evict(connID string) {
	mem := r.conns[connID]
	if mem == nil {
		return
	}
	for campaignID := range mem.rooms {
		r.dropFromRoom(campaignID, connID)
	}
	clear(mem.rooms)
}

func (r *Registry) disconnect(connID string) {
	mem := r.conns[connID]
	if mem == nil {
		return
	}
	for campaignID := range mem.rooms {
		r.dropFromRoom(campaignID, connID)
	}
	delete(r.conns, connID)
	close(mem.outbox)
}

func (r *Registry) publish(msg Publish) {
	for connID, mem := range r.rooms[msg.CampaignID] {
		if connID == msg.Sender {
			continue
		}
		select {
		case mem.outbox <- msg.Event:
			// ok
		default:
			// Slow or wedged consumer. No backpressure here: drop its
			// memberships and let its next page call catch it up. The
			// outbox stays open — the connection is still alive and may
			// rejoin with it; only Disconnect closes channels.
			r.evict(connID)
		}
	}
}

func (r *Registry) dropFromRoom(campaignID, connID string) {
	room := r.rooms[campaignID]
	if room == nil {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(r.rooms, campaignID)
	}
}

func (r *Registry) shutdown() {
	for connID, mem := range r.conns {
		close(mem.outbox)
		delete(r.conns, connID)
	}
	clear(r.rooms)
	r.cancel()
}
