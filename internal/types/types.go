package types

import "github.com/questlog/backend/internal/store"

// ClientMessage is what a viewer sends over the socket: room control plus
// the post-persist broadcast of an event it just created.
type ClientMessage struct {
	Type       string       `json:"type"` // "join" | "leave" | "newEvent"
	CampaignID string       `json:"campaignId,omitempty"`
	Event      *store.Event `json:"event,omitempty"`
}

type ServerMessage struct {
	Type  string       `json:"type"` // "newEvent" | "error"
	Event *store.Event `json:"event,omitempty"`
	Error string       `json:"error,omitempty"`
}
