// Package store persists campaign events and serves their paginated history.
package store

import (
	"context"
	"errors"
	"time"
)

// DefaultPageSize is the fixed page length for event history.
const DefaultPageSize = 10

var ErrValidation = errors.New("missing required field")

// Event is one immutable roll/result record tied to a campaign. Events are
// never updated and only deleted as part of campaign teardown.
type Event struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	CampaignID  string    `json:"campaignId" gorm:"index:idx_events_campaign_created,priority:1;not null"`
	CharacterID string    `json:"characterId,omitempty"`
	Type        string    `json:"type" gorm:"not null"`
	Result      int       `json:"result"`
	Formula     string    `json:"formula,omitempty"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index:idx_events_campaign_created,priority:2,sort:desc"`
}

// CreateParams carries the caller-supplied fields of a new event. Result is a
// pointer so that a legitimate roll result of 0 is distinguishable from an
// absent one.
type CreateParams struct {
	CampaignID  string
	Type        string
	Result      *int
	CharacterID string
	Formula     string
}

func (p CreateParams) validate() error {
	if p.CampaignID == "" || p.Type == "" || p.Result == nil {
		return ErrValidation
	}
	return nil
}

// EventStore is the persistence contract for campaign events.
//
// Page returns events for one campaign ordered newest first, skipping offset
// rows and returning at most pageSize. A negative offset reads as zero. The
// offset is a plain client-held count; a concurrent insert between two page
// calls can shift the window, which is accepted for a casual log.
type EventStore interface {
	Create(ctx context.Context, p CreateParams) (Event, error)
	Page(ctx context.Context, campaignID string, offset, pageSize int) ([]Event, error)
	DeleteCampaign(ctx context.Context, campaignID string) error
}
