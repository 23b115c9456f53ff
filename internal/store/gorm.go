package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore persists events in postgres through gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Event{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Create(ctx context.Context, p CreateParams) (Event, error) {
	if err := p.validate(); err != nil {
		return Event{}, err
	}
	ev := Event{
		ID:          uuid.NewString(),
		CampaignID:  p.CampaignID,
		CharacterID: p.CharacterID,
		Type:        p.Type,
		Result:      *p.Result,
		Formula:     p.Formula,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&ev).Error; err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (s *GormStore) Page(ctx context.Context, campaignID string, offset, pageSize int) ([]Event, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	events := []Event{}
	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteCampaign removes every event of a campaign. Called from campaign
// teardown only; there is no single-event delete.
func (s *GormStore) DeleteCampaign(ctx context.Context, campaignID string) error {
	return s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Delete(&Event{}).Error
}
