// Package campaigns exposes the lookup this service needs from the wider
// campaign manager. Campaign CRUD itself lives elsewhere; the event log only
// asks whether a campaign exists before serving its history or joining its
// room.
package campaigns

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type Directory interface {
	// CampaignExists reports whether the campaign is known. A miss is a
	// plain false, not an error.
	CampaignExists(ctx context.Context, campaignID string) (bool, error)
}

// GormDirectory checks existence against the campaigns table owned by the
// surrounding system.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) CampaignExists(ctx context.Context, campaignID string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Table("campaigns").
		Where("id = ?", campaignID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MemoryDirectory serves tests and DB-less runs.
type MemoryDirectory struct {
	mu  sync.RWMutex
	ids map[string]bool
}

func NewMemoryDirectory(ids ...string) *MemoryDirectory {
	d := &MemoryDirectory{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		d.ids[id] = true
	}
	return d
}

func (d *MemoryDirectory) Add(campaignID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids[campaignID] = true
}

func (d *MemoryDirectory) CampaignExists(_ context.Context, campaignID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ids[campaignID], nil
}
