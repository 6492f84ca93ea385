// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file appends gateway deliveries to the audit log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-payment-callbacks/internal/domain"
)

// CreateCallbackEvent appends ev to the audit log, filling ID and CreatedAt
// when empty.
func CreateCallbackEvent(ctx context.Context, db *gorm.DB, ev *domain.CallbackEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(ev).Error
}

// ListCallbackEvents returns the audit trail for one external key, oldest
// first.
func ListCallbackEvents(ctx context.Context, db *gorm.DB, receiver, externalKey string) ([]domain.CallbackEvent, error) {
	var out []domain.CallbackEvent
	err := db.WithContext(ctx).
		Where("receiver = ? AND external_key = ?", receiver, externalKey).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
