// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides lookups and the compare-and-swap status
// update for push payment requests.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-payment-callbacks/internal/domain"
)

// GetPushTransaction fetches a push request by its gateway correlation id.
// If the record does not exist, it returns ErrNotFound.
func GetPushTransaction(ctx context.Context, db *gorm.DB, correlationID string) (*domain.PushTransaction, error) {
	var out domain.PushTransaction
	err := db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		First(&out).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &out, nil
}

// ResolvePushTransactionIfPending applies res to the push request identified
// by correlationID only while its stored status is still pending, and returns
// the number of rows changed. Zero means another delivery already moved the
// request to a terminal status (or the row does not exist).
//
// The status predicate is part of the UPDATE itself, so concurrent
// deliveries of the same result cannot both win.
func ResolvePushTransactionIfPending(ctx context.Context, db *gorm.DB, correlationID string, res domain.PushResolution) (int64, error) {
	updates := map[string]any{
		"status":             res.Status,
		"result_code":        res.ResultCode,
		"result_description": res.Description,
		"receipt":            res.Receipt,
		"completed_at":       res.CompletedAt,
		"updated_at":         time.Now().UTC(),
	}
	out := db.WithContext(ctx).
		Model(&domain.PushTransaction{}).
		Where("correlation_id = ? AND status = ?", correlationID, domain.PushPending).
		Updates(updates)
	if out.Error != nil {
		return 0, out.Error
	}
	return out.RowsAffected, nil
}
