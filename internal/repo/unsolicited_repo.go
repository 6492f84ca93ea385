// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the insert-or-detect-conflict write for
// unsolicited gateway payments.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-payment-callbacks/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = domain.ErrNotFound

// translateNotFound wraps gorm's not-found error in ErrNotFound and keeps
// the original in the chain.
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// InsertUnsolicitedIfAbsent inserts tx unless a row with the same receipt
// already exists. It reports created=false on conflict and leaves the
// existing row untouched.
//
// The conflict is resolved by the database (ON CONFLICT DO NOTHING against
// the receipt unique index) and detected through the affected-row count, so
// no driver-specific error code is inspected.
//
// ID and CreatedAt are filled in when empty.
func InsertUnsolicitedIfAbsent(ctx context.Context, db *gorm.DB, tx *domain.UnsolicitedTransaction) (bool, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "receipt"}},
			DoNothing: true,
		}).
		Create(tx)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GetUnsolicitedByReceipt fetches the stored payment for receipt, or
// ErrNotFound.
func GetUnsolicitedByReceipt(ctx context.Context, db *gorm.DB, receipt string) (*domain.UnsolicitedTransaction, error) {
	var out domain.UnsolicitedTransaction
	if err := db.WithContext(ctx).Where("receipt = ?", receipt).First(&out).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &out, nil
}
