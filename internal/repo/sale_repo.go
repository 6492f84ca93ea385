// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Sale model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-payment-callbacks/internal/domain"
)

// GetSale fetches a sale by id, or ErrNotFound.
func GetSale(ctx context.Context, db *gorm.DB, id string) (*domain.Sale, error) {
	var s domain.Sale
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &s, nil
}

// UpdateSalePayment sets the payment status of a sale and, when receipt is
// non-nil, its receipt. It returns the number of rows changed; zero means
// the sale does not exist.
func UpdateSalePayment(ctx context.Context, db *gorm.DB, id string, status domain.SaleStatus, receipt *string) (int64, error) {
	updates := map[string]any{
		"payment_status": status,
		"updated_at":     time.Now().UTC(),
	}
	if receipt != nil {
		updates["receipt"] = *receipt
	}
	res := db.WithContext(ctx).
		Model(&domain.Sale{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
