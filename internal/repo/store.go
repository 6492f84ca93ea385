// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file exposes Store, a handle that binds the free
// repository functions to one database so it can be injected into services.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-payment-callbacks/internal/domain"
)

// Store adapts the repository functions to the services.PaymentStore
// contract. It is safe for concurrent use; all coordination happens in the
// database.
type Store struct {
	DB *gorm.DB
}

// NewStore returns a Store bound to db.
func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

// InsertUnsolicitedIfAbsent proxies InsertUnsolicitedIfAbsent.
func (s *Store) InsertUnsolicitedIfAbsent(ctx context.Context, tx *domain.UnsolicitedTransaction) (bool, error) {
	return InsertUnsolicitedIfAbsent(ctx, s.DB, tx)
}

// GetPushTransaction proxies GetPushTransaction.
func (s *Store) GetPushTransaction(ctx context.Context, correlationID string) (*domain.PushTransaction, error) {
	return GetPushTransaction(ctx, s.DB, correlationID)
}

// ResolvePushTransactionIfPending proxies ResolvePushTransactionIfPending.
func (s *Store) ResolvePushTransactionIfPending(ctx context.Context, correlationID string, res domain.PushResolution) (int64, error) {
	return ResolvePushTransactionIfPending(ctx, s.DB, correlationID, res)
}

// UpdateSalePayment proxies UpdateSalePayment.
func (s *Store) UpdateSalePayment(ctx context.Context, saleID string, status domain.SaleStatus, receipt *string) (int64, error) {
	return UpdateSalePayment(ctx, s.DB, saleID, status, receipt)
}

// RecordCallbackEvent proxies CreateCallbackEvent.
func (s *Store) RecordCallbackEvent(ctx context.Context, ev *domain.CallbackEvent) error {
	return CreateCallbackEvent(ctx, s.DB, ev)
}

// Ping checks that the underlying connection pool is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
