package services

import (
	"context"

	"github.com/tbourn/go-payment-callbacks/internal/domain"
)

// PaymentStore is the durable store the receivers write through.
// repo.Store is the production implementation.
type PaymentStore interface {
	// InsertUnsolicitedIfAbsent inserts tx unless its receipt already exists
	// and reports whether a row was created.
	InsertUnsolicitedIfAbsent(ctx context.Context, tx *domain.UnsolicitedTransaction) (bool, error)

	// GetPushTransaction returns the push request for correlationID, or an
	// error matching domain.ErrNotFound.
	GetPushTransaction(ctx context.Context, correlationID string) (*domain.PushTransaction, error)

	// ResolvePushTransactionIfPending applies res only while the request is
	// pending and returns the affected row count.
	ResolvePushTransactionIfPending(ctx context.Context, correlationID string, res domain.PushResolution) (int64, error)

	// UpdateSalePayment sets the sale's payment status (and receipt when
	// non-nil) and returns the affected row count.
	UpdateSalePayment(ctx context.Context, saleID string, status domain.SaleStatus, receipt *string) (int64, error)

	// RecordCallbackEvent appends an audit entry.
	RecordCallbackEvent(ctx context.Context, ev *domain.CallbackEvent) error
}

// DeliveryCache remembers keys of deliveries that are already reconciled so
// redeliveries can be acknowledged without a store round trip. A nil cache is
// valid and disables the shortcut.
type DeliveryCache interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}
