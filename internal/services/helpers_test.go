package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-payment-callbacks/internal/domain"
	"github.com/tbourn/go-payment-callbacks/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func auditTrail(t *testing.T, db *gorm.DB, receiver, key string) []domain.CallbackEvent {
	t.Helper()
	evs, err := repo.ListCallbackEvents(context.Background(), db, receiver, key)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	return evs
}

var errBoom = errors.New("boom")

// flakyStore wraps a real store and fails selected operations.
type flakyStore struct {
	*repo.Store
	failInsert  bool
	failGet     bool
	missingGet  bool
	failResolve bool
	failSale    bool
	failAudit   bool
}

func (f *flakyStore) InsertUnsolicitedIfAbsent(ctx context.Context, tx *domain.UnsolicitedTransaction) (bool, error) {
	if f.failInsert {
		return false, errBoom
	}
	return f.Store.InsertUnsolicitedIfAbsent(ctx, tx)
}

func (f *flakyStore) GetPushTransaction(ctx context.Context, id string) (*domain.PushTransaction, error) {
	if f.failGet {
		return nil, errBoom
	}
	if f.missingGet {
		return nil, domain.ErrNotFound
	}
	return f.Store.GetPushTransaction(ctx, id)
}

func (f *flakyStore) ResolvePushTransactionIfPending(ctx context.Context, id string, res domain.PushResolution) (int64, error) {
	if f.failResolve {
		return 0, errBoom
	}
	return f.Store.ResolvePushTransactionIfPending(ctx, id, res)
}

func (f *flakyStore) UpdateSalePayment(ctx context.Context, id string, st domain.SaleStatus, receipt *string) (int64, error) {
	if f.failSale {
		return 0, errBoom
	}
	return f.Store.UpdateSalePayment(ctx, id, st, receipt)
}

func (f *flakyStore) RecordCallbackEvent(ctx context.Context, ev *domain.CallbackEvent) error {
	if f.failAudit {
		return errBoom
	}
	return f.Store.RecordCallbackEvent(ctx, ev)
}

// memCache is an in-process DeliveryCache.
type memCache struct {
	mu      sync.Mutex
	keys    map[string]bool
	seenErr error
}

func newMemCache() *memCache { return &memCache{keys: map[string]bool{}} }

func (m *memCache) Seen(_ context.Context, key string) (bool, error) {
	if m.seenErr != nil {
		return false, m.seenErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *memCache) Mark(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = true
	return nil
}
