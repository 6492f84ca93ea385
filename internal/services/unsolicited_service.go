// Package services – UnsolicitedService
//
// UnsolicitedService records payments customers make to the shared till
// without a prior request ("C2B"). The gateway delivers at least once, so
// the receipt is the idempotency key and the store's unique index decides
// which delivery wins.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-payment-callbacks/internal/domain"
	"github.com/tbourn/go-payment-callbacks/internal/observability"
)

const unsolicitedKeyPrefix = "c2b:"

// UnsolicitedResult describes how one unsolicited delivery was handled.
type UnsolicitedResult struct {
	Outcome Outcome
	Receipt string
	// Transaction is the row written by this delivery; nil for duplicates.
	Transaction *domain.UnsolicitedTransaction
}

// UnsolicitedService is the receiver for unsolicited payments.
type UnsolicitedService struct {
	Store PaymentStore
	// Cache is optional.
	Cache DeliveryCache
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewUnsolicitedService wires a receiver around store. cache may be nil.
func NewUnsolicitedService(store PaymentStore, cache DeliveryCache) *UnsolicitedService {
	return &UnsolicitedService{Store: store, Cache: cache, Now: time.Now}
}

// Receive decodes raw, infers the station and inserts the payment unless its
// receipt is already known. Duplicates return OutcomeDuplicate with a nil
// error. Only ErrMalformedPayload and ErrStoreUnavailable are returned.
func (s *UnsolicitedService) Receive(ctx context.Context, raw []byte) (UnsolicitedResult, error) {
	tr := observability.Tracer("services/UnsolicitedService")
	ctx, span := tr.Start(ctx, "UnsolicitedService.Receive")
	defer span.End()
	lg := zerolog.Ctx(ctx)

	rec, err := DecodeUnsolicited(raw, s.now())
	if err != nil {
		return s.fail(ctx, span, "", raw, err)
	}
	span.SetAttributes(attribute.String("payment.receipt", rec.Receipt))

	res := UnsolicitedResult{Receipt: rec.Receipt}
	key := unsolicitedKeyPrefix + rec.Receipt
	if cacheSeen(ctx, s.Cache, key) {
		res.Outcome = OutcomeDuplicate
		return s.done(ctx, span, res, raw), nil
	}

	tx := &domain.UnsolicitedTransaction{
		Receipt:          rec.Receipt,
		Phone:            rec.Phone,
		Amount:           rec.Amount,
		TransactionTime:  rec.TransactionTime,
		AccountReference: rec.AccountReference,
		CustomerName:     rec.CustomerName,
		StationID:        InferStationID(rec.AccountReference),
	}
	created, err := s.Store.InsertUnsolicitedIfAbsent(ctx, tx)
	if err != nil {
		return s.fail(ctx, span, rec.Receipt, raw, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}
	cacheMark(ctx, s.Cache, key)

	if !created {
		lg.Info().Str("receipt", rec.Receipt).Msg("duplicate unsolicited payment ignored")
		res.Outcome = OutcomeDuplicate
		return s.done(ctx, span, res, raw), nil
	}

	ev := lg.Info().
		Str("receipt", rec.Receipt).
		Str("amount", rec.Amount.StringFixed(2)).
		Str("account_reference", rec.AccountReference)
	if tx.StationID != nil {
		ev = ev.Int("station_id", *tx.StationID)
	}
	ev.Msg("unsolicited payment recorded")

	res.Outcome = OutcomeRecorded
	res.Transaction = tx
	return s.done(ctx, span, res, raw), nil
}

func (s *UnsolicitedService) done(ctx context.Context, span trace.Span, res UnsolicitedResult, raw []byte) UnsolicitedResult {
	span.SetAttributes(attribute.String("callback.outcome", string(res.Outcome)))
	countOutcome(domain.ReceiverUnsolicited, res.Outcome)
	recordEvent(ctx, s.Store, domain.ReceiverUnsolicited, res.Receipt, res.Outcome, raw, nil)
	return res
}

func (s *UnsolicitedService) fail(ctx context.Context, span trace.Span, receipt string, raw []byte, err error) (UnsolicitedResult, error) {
	o := outcomeFor(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(o))
	countOutcome(domain.ReceiverUnsolicited, o)
	zerolog.Ctx(ctx).Error().Err(err).Str("receipt", receipt).Msg("unsolicited payment rejected")
	recordEvent(ctx, s.Store, domain.ReceiverUnsolicited, receipt, o, raw, err)
	return UnsolicitedResult{Outcome: o, Receipt: receipt}, err
}

func (s *UnsolicitedService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
