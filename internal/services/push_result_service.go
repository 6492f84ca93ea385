// Package services – PushResultService
//
// PushResultService applies the gateway's asynchronous result of a push
// payment request to the pending PushTransaction created by the initiator,
// then cascades the terminal status onto the linked Sale.
//
// Status is monotonic: the conditional update only matches pending rows, so
// redeliveries and late results for a request that already resolved change
// nothing. The sale cascade runs as a separate write after the transition
// and its failure never rolls the transition back.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-payment-callbacks/internal/domain"
	"github.com/tbourn/go-payment-callbacks/internal/observability"
)

const pushKeyPrefix = "stk:"

// PushResult describes how one push-result delivery was handled.
type PushResult struct {
	Outcome       Outcome
	CorrelationID string
	// Status is the status this delivery resolved the request to, or the
	// status it already had for OutcomeAlreadyTerminal.
	Status domain.PushStatus
	// SaleUpdated reports whether the cascade changed the linked sale.
	SaleUpdated bool
	// CascadeErr wraps ErrCascadeFailure when the sale could not be updated.
	// The delivery is still acknowledged.
	CascadeErr error
}

// PushResultService is the receiver for push payment results.
type PushResultService struct {
	Store PaymentStore
	// Cache is optional.
	Cache DeliveryCache
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewPushResultService wires a receiver around store. cache may be nil.
func NewPushResultService(store PaymentStore, cache DeliveryCache) *PushResultService {
	return &PushResultService{Store: store, Cache: cache, Now: time.Now}
}

// Receive decodes raw, correlates it to a pending push request and resolves
// it. Correlation misses, already terminal requests and cascade failures are
// reported through the result with a nil error. Only ErrMalformedPayload and
// ErrStoreUnavailable are returned.
func (s *PushResultService) Receive(ctx context.Context, raw []byte) (PushResult, error) {
	tr := observability.Tracer("services/PushResultService")
	ctx, span := tr.Start(ctx, "PushResultService.Receive")
	defer span.End()
	lg := zerolog.Ctx(ctx)

	rec, err := DecodePushResult(raw)
	if err != nil {
		return s.fail(ctx, span, "", raw, err)
	}
	span.SetAttributes(attribute.String("payment.correlation_id", rec.CorrelationID))

	res := PushResult{CorrelationID: rec.CorrelationID}
	key := pushKeyPrefix + rec.CorrelationID
	if cacheSeen(ctx, s.Cache, key) {
		res.Outcome = OutcomeAlreadyTerminal
		return s.done(ctx, span, res, raw), nil
	}

	pt, err := s.Store.GetPushTransaction(ctx, rec.CorrelationID)
	if errors.Is(err, domain.ErrNotFound) {
		lg.Warn().
			Str("correlation_id", rec.CorrelationID).
			Str("request_id", rec.RequestID).
			Msg("push result for unknown correlation id")
		res.Outcome = OutcomeCorrelationMiss
		return s.done(ctx, span, res, raw), nil
	}
	if err != nil {
		return s.fail(ctx, span, rec.CorrelationID, raw, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}
	if pt.Status.Terminal() {
		cacheMark(ctx, s.Cache, key)
		res.Outcome = OutcomeAlreadyTerminal
		res.Status = pt.Status
		return s.done(ctx, span, res, raw), nil
	}

	resolution := s.resolve(rec)
	n, err := s.Store.ResolvePushTransactionIfPending(ctx, rec.CorrelationID, resolution)
	if err != nil {
		return s.fail(ctx, span, rec.CorrelationID, raw, fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}
	cacheMark(ctx, s.Cache, key)
	if n == 0 {
		// Lost the race against a concurrent delivery of the same result.
		res.Outcome = OutcomeAlreadyTerminal
		return s.done(ctx, span, res, raw), nil
	}

	res.Outcome = OutcomeApplied
	res.Status = resolution.Status
	lg.Info().
		Str("correlation_id", rec.CorrelationID).
		Str("status", string(resolution.Status)).
		Str("sale_id", pt.SaleID).
		Msg("push transaction resolved")
	warnOnAmountMismatch(ctx, pt, rec)

	res.SaleUpdated, res.CascadeErr = s.cascade(ctx, pt, resolution)
	return s.done(ctx, span, res, raw), nil
}

// resolve derives the terminal state of a push request from its result.
func (s *PushResultService) resolve(rec PushResultRecord) domain.PushResolution {
	res := domain.PushResolution{
		Status:      domain.StatusForResultCode(rec.ResultCode),
		ResultCode:  rec.ResultCode,
		Description: rec.Description,
	}
	if res.Status != domain.PushCompleted {
		return res
	}
	res.Receipt = rec.Receipt
	completed := s.now().UTC()
	if rec.TransactionTime != nil {
		completed = *rec.TransactionTime
	}
	res.CompletedAt = &completed
	return res
}

// cascade copies a fresh terminal status onto the linked sale. A failure is
// logged and counted but returned only as information for the caller.
func (s *PushResultService) cascade(ctx context.Context, pt *domain.PushTransaction, res domain.PushResolution) (bool, error) {
	lg := zerolog.Ctx(ctx)
	if pt.SaleID == "" {
		lg.Warn().Str("correlation_id", pt.CorrelationID).Msg("push transaction has no sale; cascade skipped")
		return false, nil
	}

	status := domain.SaleStatusFor(res.Status)
	n, err := s.Store.UpdateSalePayment(ctx, pt.SaleID, status, res.Receipt)
	switch {
	case err != nil:
		err = fmt.Errorf("%w: sale %s: %w", ErrCascadeFailure, pt.SaleID, err)
	case n == 0:
		err = fmt.Errorf("%w: sale %s not found", ErrCascadeFailure, pt.SaleID)
	default:
		return true, nil
	}
	cascadeFailures.Inc()
	lg.Error().Err(err).
		Str("correlation_id", pt.CorrelationID).
		Str("sale_id", pt.SaleID).
		Str("sale_status", string(status)).
		Msg("sale cascade failed")
	return false, err
}

// warnOnAmountMismatch flags a gateway amount that differs from the amount
// the initiator requested. It never rejects the result.
func warnOnAmountMismatch(ctx context.Context, pt *domain.PushTransaction, rec PushResultRecord) {
	if rec.Amount == nil || pt.Amount.IsZero() || rec.Amount.Equal(pt.Amount) {
		return
	}
	zerolog.Ctx(ctx).Warn().
		Str("correlation_id", pt.CorrelationID).
		Str("requested", pt.Amount.StringFixed(2)).
		Str("reported", rec.Amount.StringFixed(2)).
		Msg("push result amount differs from requested amount")
}

func (s *PushResultService) done(ctx context.Context, span trace.Span, res PushResult, raw []byte) PushResult {
	span.SetAttributes(attribute.String("callback.outcome", string(res.Outcome)))
	if res.CascadeErr != nil {
		span.RecordError(res.CascadeErr)
	}
	countOutcome(domain.ReceiverPushResult, res.Outcome)
	recordEvent(ctx, s.Store, domain.ReceiverPushResult, res.CorrelationID, res.Outcome, raw, res.CascadeErr)
	return res
}

func (s *PushResultService) fail(ctx context.Context, span trace.Span, correlationID string, raw []byte, err error) (PushResult, error) {
	o := outcomeFor(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(o))
	countOutcome(domain.ReceiverPushResult, o)
	zerolog.Ctx(ctx).Error().Err(err).Str("correlation_id", correlationID).Msg("push result rejected")
	recordEvent(ctx, s.Store, domain.ReceiverPushResult, correlationID, o, raw, err)
	return PushResult{Outcome: o, CorrelationID: correlationID}, err
}

func (s *PushResultService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
