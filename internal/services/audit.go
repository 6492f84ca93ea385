package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-payment-callbacks/internal/domain"
)

// recordEvent appends a delivery to the callback audit log. Failures are
// logged and otherwise ignored; the audit log never changes a response.
func recordEvent(ctx context.Context, store PaymentStore, receiver, key string, o Outcome, raw []byte, cause error) {
	ev := &domain.CallbackEvent{
		Receiver:    receiver,
		ExternalKey: key,
		Outcome:     string(o),
		Payload:     string(raw),
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	if err := store.RecordCallbackEvent(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("receiver", receiver).
			Str("key", key).
			Msg("callback audit write failed")
	}
}

// cacheSeen asks the delivery cache about key. A nil cache or a cache error
// both answer false so the store stays authoritative.
func cacheSeen(ctx context.Context, c DeliveryCache, key string) bool {
	if c == nil {
		return false
	}
	seen, err := c.Seen(ctx, key)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("delivery cache lookup failed")
		return false
	}
	return seen
}

func cacheMark(ctx context.Context, c DeliveryCache, key string) {
	if c == nil {
		return
	}
	if err := c.Mark(ctx, key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("delivery cache mark failed")
	}
}
