// Package services defines the reconciliation logic for gateway payment
// callbacks. This file centralizes the error kinds so that service methods
// return them consistently and callers can branch with errors.Is.
//
// Only ErrMalformedPayload and ErrStoreUnavailable ever leave a Receive
// call; the remaining kinds are recovered inside the service and reported
// through the result's Outcome. Translation into gateway responses happens
// in the handler layer.
package services

import "errors"

var (
	// ErrMalformedPayload indicates a callback body that cannot be decoded or
	// lacks a mandatory field.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrCorrelationMiss indicates a push result whose correlation id matches
	// no known push request.
	ErrCorrelationMiss = errors.New("no push transaction for correlation id")

	// ErrDuplicateDelivery indicates an unsolicited payment whose receipt was
	// already recorded.
	ErrDuplicateDelivery = errors.New("duplicate delivery")

	// ErrAlreadyTerminal indicates a push result for a request that already
	// left pending.
	ErrAlreadyTerminal = errors.New("push transaction already terminal")

	// ErrStoreUnavailable wraps infrastructure failures of the durable store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrCascadeFailure indicates the sale could not be updated after the push
	// transaction itself was resolved.
	ErrCascadeFailure = errors.New("sale cascade failed")
)

// Outcome classifies how a delivery was handled. It is used for responses,
// metrics and the callback audit log.
type Outcome string

const (
	OutcomeRecorded         Outcome = "recorded"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeApplied          Outcome = "applied"
	OutcomeAlreadyTerminal  Outcome = "already_terminal"
	OutcomeCorrelationMiss  Outcome = "correlation_miss"
	OutcomeMalformed        Outcome = "malformed"
	OutcomeStoreUnavailable Outcome = "store_unavailable"
)

// Err returns the error kind an outcome stands for, or nil for outcomes that
// changed state.
func (o Outcome) Err() error {
	switch o {
	case OutcomeDuplicate:
		return ErrDuplicateDelivery
	case OutcomeAlreadyTerminal:
		return ErrAlreadyTerminal
	case OutcomeCorrelationMiss:
		return ErrCorrelationMiss
	case OutcomeMalformed:
		return ErrMalformedPayload
	case OutcomeStoreUnavailable:
		return ErrStoreUnavailable
	}
	return nil
}

// outcomeFor maps an error returned by extraction or the store to its
// outcome label.
func outcomeFor(err error) Outcome {
	if errors.Is(err, ErrMalformedPayload) {
		return OutcomeMalformed
	}
	return OutcomeStoreUnavailable
}
