package domain

import "time"

// CancelledByUserCode is the gateway result code for a push request the
// payer dismissed on their handset.
const CancelledByUserCode = 1032

// PushResolution is the terminal outcome a push-result callback applies to a
// pending PushTransaction.
type PushResolution struct {
	Status      PushStatus
	ResultCode  *int
	Description string
	Receipt     *string
	CompletedAt *time.Time
}

// StatusForResultCode maps a gateway result code to a push status. A missing
// code cannot confirm payment and is treated as a failure.
func StatusForResultCode(code *int) PushStatus {
	switch {
	case code == nil:
		return PushFailed
	case *code == 0:
		return PushCompleted
	case *code == CancelledByUserCode:
		return PushCancelled
	default:
		return PushFailed
	}
}
