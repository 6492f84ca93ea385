// Package handlers defines HTTP-layer error codes used outside the gateway
// callback envelopes.
//
// Callback routes answer in the gateway's own ResultCode/ResultDesc shape;
// everything else (unknown routes, wrong methods, rejected sources, panics)
// answers with an ErrorResponse carrying one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "route not found"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeUnavailable      = "unavailable"
	ErrCodeInternal         = "internal_error"
)
