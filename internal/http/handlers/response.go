// Package handlers provides the HTTP handlers of the callback service.
//
// This file defines the two response shapes the service speaks: the generic
// ErrorResponse used by non-callback failures, and GatewayAck, the envelope
// the payment gateway expects back from every callback.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-payment-callbacks/internal/http/middleware"
)

// ErrorResponse is the standard error envelope for non-callback failures.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message
	Message string `json:"message" example:"route not found"`
}

// GatewayAck is the acknowledgement body returned to the gateway. A zero
// ResultCode tells the gateway the delivery was taken; anything else invites
// a redelivery.
type GatewayAck struct {
	ResultCode int    `json:"ResultCode" example:"0"`
	ResultDesc string `json:"ResultDesc" example:"Accepted"`
}

// Acknowledgement descriptions.
const (
	descAccepted = "Accepted"
	descSuccess  = "Success"
)

// fail aborts the request with a structured error. Server errors (>=500) are
// logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail, used by router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ack writes a gateway acknowledgement. The HTTP status is always 200; the
// gateway reads the outcome from ResultCode.
func ack(c *gin.Context, code int, desc string) {
	c.JSON(http.StatusOK, GatewayAck{ResultCode: code, ResultDesc: desc})
}
