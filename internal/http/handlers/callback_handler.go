// Callback HTTP handlers.
//
// This file exposes the two endpoints the payment gateway calls:
//   - POST /callbacks/c2b   (unsolicited till payment)
//   - POST /callbacks/stk   (result of a push payment request)
//
// Handlers read the raw body, hand it to the matching service and translate
// the result into the gateway's acknowledgement envelope. The unsolicited
// endpoint always acknowledges; the push-result endpoint reports malformed
// bodies and store outages with ResultCode 1 so the gateway redelivers.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-payment-callbacks/internal/http/middleware"
	"github.com/tbourn/go-payment-callbacks/internal/services"
)

// UnsolicitedReceiver records unsolicited payments.
type UnsolicitedReceiver interface {
	Receive(ctx context.Context, raw []byte) (services.UnsolicitedResult, error)
}

// PushResultReceiver applies push payment results.
type PushResultReceiver interface {
	Receive(ctx context.Context, raw []byte) (services.PushResult, error)
}

// Handlers groups the callback endpoints.
type Handlers struct {
	unsolicited UnsolicitedReceiver
	pushResult  PushResultReceiver
}

// New constructs Handlers bound to the given receivers.
func New(unsolicited UnsolicitedReceiver, pushResult PushResultReceiver) *Handlers {
	return &Handlers{unsolicited: unsolicited, pushResult: pushResult}
}

// UnsolicitedCallback godoc
// @ID          unsolicitedCallback
// @Summary     Receive an unsolicited till payment
// @Description Records a payment the customer made to the shared till without a prior request.
// @Description Duplicate deliveries of the same receipt are acknowledged without a second record.
// @Description The gateway is always acknowledged; failures are logged and audited.
// @Tags        Callbacks
// @Accept      json
// @Produce     json
// @Param       body  body      services.UnsolicitedPayload  true  "Gateway payment notification"
// @Success     200   {object}  handlers.GatewayAck          "Accepted"
// @Failure     403   {object}  handlers.ErrorResponse       "Source address not allowed"
// @Failure     429   {object}  handlers.ErrorResponse       "Rate limited"
// @Router      /callbacks/c2b [post]
func (h *Handlers) UnsolicitedCallback(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	raw, err := c.GetRawData()
	if err != nil {
		lg.Error().Err(err).Msg("read unsolicited callback body")
		ack(c, 0, descAccepted)
		return
	}

	res, err := h.unsolicited.Receive(c.Request.Context(), raw)
	if err != nil {
		lg.Error().Err(err).Str("outcome", string(res.Outcome)).Msg("unsolicited callback not recorded")
	}
	ack(c, 0, descAccepted)
}

// PushResultCallback godoc
// @ID          pushResultCallback
// @Summary     Receive a push payment result
// @Description Resolves the pending push transaction named by CheckoutRequestID and settles its sale.
// @Description Duplicates, results for already settled requests and unknown correlation ids are
// @Description acknowledged with ResultCode 0. Malformed bodies and store outages answer ResultCode 1.
// @Tags        Callbacks
// @Accept      json
// @Produce     json
// @Param       body  body      services.PushResultPayload  true  "Gateway push result"
// @Success     200   {object}  handlers.GatewayAck         "Success, or ResultCode 1 on failure"
// @Failure     403   {object}  handlers.ErrorResponse      "Source address not allowed"
// @Failure     429   {object}  handlers.ErrorResponse      "Rate limited"
// @Router      /callbacks/stk [post]
func (h *Handlers) PushResultCallback(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			lg.Warn().Int64("limit", tooLarge.Limit).Msg("push result body too large")
			ack(c, 1, services.ErrMalformedPayload.Error())
			return
		}
		lg.Error().Err(err).Msg("read push result body")
		ack(c, 1, services.ErrMalformedPayload.Error())
		return
	}

	res, err := h.pushResult.Receive(c.Request.Context(), raw)
	switch {
	case errors.Is(err, services.ErrMalformedPayload):
		lg.Warn().Err(err).Msg("push result rejected")
		ack(c, 1, err.Error())
	case errors.Is(err, services.ErrStoreUnavailable):
		lg.Error().Err(err).Msg("push result not applied")
		ack(c, 1, services.ErrStoreUnavailable.Error())
	case err != nil:
		lg.Error().Err(err).Msg("push result failed")
		ack(c, 1, err.Error())
	default:
		if res.CascadeErr != nil {
			c.Error(res.CascadeErr) //nolint:errcheck
		}
		ack(c, 0, descSuccess)
	}
}
