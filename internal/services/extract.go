// Package services – field extraction
//
// This file decodes the gateway's callback bodies and normalizes them into
// canonical records. The gateway is loose about JSON types (amounts, phone
// numbers and timestamps arrive as strings or numbers), so scalar fields go
// through flexString.
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// gatewayTimeLayout is the gateway's fixed-width local timestamp.
const gatewayTimeLayout = "20060102150405"

// gatewayZone is the gateway's local clock (East Africa Time, no DST).
var gatewayZone = time.FixedZone("EAT", 3*60*60)

// Metadata item names the push-result extractor understands.
const (
	metaReceipt         = "MpesaReceiptNumber"
	metaTransactionDate = "TransactionDate"
	metaPhone           = "PhoneNumber"
	metaAmount          = "Amount"
)

var nameCaser = cases.Title(language.Und)

// flexString accepts any JSON scalar and keeps its text. Objects and arrays
// decode to empty so a stray structure in an optional field never rejects
// the body; mandatory fields are checked after decoding.
type flexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexString) UnmarshalJSON(data []byte) error {
	*f = flexString(scalarText(data))
	return nil
}

// scalarText returns the text of a JSON string, number or boolean, or empty
// for null, objects and arrays.
func scalarText(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return s
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return ""
		}
		return n.String()
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		return string(data)
	default:
		return ""
	}
}

func (f flexString) String() string { return strings.TrimSpace(string(f)) }

// UnsolicitedPayload is the body the gateway posts when a customer pays the
// till directly. Field names are the gateway's.
type UnsolicitedPayload struct {
	TransactionType   flexString `json:"TransactionType" swaggertype:"string" example:"Buy Goods"`
	TransID           flexString `json:"TransID" swaggertype:"string" example:"SFJ7XXXXXX"`
	TransTime         flexString `json:"TransTime" swaggertype:"string" example:"20260108123456"`
	TransAmount       flexString `json:"TransAmount" swaggertype:"string" example:"1000.00"`
	BusinessShortCode flexString `json:"BusinessShortCode" swaggertype:"string" example:"123456"`
	BillRefNumber     flexString `json:"BillRefNumber" swaggertype:"string" example:"STN12"`
	InvoiceNumber     flexString `json:"InvoiceNumber" swaggertype:"string"`
	OrgAccountBalance flexString `json:"OrgAccountBalance" swaggertype:"string"`
	ThirdPartyTransID flexString `json:"ThirdPartyTransID" swaggertype:"string"`
	MSISDN            flexString `json:"MSISDN" swaggertype:"string" example:"254712345678"`
	FirstName         flexString `json:"FirstName" swaggertype:"string" example:"John"`
	MiddleName        flexString `json:"MiddleName" swaggertype:"string"`
	LastName          flexString `json:"LastName" swaggertype:"string" example:"Doe"`
}

// PushResultPayload is the envelope the gateway posts with the result of a
// push payment request.
type PushResultPayload struct {
	Body struct {
		StkCallback *StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

// StkCallback carries the result of one push payment request.
type StkCallback struct {
	MerchantRequestID flexString        `json:"MerchantRequestID" swaggertype:"string" example:"29115-34620561-1"`
	CheckoutRequestID flexString        `json:"CheckoutRequestID" swaggertype:"string" example:"ws_CO_191220191020363925"`
	ResultCode        flexString        `json:"ResultCode" swaggertype:"integer" example:"0"`
	ResultDesc        flexString        `json:"ResultDesc" swaggertype:"string" example:"The service request is processed successfully."`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// CallbackMetadata is the name/value list attached to successful results.
type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem is one name/value pair. Value is kept raw and only read for
// the names the extractor understands.
type MetadataItem struct {
	Name  string          `json:"Name" example:"MpesaReceiptNumber"`
	Value json.RawMessage `json:"Value" swaggertype:"string" example:"NLJ7RT61SV"`
}

// UnsolicitedRecord is the canonical form of an unsolicited payment.
type UnsolicitedRecord struct {
	Receipt          string
	Phone            string
	Amount           decimal.Decimal
	TransactionTime  time.Time
	AccountReference string
	CustomerName     string
}

// PushResultRecord is the canonical form of a push result.
type PushResultRecord struct {
	CorrelationID   string
	RequestID       string
	ResultCode      *int
	Description     string
	Receipt         *string
	Phone           string
	Amount          *decimal.Decimal
	TransactionTime *time.Time
}

// DecodeUnsolicited decodes and normalizes an unsolicited payment body.
// Receipt and a positive decimal amount are mandatory; everything else
// defaults to empty, and the timestamp to now.
func DecodeUnsolicited(raw []byte, now time.Time) (UnsolicitedRecord, error) {
	var p UnsolicitedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return UnsolicitedRecord{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return ExtractUnsolicited(p, now)
}

// ExtractUnsolicited normalizes an already decoded unsolicited payment.
func ExtractUnsolicited(p UnsolicitedPayload, now time.Time) (UnsolicitedRecord, error) {
	receipt := p.TransID.String()
	if receipt == "" {
		return UnsolicitedRecord{}, fmt.Errorf("%w: missing TransID", ErrMalformedPayload)
	}
	amountText := p.TransAmount.String()
	if amountText == "" {
		return UnsolicitedRecord{}, fmt.Errorf("%w: missing TransAmount", ErrMalformedPayload)
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return UnsolicitedRecord{}, fmt.Errorf("%w: TransAmount %q is not numeric", ErrMalformedPayload, amountText)
	}
	if !amount.IsPositive() {
		return UnsolicitedRecord{}, fmt.Errorf("%w: TransAmount must be positive", ErrMalformedPayload)
	}
	if !isWholeCents(amount) {
		return UnsolicitedRecord{}, fmt.Errorf("%w: TransAmount %q has sub-cent precision", ErrMalformedPayload, amountText)
	}

	ts, _ := DecodeGatewayTime(p.TransTime.String(), now)

	return UnsolicitedRecord{
		Receipt:          receipt,
		Phone:            p.MSISDN.String(),
		Amount:           amount.Round(2),
		TransactionTime:  ts.UTC(),
		AccountReference: p.BillRefNumber.String(),
		CustomerName:     displayName(p.FirstName.String(), p.LastName.String()),
	}, nil
}

// DecodePushResult decodes and normalizes a push-result body.
func DecodePushResult(raw []byte) (PushResultRecord, error) {
	var p PushResultPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return PushResultRecord{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return ExtractPushResult(p)
}

// ExtractPushResult normalizes an already decoded push result. Only the
// correlation id is mandatory. Unknown metadata names are ignored, and
// metadata values that cannot be parsed (including sub-cent amounts) are
// dropped rather than rejected.
func ExtractPushResult(p PushResultPayload) (PushResultRecord, error) {
	cb := p.Body.StkCallback
	if cb == nil {
		return PushResultRecord{}, fmt.Errorf("%w: missing Body.stkCallback", ErrMalformedPayload)
	}
	rec := PushResultRecord{
		CorrelationID: cb.CheckoutRequestID.String(),
		RequestID:     cb.MerchantRequestID.String(),
		Description:   cb.ResultDesc.String(),
	}
	if rec.CorrelationID == "" {
		return PushResultRecord{}, fmt.Errorf("%w: missing CheckoutRequestID", ErrMalformedPayload)
	}
	if code := cb.ResultCode.String(); code != "" {
		n, err := strconv.Atoi(code)
		if err != nil {
			return PushResultRecord{}, fmt.Errorf("%w: ResultCode %q is not an integer", ErrMalformedPayload, code)
		}
		rec.ResultCode = &n
	}

	if cb.CallbackMetadata == nil {
		return rec, nil
	}
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case metaReceipt:
			if v := metadataText(item.Value); v != "" {
				rec.Receipt = &v
			}
		case metaPhone:
			rec.Phone = metadataText(item.Value)
		case metaAmount:
			amt, err := decimal.NewFromString(metadataText(item.Value))
			if err == nil && isWholeCents(amt) {
				amt = amt.Round(2)
				rec.Amount = &amt
			}
		case metaTransactionDate:
			if ts, ok := DecodeGatewayTime(metadataText(item.Value), time.Time{}); ok {
				utc := ts.UTC()
				rec.TransactionTime = &utc
			}
		}
	}
	return rec, nil
}

func metadataText(raw json.RawMessage) string {
	return strings.TrimSpace(scalarText(raw))
}

// isWholeCents reports whether d carries no precision beyond two decimal
// places ("10.500" passes, "10.005" does not).
func isWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// DecodeGatewayTime parses the first 14 characters of s as YYYYMMDDhhmmss in
// the gateway's UTC+3 clock. Shorter or unparsable input yields fallback and
// ok=false.
func DecodeGatewayTime(s string, fallback time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(gatewayTimeLayout) {
		return fallback, false
	}
	t, err := time.ParseInLocation(gatewayTimeLayout, s[:len(gatewayTimeLayout)], gatewayZone)
	if err != nil {
		return fallback, false
	}
	return t, true
}

// displayName joins first and last name and normalizes shouting or lower
// case input ("JOHN DOE" -> "John Doe").
func displayName(first, last string) string {
	name := strings.Join(strings.Fields(first+" "+last), " ")
	if name == "" {
		return ""
	}
	return nameCaser.String(name)
}
