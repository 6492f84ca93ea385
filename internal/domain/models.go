// Package domain defines the persistence models for gateway payment events,
// push payment requests, and the sales they settle. These types are mapped
// with GORM and form the core data layer of the callback service.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PushStatus is the lifecycle state of an application-initiated push payment.
type PushStatus string

const (
	PushPending   PushStatus = "pending"
	PushCompleted PushStatus = "completed"
	PushCancelled PushStatus = "cancelled"
	PushFailed    PushStatus = "failed"
)

// Terminal reports whether no further transition is permitted from s.
func (s PushStatus) Terminal() bool {
	switch s {
	case PushCompleted, PushCancelled, PushFailed:
		return true
	}
	return false
}

// SaleStatus is the payment state of a sale as seen by the attendant UI.
type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleCompleted SaleStatus = "completed"
	SaleFailed    SaleStatus = "failed"
)

// SaleStatusFor maps a terminal push status onto the sale it settles.
// Cancelled payments fail the sale; a non-terminal status leaves it pending.
func SaleStatusFor(s PushStatus) SaleStatus {
	switch s {
	case PushCompleted:
		return SaleCompleted
	case PushCancelled, PushFailed:
		return SaleFailed
	default:
		return SalePending
	}
}

// UnsolicitedTransaction is one payment the gateway reported for the shared
// till without a prior request from this system (a "C2B" payment).
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Receipt: gateway-assigned receipt (TransID); unique, duplicates are
//     rejected by the database.
//   - Phone: payer MSISDN as delivered.
//   - Amount: paid amount, two fractional digits.
//   - TransactionTime: UTC instant decoded from the gateway's UTC+3 clock.
//   - AccountReference: free-text bill reference typed by the payer.
//   - CustomerName: payer display name.
//   - StationID: station inferred from AccountReference, when recognisable.
//   - IsLinked: set by the attendant UI once matched to a sale.
type UnsolicitedTransaction struct {
	ID               string          `json:"id"                gorm:"type:char(36);primaryKey"`
	Receipt          string          `json:"receipt"           gorm:"type:varchar(64);not null;uniqueIndex:ux_unsolicited_receipt"`
	Phone            string          `json:"phone"             gorm:"type:varchar(32)"`
	Amount           decimal.Decimal `json:"amount"            gorm:"type:decimal(12,2);not null"`
	TransactionTime  time.Time       `json:"transaction_time"  gorm:"not null;index"`
	AccountReference string          `json:"account_reference" gorm:"type:varchar(128)"`
	CustomerName     string          `json:"customer_name"     gorm:"type:varchar(255)"`
	StationID        *int            `json:"station_id,omitempty" gorm:"index"`
	IsLinked         bool            `json:"is_linked"         gorm:"not null;default:false"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TableName returns the database table name for UnsolicitedTransaction.
func (UnsolicitedTransaction) TableName() string { return "unsolicited_transactions" }

// PushTransaction tracks a push payment request created by the initiator
// before any callback arrives. Callbacks only ever move it out of pending.
type PushTransaction struct {
	ID                string          `json:"id"                 gorm:"type:char(36);primaryKey"`
	CorrelationID     string          `json:"correlation_id"     gorm:"type:varchar(100);not null;uniqueIndex:ux_push_correlation"`
	RequestID         string          `json:"request_id"         gorm:"type:varchar(100)"`
	SaleID            string          `json:"sale_id"            gorm:"type:varchar(64);index"`
	Phone             string          `json:"phone"              gorm:"type:varchar(32)"`
	Amount            decimal.Decimal `json:"amount"             gorm:"type:decimal(12,2);not null;default:0"`
	Status            PushStatus      `json:"status"             gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','completed','cancelled','failed')"`
	Receipt           *string         `json:"receipt,omitempty"  gorm:"type:varchar(64)"`
	ResultCode        *int            `json:"result_code,omitempty"`
	ResultDescription string          `json:"result_description" gorm:"type:text"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName returns the database table name for PushTransaction.
func (PushTransaction) TableName() string { return "push_transactions" }

// Sale is the commercial record a push payment settles.
type Sale struct {
	ID            string          `json:"id"             gorm:"type:varchar(64);primaryKey"`
	Amount        decimal.Decimal `json:"amount"         gorm:"type:decimal(12,2);not null"`
	PaymentStatus SaleStatus      `json:"payment_status" gorm:"type:varchar(16);not null;default:'pending';check:payment_status IN ('pending','completed','failed')"`
	Receipt       *string         `json:"receipt,omitempty" gorm:"type:varchar(64)"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Sale.
func (Sale) TableName() string { return "sales" }

// Callback receivers, as recorded in CallbackEvent.Receiver.
const (
	ReceiverUnsolicited = "unsolicited"
	ReceiverPushResult  = "push_result"
)

// CallbackEvent is an append-only audit entry for one gateway delivery,
// kept regardless of whether the delivery changed any state.
type CallbackEvent struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	Receiver    string    `json:"receiver"     gorm:"type:varchar(16);not null;index:idx_callback_key,priority:1"`
	ExternalKey string    `json:"external_key" gorm:"type:varchar(100);index:idx_callback_key,priority:2"`
	Outcome     string    `json:"outcome"      gorm:"type:varchar(32);not null"`
	Payload     string    `json:"payload"      gorm:"type:text"`
	Error       string    `json:"error,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"   gorm:"index"`
}

// TableName returns the database table name for CallbackEvent.
func (CallbackEvent) TableName() string { return "callback_events" }
