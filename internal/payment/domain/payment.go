package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the payment lifecycle state. Transitions are one-directional:
// Pending -> {Approved, Declined, Canceled}. Approved and Declined are
// terminal; Canceled is produced only by the reconciliation sweep.
type Status int

const (
	StatusPending  Status = 0
	StatusApproved Status = 1
	StatusDeclined Status = 2
	StatusCanceled Status = 3
)

// Label projects the internal status code to the stable external
// vocabulary. Unknown codes map to an explicit sentinel rather than failing.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "pendente"
	case StatusApproved:
		return "aprovado"
	case StatusDeclined:
		return "recusado"
	case StatusCanceled:
		return "cancelado"
	default:
		return "desconhecido"
	}
}

// Payment is a payment intent. Amount and ID are immutable after creation;
// the record is never deleted and serves as an audit trail.
type Payment struct {
	ID                string
	Amount            decimal.Decimal
	Status            Status
	UserID            string
	ReservationID     string
	MethodID          string
	AuthorizationCode *string
	ConfirmedAt       *time.Time
	QRCode            *string
	CopyPaste         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewPayment(id string, amount decimal.Decimal, userID, reservationID, methodID string) Payment {
	now := time.Now().UTC()
	return Payment{
		ID:            id,
		Amount:        amount,
		Status:        StatusPending,
		UserID:        userID,
		ReservationID: reservationID,
		MethodID:      methodID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

type MethodType int

const (
	MethodCard            MethodType = 1
	MethodInstantTransfer MethodType = 2
)

// Label is the human-readable method name exposed by the reference-data API.
func (t MethodType) Label() string {
	switch t {
	case MethodCard:
		return "Cartão de crédito"
	case MethodInstantTransfer:
		return "PIX"
	default:
		return "desconhecido"
	}
}

// Method is read-only reference data; only active methods are eligible for
// payment creation.
type Method struct {
	ID        string
	Type      MethodType
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
