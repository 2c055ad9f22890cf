package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stayhub/payment-service/internal/payment/domain"
)

// PaymentUpdate is a sparse update: only non-nil fields are written.
// Amount and id are not updatable by construction.
type PaymentUpdate struct {
	Status            *domain.Status
	AuthorizationCode *string
	ConfirmedAt       *time.Time
	QRCode            *string
	CopyPaste         *string
}

type PaymentRepository interface {
	Create(ctx context.Context, p domain.Payment) error
	// UpdateFields applies a sparse update and returns rows affected;
	// an unknown id is a zero-row no-op, not an error.
	UpdateFields(ctx context.Context, id string, update PaymentUpdate) (int64, error)
	FindByID(ctx context.Context, id string) (domain.Payment, error)
	FindAll(ctx context.Context) ([]domain.Payment, error)
	// SettleWithOutbox applies the update and records the settlement event
	// in the outbox within one transaction.
	SettleWithOutbox(ctx context.Context, id string, update PaymentUpdate, eventType string, payload []byte, headers map[string]string, traceparent string) (int64, error)
	// CancelStalePending atomically cancels payments still PENDING after
	// olderThan and returns their ids. The status guard is part of the
	// update so a concurrent settlement cannot be overwritten.
	CancelStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]string, error)
}

type MethodRepository interface {
	FindByID(ctx context.Context, id string) (domain.Method, error)
	FindByType(ctx context.Context, t domain.MethodType) (domain.Method, error)
	FindAllActive(ctx context.Context) ([]domain.Method, error)
}

type ChargeRequest struct {
	PaymentID string
	Amount    decimal.Decimal
	CardToken string
}

type TransferRequest struct {
	PaymentID string
	Amount    decimal.Decimal
}

type TransferData struct {
	TxID      string
	QRCode    string
	CopyPaste string
}

// GatewayClient is the outbound contract to the acquiring gateway. Charge is
// fire-and-forget: the outcome arrives later through the webhook receiver.
type GatewayClient interface {
	Charge(ctx context.Context, req ChargeRequest) error
	Transfer(ctx context.Context, req TransferRequest) (TransferData, error)
}
