package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stayhub/payment-service/internal/payment/domain"
	"github.com/stayhub/payment-service/pkg/cardtoken"
	"github.com/stayhub/payment-service/pkg/tracing"
)

type CardDetails struct {
	Number   string `json:"number"`
	Holder   string `json:"holder"`
	ExpMonth int    `json:"expMonth"`
	ExpYear  int    `json:"expYear"`
	CVV      string `json:"cvv"`
}

type CreatePaymentInput struct {
	Amount        decimal.Decimal
	UserID        string
	ReservationID string
	MethodID      string
	Card          *CardDetails
}

type CardSummary struct {
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

type CreatePaymentResult struct {
	PaymentID string       `json:"idPagamento"`
	Status    string       `json:"status"`
	Method    string       `json:"metodo"`
	Amount    float64      `json:"valorTotal"`
	Card      *CardSummary `json:"card,omitempty"`
	QRCode    string       `json:"qrCode,omitempty"`
	CopyPaste string       `json:"copiaCola,omitempty"`
}

// PaymentView is the normalized read projection of a payment intent.
type PaymentView struct {
	ID                string     `json:"idPagamento"`
	Status            string     `json:"status"`
	Amount            float64    `json:"valorTotal"`
	ConfirmedAt       *time.Time `json:"dataHoraConfirmacao"`
	AuthorizationCode *string    `json:"codigoAutorizacao"`
	QRCode            *string    `json:"qrCode"`
	CopyPaste         *string    `json:"copiaCola"`
	UserID            string     `json:"idUsuario"`
	ReservationID     string     `json:"idReserva"`
	MethodID          string     `json:"idMetodoPagamento"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Service orchestrates payment creation and settlement. The PENDING record
// is persisted before any gateway contact, so a callback can never reference
// a payment that does not exist yet.
type Service struct {
	log        *slog.Logger
	payments   PaymentRepository
	methods    MethodRepository
	gateway    GatewayClient
	tokenizer  *cardtoken.Tokenizer
	dispatcher *ChargeDispatcher
}

func NewService(log *slog.Logger, payments PaymentRepository, methods MethodRepository, gateway GatewayClient, tokenizer *cardtoken.Tokenizer, dispatcher *ChargeDispatcher) *Service {
	return &Service{
		log:        log,
		payments:   payments,
		methods:    methods,
		gateway:    gateway,
		tokenizer:  tokenizer,
		dispatcher: dispatcher,
	}
}

func (s *Service) CreatePayment(ctx context.Context, in CreatePaymentInput) (CreatePaymentResult, error) {
	if !in.Amount.IsPositive() {
		return CreatePaymentResult{}, ErrInvalidAmount
	}

	method, err := s.methods.FindByID(ctx, in.MethodID)
	if err != nil {
		if errors.Is(err, ErrMethodNotFound) {
			return CreatePaymentResult{}, ErrInvalidMethod
		}
		return CreatePaymentResult{}, err
	}

	id := uuid.NewString()
	if err := s.payments.Create(ctx, domain.NewPayment(id, in.Amount, in.UserID, in.ReservationID, in.MethodID)); err != nil {
		return CreatePaymentResult{}, err
	}

	switch method.Type {
	case domain.MethodCard:
		return s.createCardPayment(ctx, id, in)
	case domain.MethodInstantTransfer:
		return s.createTransferPayment(ctx, id, in)
	default:
		return CreatePaymentResult{}, ErrUnsupportedMethod
	}
}

func (s *Service) createCardPayment(ctx context.Context, id string, in CreatePaymentInput) (CreatePaymentResult, error) {
	var number string
	if in.Card != nil {
		number = in.Card.Number
	}
	tok, err := s.tokenizer.Tokenize(number, id)
	if err != nil {
		return CreatePaymentResult{}, err
	}

	// Fire-and-forget: the charge job is queued for the background worker;
	// a full queue leaves the payment PENDING for the reconciler.
	if !s.dispatcher.Enqueue(ChargeRequest{PaymentID: id, Amount: in.Amount, CardToken: tok.Value}) {
		s.log.Warn("charge queue full, dispatch dropped", "payment_id", id)
	}

	return CreatePaymentResult{
		PaymentID: id,
		Status:    domain.StatusPending.Label(),
		Method:    "cartao",
		Amount:    in.Amount.InexactFloat64(),
		Card:      &CardSummary{Brand: tok.Brand, Last4: tok.Last4},
	}, nil
}

func (s *Service) createTransferPayment(ctx context.Context, id string, in CreatePaymentInput) (CreatePaymentResult, error) {
	res := CreatePaymentResult{
		PaymentID: id,
		Status:    domain.StatusPending.Label(),
		Method:    "pix",
		Amount:    in.Amount.InexactFloat64(),
	}

	data, err := s.gateway.Transfer(ctx, TransferRequest{PaymentID: id, Amount: in.Amount})
	if err != nil {
		// The payment stays PENDING; the display payload is simply absent.
		s.log.Warn("transfer dispatch failed", "payment_id", id, "err", err)
		return res, nil
	}

	if data.QRCode != "" || data.CopyPaste != "" {
		update := PaymentUpdate{QRCode: &data.QRCode, CopyPaste: &data.CopyPaste}
		if _, err := s.payments.UpdateFields(ctx, id, update); err != nil {
			s.log.Error("persisting transfer display data failed", "payment_id", id, "err", err)
		}
	}

	res.QRCode = data.QRCode
	res.CopyPaste = data.CopyPaste
	return res, nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (PaymentView, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return PaymentView{}, err
	}
	return toView(p), nil
}

func (s *Service) ListPayments(ctx context.Context) ([]PaymentView, error) {
	payments, err := s.payments.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, toView(p))
	}
	return views, nil
}

// ApplyGatewayEvent transitions a payment according to a verified gateway
// outcome. Unknown outcomes and unknown payment ids are accepted no-ops.
func (s *Service) ApplyGatewayEvent(ctx context.Context, ev domain.GatewayEvent) error {
	p, err := s.payments.FindByID(ctx, ev.PaymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			s.log.Warn("gateway event for unknown payment", "payment_id", ev.PaymentID)
			return nil
		}
		return err
	}

	var (
		update    PaymentUpdate
		eventType string
		payload   []byte
	)

	switch ev.Status {
	case domain.OutcomeApproved:
		status := domain.StatusApproved
		now := time.Now().UTC()
		code := ev.AuthorizationCode
		update = PaymentUpdate{Status: &status, ConfirmedAt: &now, AuthorizationCode: &code}
		eventType = "PaymentApproved"
		payload, _ = json.Marshal(domain.PaymentApproved{
			PaymentID:         p.ID,
			ReservationID:     p.ReservationID,
			AuthorizationCode: code,
		})
	case domain.OutcomeDeclined:
		status := domain.StatusDeclined
		update = PaymentUpdate{Status: &status}
		if ev.AuthorizationCode != "" {
			code := ev.AuthorizationCode
			update.AuthorizationCode = &code
		}
		eventType = "PaymentDeclined"
		payload, _ = json.Marshal(domain.PaymentDeclined{
			PaymentID:     p.ID,
			ReservationID: p.ReservationID,
		})
	default:
		s.log.Info("gateway event with unhandled outcome ignored", "payment_id", ev.PaymentID, "outcome", ev.Status)
		return nil
	}

	headers := map[string]string{"source": "payment-service"}
	rows, err := s.payments.SettleWithOutbox(ctx, p.ID, update, eventType, payload, headers, tracing.Traceparent(ctx))
	if err != nil {
		return err
	}
	if rows == 0 {
		s.log.Warn("gateway event matched no rows", "payment_id", p.ID)
		return nil
	}
	s.log.Info("payment settled", "payment_id", p.ID, "outcome", ev.Status)
	return nil
}

func toView(p domain.Payment) PaymentView {
	return PaymentView{
		ID:                p.ID,
		Status:            p.Status.Label(),
		Amount:            p.Amount.InexactFloat64(),
		ConfirmedAt:       p.ConfirmedAt,
		AuthorizationCode: p.AuthorizationCode,
		QRCode:            p.QRCode,
		CopyPaste:         p.CopyPaste,
		UserID:            p.UserID,
		ReservationID:     p.ReservationID,
		MethodID:          p.MethodID,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
