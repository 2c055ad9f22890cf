package gateway

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stayhub/payment-service/pkg/signature"
)

// SignatureHeader carries the hex MAC on every callback delivery.
const SignatureHeader = "X-Gateway-Signature"

// event is the callback wire shape. A production gateway must preserve it
// (and the signed-payload contract) for the webhook receiver to stay unchanged.
type event struct {
	EventID           string `json:"eventId"`
	PaymentID         string `json:"idPagamento"`
	Status            string `json:"status"`
	AuthorizationCode string `json:"authorizationCode"`
}

type ChargeInput struct {
	PaymentID string
	Amount    decimal.Decimal
	CardToken string
}

type TransferInput struct {
	PaymentID string
	Amount    decimal.Decimal
}

type TransferOutput struct {
	TxID      string `json:"txid"`
	QRCode    string `json:"qrCode"`
	CopyPaste string `json:"copiaCola"`
}

type Config struct {
	CallbackURL   string
	ApprovalLimit decimal.Decimal
	ChargeDelay   time.Duration
	TransferDelay time.Duration
}

// Simulator stands in for an acquiring bank: it acks authorization requests
// synchronously and reports the outcome later through a signed HTTP callback,
// detached from the request that triggered it.
type Simulator struct {
	log    *slog.Logger
	codec  *signature.Codec
	client *http.Client
	cfg    Config
}

func NewSimulator(log *slog.Logger, codec *signature.Codec, cfg Config) *Simulator {
	if cfg.ApprovalLimit.IsZero() {
		cfg.ApprovalLimit = decimal.NewFromInt(1000)
	}
	if cfg.ChargeDelay == 0 {
		cfg.ChargeDelay = 800 * time.Millisecond
	}
	if cfg.TransferDelay == 0 {
		cfg.TransferDelay = 5 * time.Second
	}
	return &Simulator{
		log:    log,
		codec:  codec,
		client: &http.Client{Timeout: 5 * time.Second},
		cfg:    cfg,
	}
}

// Charge acks immediately and schedules the outcome callback. Approval is
// deterministic: amount within the limit, or an even-length token.
func (s *Simulator) Charge(in ChargeInput) {
	status := "declined"
	if in.Amount.Cmp(s.cfg.ApprovalLimit) <= 0 || len(in.CardToken)%2 == 0 {
		status = "approved"
	}
	s.schedule(event{
		EventID:           uuid.NewString(),
		PaymentID:         in.PaymentID,
		Status:            status,
		AuthorizationCode: authCode("AUTH"),
	}, s.cfg.ChargeDelay)
}

// Transfer returns the instant-transfer display payload synchronously and
// schedules an always-approved confirmation, modeling the transfer network's
// out-of-band settlement.
func (s *Simulator) Transfer(in TransferInput) TransferOutput {
	short := in.PaymentID
	if len(short) > 8 {
		short = short[:8]
	}
	out := TransferOutput{
		TxID:      "TX-" + short,
		QRCode:    fmt.Sprintf("QRDATA:%s:%s", in.PaymentID, in.Amount),
		CopyPaste: base64.StdEncoding.EncodeToString(fmt.Appendf(nil, "%s|%s", in.PaymentID, in.Amount)),
	}
	s.schedule(event{
		EventID:           uuid.NewString(),
		PaymentID:         in.PaymentID,
		Status:            "approved",
		AuthorizationCode: authCode("PIX"),
	}, s.cfg.TransferDelay)
	return out
}

// schedule arms the delayed delivery. The timer outlives the originating
// request; cancellation of that request does not cancel the callback.
func (s *Simulator) schedule(ev event, delay time.Duration) {
	time.AfterFunc(delay, func() { s.deliver(ev) })
}

func (s *Simulator) deliver(ev event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("gateway event marshal failed", "payment_id", ev.PaymentID, "err", err)
		return
	}
	sig := s.codec.Sign(raw)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.CallbackURL, bytes.NewReader(raw))
	if err != nil {
		s.log.Error("gateway callback request failed", "payment_id", ev.PaymentID, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, sig)

	resp, err := s.client.Do(req)
	if err != nil {
		// Delivery is fire-and-forget: log and move on, never retry.
		s.log.Warn("gateway callback delivery failed", "payment_id", ev.PaymentID, "err", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.log.Warn("gateway callback rejected", "payment_id", ev.PaymentID, "status", resp.StatusCode)
		return
	}
	s.log.Info("gateway callback delivered", "payment_id", ev.PaymentID, "outcome", ev.Status)
}

func authCode(prefix string) string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(b))
}
