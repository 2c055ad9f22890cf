package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stayhub/payment-service/internal/payment/domain"
	"github.com/stayhub/payment-service/pkg/signature"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const signatureHeader = "X-Gateway-Signature"

const maxBodyBytes = 1 << 20

type Applier interface {
	ApplyGatewayEvent(ctx context.Context, ev domain.GatewayEvent) error
}

type Deduper interface {
	EventKey(eventID string) string
	Seen(ctx context.Context, key string) (bool, error)
}

// Handler authenticates gateway callbacks and applies their outcome.
// Verification runs over the exact raw bytes of the request body; parsing
// happens only after the signature checks out.
type Handler struct {
	log      *slog.Logger
	codec    *signature.Codec
	payments Applier
	dedup    Deduper
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, codec *signature.Codec, payments Applier, dedup Deduper) *Handler {
	return &Handler{
		log:      log,
		codec:    codec,
		payments: payments,
		dedup:    dedup,
		tracer:   otel.Tracer("webhook-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/gateway", h.handleGatewayEvent)
	return r
}

func (h *Handler) handleGatewayEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GatewayWebhook")
	defer span.End()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Corpo inválido"})
		return
	}

	if !h.codec.Verify(r.Header.Get(signatureHeader), raw) {
		h.log.Warn("webhook signature rejected", "remote", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Assinatura inválida"})
		return
	}

	var ev domain.GatewayEvent
	if err := json.Unmarshal(raw, &ev); err != nil || ev.PaymentID == "" || ev.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Payload inválido"})
		return
	}

	if ev.EventID != "" && h.dedup != nil {
		seen, err := h.dedup.Seen(ctx, h.dedup.EventKey(ev.EventID))
		if err != nil {
			// Dedup is an optimization over idempotent transitions; a redis
			// outage must not block settlement.
			h.log.Error("webhook dedup check failed", "event_id", ev.EventID, "err", err)
		} else if seen {
			h.log.Info("replayed gateway event skipped", "event_id", ev.EventID, "payment_id", ev.PaymentID)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}

	if err := h.payments.ApplyGatewayEvent(ctx, ev); err != nil {
		h.log.Error("gateway event apply failed", "payment_id", ev.PaymentID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
