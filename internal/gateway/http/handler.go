package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stayhub/payment-service/internal/gateway"
)

// Handler exposes the simulator as HTTP test doubles. These routes exist to
// exercise the settlement flow; they are not part of the public contract.
type Handler struct {
	log *slog.Logger
	sim *gateway.Simulator
}

func NewHandler(log *slog.Logger, sim *gateway.Simulator) *Handler {
	return &Handler{log: log, sim: sim}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/charge", h.charge)
	r.Post("/pix", h.pix)
	return r
}

type chargeReq struct {
	PaymentID string          `json:"idPagamento"`
	Amount    decimal.Decimal `json:"amount"`
	CardToken string          `json:"cardToken"`
}

type transferReq struct {
	PaymentID string          `json:"idPagamento"`
	Amount    decimal.Decimal `json:"amount"`
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) charge(w http.ResponseWriter, r *http.Request) {
	var req chargeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentID == "" || req.CardToken == "" || !req.Amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Parâmetros obrigatórios ausentes"})
		return
	}

	h.sim.Charge(gateway.ChargeInput{PaymentID: req.PaymentID, Amount: req.Amount, CardToken: req.CardToken})
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Cobrança em processamento"})
}

func (h *Handler) pix(w http.ResponseWriter, r *http.Request) {
	var req transferReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentID == "" || !req.Amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Parâmetros obrigatórios ausentes"})
		return
	}

	out := h.sim.Transfer(gateway.TransferInput{PaymentID: req.PaymentID, Amount: req.Amount})
	writeJSON(w, http.StatusOK, response{Success: true, Data: out})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
