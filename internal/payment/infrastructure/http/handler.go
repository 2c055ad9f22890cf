package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stayhub/payment-service/internal/payment/application"
	"github.com/stayhub/payment-service/internal/payment/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	methods application.MethodRepository
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, methods application.MethodRepository) *Handler {
	return &Handler{
		log:     log,
		service: service,
		methods: methods,
		tracer:  otel.Tracer("payment-http"),
	}
}

func (h *Handler) PaymentRoutes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.createPayment)
	r.Get("/", h.listPayments)
	r.Get("/{id}", h.getPayment)
	return r
}

func (h *Handler) MethodRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listMethods)
	r.Get("/type/{type}", h.getMethodByType)
	r.Get("/{id}", h.getMethodByID)
	return r
}

type createPaymentReq struct {
	Amount        decimal.Decimal          `json:"valorTotal"`
	UserID        string                   `json:"idUsuario"`
	ReservationID string                   `json:"idReserva"`
	MethodID      string                   `json:"idMetodoPagamento"`
	Card          *application.CardDetails `json:"cartao"`
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type methodView struct {
	ID        string    `json:"idMetodoPagamento"`
	Type      int       `json:"tipo"`
	Name      string    `json:"nome"`
	Active    bool      `json:"ativo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePayment")
	defer span.End()

	var req createPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Dados inválidos"})
		return
	}
	if req.UserID == "" || req.ReservationID == "" || req.MethodID == "" {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Dados inválidos"})
		return
	}

	result, err := h.service.CreatePayment(ctx, application.CreatePaymentInput{
		Amount:        req.Amount,
		UserID:        req.UserID,
		ReservationID: req.ReservationID,
		MethodID:      req.MethodID,
		Card:          req.Card,
	})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrInvalidAmount):
			writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "valorTotal deve ser maior que 0"})
		case errors.Is(err, application.ErrInvalidMethod):
			writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Método de pagamento inválido ou inativo"})
		case errors.Is(err, application.ErrUnsupportedMethod):
			writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Tipo de método não suportado"})
		default:
			h.log.Error("create payment failed", "err", err)
			writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Erro interno ao criar pagamento"})
		}
		return
	}

	msg := "Pagamento criado e em processamento"
	if result.Method == "pix" {
		msg = "Pagamento PIX criado. Aguarde confirmação."
	}
	writeJSON(w, http.StatusCreated, response{Success: true, Message: msg, Data: result})
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetPayment")
	defer span.End()

	view, err := h.service.GetPayment(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, application.ErrPaymentNotFound) {
			writeJSON(w, http.StatusNotFound, response{Success: false, Message: "Pagamento não encontrado"})
			return
		}
		h.log.Error("get payment failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Erro interno ao buscar pagamento"})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: view})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListPayments")
	defer span.End()

	views, err := h.service.ListPayments(ctx)
	if err != nil {
		h.log.Error("list payments failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Erro interno ao listar pagamentos"})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: views})
}

func (h *Handler) listMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.methods.FindAllActive(r.Context())
	if err != nil {
		h.log.Error("list methods failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Erro interno"})
		return
	}
	views := make([]methodView, 0, len(methods))
	for _, m := range methods {
		views = append(views, toMethodView(m))
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: views})
}

func (h *Handler) getMethodByID(w http.ResponseWriter, r *http.Request) {
	m, err := h.methods.FindByID(r.Context(), chi.URLParam(r, "id"))
	h.respondMethod(w, m, err)
}

func (h *Handler) getMethodByType(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.Atoi(chi.URLParam(r, "type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Tipo inválido"})
		return
	}
	m, err := h.methods.FindByType(r.Context(), domain.MethodType(t))
	h.respondMethod(w, m, err)
}

func (h *Handler) respondMethod(w http.ResponseWriter, m domain.Method, err error) {
	if err != nil {
		if errors.Is(err, application.ErrMethodNotFound) {
			writeJSON(w, http.StatusNotFound, response{Success: false, Message: "Método de pagamento não encontrado"})
			return
		}
		h.log.Error("method lookup failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "Erro interno"})
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: toMethodView(m)})
}

func toMethodView(m domain.Method) methodView {
	return methodView{
		ID:        m.ID,
		Type:      int(m.Type),
		Name:      m.Type.Label(),
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
