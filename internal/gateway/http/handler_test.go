package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stayhub/payment-service/internal/gateway"
	"github.com/stayhub/payment-service/pkg/signature"
)

func newTestHandler() *Handler {
	log := slog.New(slog.DiscardHandler)
	sim := gateway.NewSimulator(log, signature.New("test-secret"), gateway.Config{
		// callbacks go nowhere in these tests
		CallbackURL:   "http://127.0.0.1:1",
		ChargeDelay:   time.Minute,
		TransferDelay: time.Minute,
	})
	return NewHandler(log, sim)
}

func post(t *testing.T, h *Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	return w
}

func TestChargeValidation(t *testing.T) {
	h := newTestHandler()

	cases := []string{
		`{}`,
		`{"idPagamento":"p1","amount":100}`,
		`{"idPagamento":"p1","cardToken":"tok_12"}`,
		`{"amount":100,"cardToken":"tok_12"}`,
		`{"idPagamento":"p1","amount":0,"cardToken":"tok_12"}`,
		`bad json`,
	}
	for _, body := range cases {
		if w := post(t, h, "/charge", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, w.Code)
		}
	}

	if w := post(t, h, "/charge", `{"idPagamento":"p1","amount":100,"cardToken":"tok_12"}`); w.Code != http.StatusOK {
		t.Fatalf("valid charge: status = %d, want 200", w.Code)
	}
}

func TestPixReturnsDisplayData(t *testing.T) {
	h := newTestHandler()

	w := post(t, h, "/pix", `{"idPagamento":"11112222-3333-4444-5555-666677778888","amount":250}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			TxID      string `json:"txid"`
			QRCode    string `json:"qrCode"`
			CopyPaste string `json:"copiaCola"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Data.TxID != "TX-11112222" || resp.Data.QRCode == "" || resp.Data.CopyPaste == "" {
		t.Fatalf("resp = %+v", resp)
	}

	if w := post(t, h, "/pix", `{"amount":250}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing id: status = %d, want 400", w.Code)
	}
}
