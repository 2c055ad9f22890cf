package webhook

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stayhub/payment-service/internal/payment/domain"
	"github.com/stayhub/payment-service/pkg/signature"
)

type fakeApplier struct {
	events []domain.GatewayEvent
	err    error
}

func (a *fakeApplier) ApplyGatewayEvent(_ context.Context, ev domain.GatewayEvent) error {
	a.events = append(a.events, ev)
	return a.err
}

type fakeDeduper struct {
	seen map[string]bool
	err  error
}

func (d *fakeDeduper) EventKey(eventID string) string { return "gwevent:" + eventID }

func (d *fakeDeduper) Seen(_ context.Context, key string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	was := d.seen[key]
	d.seen[key] = true
	return was, nil
}

func newTestHandler(applier *fakeApplier, dedup Deduper) (*Handler, *signature.Codec) {
	codec := signature.New("test-secret")
	return NewHandler(slog.New(slog.DiscardHandler), codec, applier, dedup), codec
}

func post(t *testing.T, h *Handler, body []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/gateway", bytes.NewReader(body))
	if sig != "" {
		req.Header.Set("X-Gateway-Signature", sig)
	}
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	return w
}

func TestAppliesApprovedEvent(t *testing.T) {
	applier := &fakeApplier{}
	h, codec := newTestHandler(applier, nil)

	body := []byte(`{"idPagamento":"p1","status":"approved","authorizationCode":"AUTH-AB12CD34"}`)
	w := post(t, h, body, codec.Sign(body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(applier.events) != 1 {
		t.Fatalf("applied %d events, want 1", len(applier.events))
	}
	ev := applier.events[0]
	if ev.PaymentID != "p1" || ev.Status != "approved" || ev.AuthorizationCode != "AUTH-AB12CD34" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestRejectsTamperedSignature(t *testing.T) {
	applier := &fakeApplier{}
	h, codec := newTestHandler(applier, nil)

	body := []byte(`{"idPagamento":"p1","status":"approved"}`)
	sig := []byte(codec.Sign(body))
	if sig[0] == '0' {
		sig[0] = '1'
	} else {
		sig[0] = '0'
	}
	w := post(t, h, body, string(sig))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if len(applier.events) != 0 {
		t.Fatal("tampered event reached the store")
	}
}

func TestRejectsMissingSignature(t *testing.T) {
	applier := &fakeApplier{}
	h, _ := newTestHandler(applier, nil)

	w := post(t, h, []byte(`{"idPagamento":"p1","status":"approved"}`), "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if len(applier.events) != 0 {
		t.Fatal("unsigned event reached the store")
	}
}

func TestVerifiesExactRawBytes(t *testing.T) {
	applier := &fakeApplier{}
	h, codec := newTestHandler(applier, nil)

	// Signature over a semantically equal but byte-different body must fail.
	signed := []byte(`{"idPagamento":"p1","status":"approved"}`)
	delivered := []byte(`{"status":"approved","idPagamento":"p1"}`)
	w := post(t, h, delivered, codec.Sign(signed))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRejectsMalformedPayload(t *testing.T) {
	applier := &fakeApplier{}
	h, codec := newTestHandler(applier, nil)

	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{"status":"approved"}`),
		[]byte(`{"idPagamento":"p1"}`),
	}
	for _, body := range cases {
		w := post(t, h, body, codec.Sign(body))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, w.Code)
		}
	}
	if len(applier.events) != 0 {
		t.Fatal("malformed event reached the store")
	}
}

func TestUnknownOutcomeStillAccepted(t *testing.T) {
	applier := &fakeApplier{}
	h, codec := newTestHandler(applier, nil)

	body := []byte(`{"idPagamento":"p1","status":"under_review"}`)
	w := post(t, h, body, codec.Sign(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	// the outcome decision belongs to the orchestrator, not the receiver
	if len(applier.events) != 1 {
		t.Fatalf("applied %d events, want 1", len(applier.events))
	}
}

func TestReplayedEventIsSkipped(t *testing.T) {
	applier := &fakeApplier{}
	h, codec := newTestHandler(applier, &fakeDeduper{seen: map[string]bool{}})

	body := []byte(`{"eventId":"ev-1","idPagamento":"p1","status":"approved"}`)
	sig := codec.Sign(body)

	if w := post(t, h, body, sig); w.Code != http.StatusOK {
		t.Fatalf("first delivery: status = %d", w.Code)
	}
	if w := post(t, h, body, sig); w.Code != http.StatusOK {
		t.Fatalf("replay: status = %d", w.Code)
	}
	if len(applier.events) != 1 {
		t.Fatalf("applied %d events, want 1 (replay must be a no-op)", len(applier.events))
	}
}

func TestDedupFailureDoesNotBlockSettlement(t *testing.T) {
	applier := &fakeApplier{}
	h, codec := newTestHandler(applier, &fakeDeduper{err: errors.New("redis down")})

	body := []byte(`{"eventId":"ev-1","idPagamento":"p1","status":"approved"}`)
	w := post(t, h, body, codec.Sign(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(applier.events) != 1 {
		t.Fatal("event dropped when dedup store was unavailable")
	}
}

func TestApplierErrorYields500(t *testing.T) {
	applier := &fakeApplier{err: errors.New("db down")}
	h, codec := newTestHandler(applier, nil)

	body := []byte(`{"idPagamento":"p1","status":"approved"}`)
	w := post(t, h, body, codec.Sign(body))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}
