package gateway

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stayhub/payment-service/pkg/signature"
)

type delivery struct {
	body []byte
	sig  string
}

func captureServer(t *testing.T) (*httptest.Server, chan delivery) {
	t.Helper()
	ch := make(chan delivery, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read callback body: %v", err)
		}
		ch <- delivery{body: body, sig: r.Header.Get(SignatureHeader)}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func testSimulator(t *testing.T, callbackURL string) (*Simulator, *signature.Codec) {
	t.Helper()
	codec := signature.New("test-secret")
	sim := NewSimulator(slog.New(slog.DiscardHandler), codec, Config{
		CallbackURL:   callbackURL,
		ChargeDelay:   10 * time.Millisecond,
		TransferDelay: 20 * time.Millisecond,
	})
	return sim, codec
}

func awaitDelivery(t *testing.T, ch chan delivery) delivery {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("callback never delivered")
		return delivery{}
	}
}

func decodeEvent(t *testing.T, d delivery, codec *signature.Codec) event {
	t.Helper()
	if !codec.Verify(d.sig, d.body) {
		t.Fatalf("callback signature does not verify: %q over %s", d.sig, d.body)
	}
	var ev event
	if err := json.Unmarshal(d.body, &ev); err != nil {
		t.Fatalf("callback payload: %v", err)
	}
	return ev
}

func TestChargeWithinLimitApproves(t *testing.T) {
	srv, ch := captureServer(t)
	sim, codec := testSimulator(t, srv.URL)

	sim.Charge(ChargeInput{PaymentID: "p1", Amount: decimal.NewFromInt(500), CardToken: "tok_1234567"})

	ev := decodeEvent(t, awaitDelivery(t, ch), codec)
	if ev.Status != "approved" {
		t.Fatalf("outcome = %q, want approved", ev.Status)
	}
	if ev.PaymentID != "p1" {
		t.Fatalf("payment id = %q", ev.PaymentID)
	}
	if !strings.HasPrefix(ev.AuthorizationCode, "AUTH-") || len(ev.AuthorizationCode) != len("AUTH-")+8 {
		t.Fatalf("authorization code = %q", ev.AuthorizationCode)
	}
	if ev.EventID == "" {
		t.Fatal("event carries no nonce")
	}
}

func TestChargeAboveLimitUsesTokenParity(t *testing.T) {
	srv, ch := captureServer(t)
	sim, codec := testSimulator(t, srv.URL)

	// odd token length -> declined
	sim.Charge(ChargeInput{PaymentID: "p-odd", Amount: decimal.NewFromInt(5000), CardToken: "tok_1234567"})
	if ev := decodeEvent(t, awaitDelivery(t, ch), codec); ev.Status != "declined" {
		t.Fatalf("odd token: outcome = %q, want declined", ev.Status)
	}

	// even token length -> approved
	sim.Charge(ChargeInput{PaymentID: "p-even", Amount: decimal.NewFromInt(5000), CardToken: "tok_12345678"})
	if ev := decodeEvent(t, awaitDelivery(t, ch), codec); ev.Status != "approved" {
		t.Fatalf("even token: outcome = %q, want approved", ev.Status)
	}
}

func TestChargeEventsCarryDistinctNonces(t *testing.T) {
	srv, ch := captureServer(t)
	sim, codec := testSimulator(t, srv.URL)

	sim.Charge(ChargeInput{PaymentID: "p1", Amount: decimal.NewFromInt(10), CardToken: "tok_12"})
	sim.Charge(ChargeInput{PaymentID: "p1", Amount: decimal.NewFromInt(10), CardToken: "tok_12"})

	a := decodeEvent(t, awaitDelivery(t, ch), codec)
	b := decodeEvent(t, awaitDelivery(t, ch), codec)
	if a.EventID == b.EventID {
		t.Fatalf("two events share nonce %q", a.EventID)
	}
}

func TestTransferReturnsDisplayPayload(t *testing.T) {
	srv, ch := captureServer(t)
	sim, codec := testSimulator(t, srv.URL)

	out := sim.Transfer(TransferInput{PaymentID: "11112222-3333-4444-5555-666677778888", Amount: decimal.NewFromInt(250)})

	if out.TxID != "TX-11112222" {
		t.Fatalf("txid = %q", out.TxID)
	}
	if out.QRCode != "QRDATA:11112222-3333-4444-5555-666677778888:250" {
		t.Fatalf("qr code = %q", out.QRCode)
	}
	decoded, err := base64.StdEncoding.DecodeString(out.CopyPaste)
	if err != nil {
		t.Fatalf("copy-paste code is not base64: %v", err)
	}
	if string(decoded) != "11112222-3333-4444-5555-666677778888|250" {
		t.Fatalf("copy-paste decodes to %q", decoded)
	}

	// the deferred confirmation is always approved
	ev := decodeEvent(t, awaitDelivery(t, ch), codec)
	if ev.Status != "approved" {
		t.Fatalf("transfer confirmation outcome = %q", ev.Status)
	}
	if !strings.HasPrefix(ev.AuthorizationCode, "PIX-") {
		t.Fatalf("authorization code = %q", ev.AuthorizationCode)
	}
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	// nothing listens on the callback address; the simulator must not panic
	sim, _ := testSimulator(t, "http://127.0.0.1:1")
	sim.Charge(ChargeInput{PaymentID: "p1", Amount: decimal.NewFromInt(10), CardToken: "tok_12"})
	time.Sleep(50 * time.Millisecond)
}
