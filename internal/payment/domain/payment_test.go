package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStatusLabel(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pendente"},
		{StatusApproved, "aprovado"},
		{StatusDeclined, "recusado"},
		{StatusCanceled, "cancelado"},
		{Status(42), "desconhecido"},
	}
	for _, tc := range cases {
		if got := tc.status.Label(); got != tc.want {
			t.Errorf("Status(%d).Label() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestMethodTypeLabel(t *testing.T) {
	if got := MethodCard.Label(); got != "Cartão de crédito" {
		t.Errorf("card label = %q", got)
	}
	if got := MethodInstantTransfer.Label(); got != "PIX" {
		t.Errorf("transfer label = %q", got)
	}
	if got := MethodType(9).Label(); got != "desconhecido" {
		t.Errorf("unknown label = %q", got)
	}
}

func TestNewPaymentStartsPending(t *testing.T) {
	p := NewPayment("p1", decimal.NewFromInt(150), "u1", "r1", "m-card")
	if p.Status != StatusPending {
		t.Fatalf("status = %v, want pending", p.Status)
	}
	if !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Fatalf("created %v != updated %v", p.CreatedAt, p.UpdatedAt)
	}
	if p.AuthorizationCode != nil || p.ConfirmedAt != nil || p.QRCode != nil || p.CopyPaste != nil {
		t.Fatal("new payment must have no settlement fields")
	}
}
