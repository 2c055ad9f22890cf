package testutil

import (
	"context"
	"sync"

	"github.com/stayhub/payment-service/internal/payment/application"
)

// StubGateway records calls and returns canned transfer data.
type StubGateway struct {
	mu           sync.Mutex
	Charges      []application.ChargeRequest
	Transfers    []application.TransferRequest
	TransferData application.TransferData
	TransferErr  error
}

func (g *StubGateway) Charge(_ context.Context, req application.ChargeRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Charges = append(g.Charges, req)
	return nil
}

func (g *StubGateway) Transfer(_ context.Context, req application.TransferRequest) (application.TransferData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Transfers = append(g.Transfers, req)
	return g.TransferData, g.TransferErr
}
