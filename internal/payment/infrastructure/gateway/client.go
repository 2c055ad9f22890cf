package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stayhub/payment-service/internal/payment/application"
	"github.com/stayhub/payment-service/pkg/tracing"
)

// Client talks to the mock gateway over HTTP. Swapping the simulator for a
// real acquirer only replaces the base URL and credentials; the callback
// contract stays the same.
type Client struct {
	log  *slog.Logger
	base string
	http *http.Client
}

func NewClient(log *slog.Logger, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{log: log, base: baseURL, http: httpClient}
}

type chargeBody struct {
	PaymentID string          `json:"idPagamento"`
	Amount    decimal.Decimal `json:"amount"`
	CardToken string          `json:"cardToken"`
}

type transferBody struct {
	PaymentID string          `json:"idPagamento"`
	Amount    decimal.Decimal `json:"amount"`
}

type transferResp struct {
	Success bool `json:"success"`
	Data    struct {
		TxID      string `json:"txid"`
		QRCode    string `json:"qrCode"`
		CopyPaste string `json:"copiaCola"`
	} `json:"data"`
}

func (c *Client) Charge(ctx context.Context, req application.ChargeRequest) error {
	body := chargeBody{PaymentID: req.PaymentID, Amount: req.Amount, CardToken: req.CardToken}
	resp, err := c.post(ctx, "/mock-gateway/charge", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway charge: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) Transfer(ctx context.Context, req application.TransferRequest) (application.TransferData, error) {
	body := transferBody{PaymentID: req.PaymentID, Amount: req.Amount}
	resp, err := c.post(ctx, "/mock-gateway/pix", body)
	if err != nil {
		return application.TransferData{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return application.TransferData{}, fmt.Errorf("gateway transfer: unexpected status %d", resp.StatusCode)
	}

	var out transferResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return application.TransferData{}, fmt.Errorf("gateway transfer: decode: %w", err)
	}
	return application.TransferData{
		TxID:      out.Data.TxID,
		QRCode:    out.Data.QRCode,
		CopyPaste: out.Data.CopyPaste,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectHTTPHeaders(ctx, req)
	return c.http.Do(req)
}
