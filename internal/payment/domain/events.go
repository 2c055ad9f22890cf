package domain

// Gateway outcome values carried by webhook events.
const (
	OutcomeApproved = "approved"
	OutcomeDeclined = "declined"
)

// GatewayEvent is the transient settlement outcome delivered by the gateway
// callback. EventID is a per-event nonce used for replay detection; events
// without one are still accepted.
type GatewayEvent struct {
	EventID           string `json:"eventId,omitempty"`
	PaymentID         string `json:"idPagamento"`
	Status            string `json:"status"`
	AuthorizationCode string `json:"authorizationCode,omitempty"`
}

// PaymentApproved is published on the settlement event stream when a payment
// reaches the approved terminal state.
type PaymentApproved struct {
	PaymentID         string `json:"idPagamento"`
	ReservationID     string `json:"idReserva"`
	AuthorizationCode string `json:"codigoAutorizacao"`
}

// PaymentDeclined is published when a payment is declined by the gateway.
type PaymentDeclined struct {
	PaymentID     string `json:"idPagamento"`
	ReservationID string `json:"idReserva"`
}
