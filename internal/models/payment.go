package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Payment gateway providers.
const (
	PaymentProviderPayU     = "payu"
	PaymentProviderCashfree = "cashfree"
)

// Payment represents one gateway order for a registration fee.
// A registration may accumulate several orders (abandoned checkouts,
// failed attempts); payment_status on the registration reflects the
// latest confirmed outcome.
type Payment struct {
	ID             uuid.UUID       `json:"id"`
	RegistrationID uuid.UUID       `json:"registration_id"`
	Provider       string          `json:"provider"`
	OrderID        string          `json:"order_id"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	Amount         int             `json:"amount"`
	Currency       string          `json:"currency"`
	Status         PaymentStatus   `json:"status"`
	GatewayPayload json.RawMessage `json:"gateway_payload,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
