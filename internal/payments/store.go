package payments

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/confera/backend/internal/models"
)

// Store persists payment orders. The production implementation is the
// pgx Repository in this package; tests use an in-memory store.
type Store interface {
	// Create inserts a pending payment order, filling ID and timestamps.
	Create(ctx context.Context, p *models.Payment) error
	// GetByOrderID returns a payment by gateway order ID, or
	// apperr.ErrNotFound.
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	// RecordOutcome stores the gateway's verdict on an order.
	RecordOutcome(ctx context.Context, orderID string, status models.PaymentStatus, transactionID string, payload json.RawMessage) error
	// ListByRegistration returns all orders for a registration, newest first.
	ListByRegistration(ctx context.Context, regID uuid.UUID) ([]models.Payment, error)
}
