package payments

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/pkg/apperr"
)

// Repository handles payment order persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

// Create inserts a pending payment order.
func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	const q = `INSERT INTO payments (registration_id, provider, order_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		p.RegistrationID, p.Provider, p.OrderID, p.Amount, p.Currency, string(p.Status),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByOrderID returns a payment by gateway order ID.
func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	const q = `SELECT id, registration_id, provider, order_id, COALESCE(transaction_id,''), amount, currency, status, gateway_payload, created_at, updated_at
		FROM payments WHERE order_id = $1`
	var p models.Payment
	err := r.pool.QueryRow(ctx, q, orderID).Scan(
		&p.ID, &p.RegistrationID, &p.Provider, &p.OrderID, &p.TransactionID,
		&p.Amount, &p.Currency, &p.Status, &p.GatewayPayload, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("payment order %s", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RecordOutcome stores the gateway's verdict on an order.
func (r *Repository) RecordOutcome(ctx context.Context, orderID string, status models.PaymentStatus, transactionID string, payload json.RawMessage) error {
	const q = `UPDATE payments SET status = $2, transaction_id = NULLIF($3,''), gateway_payload = $4, updated_at = NOW()
		WHERE order_id = $1`
	tag, err := r.pool.Exec(ctx, q, orderID, string(status), transactionID, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("payment order %s", orderID)
	}
	return nil
}

// ListByRegistration returns all orders for a registration, newest first.
func (r *Repository) ListByRegistration(ctx context.Context, regID uuid.UUID) ([]models.Payment, error) {
	const q = `SELECT id, registration_id, provider, order_id, COALESCE(transaction_id,''), amount, currency, status, gateway_payload, created_at, updated_at
		FROM payments WHERE registration_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, regID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(
			&p.ID, &p.RegistrationID, &p.Provider, &p.OrderID, &p.TransactionID,
			&p.Amount, &p.Currency, &p.Status, &p.GatewayPayload, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
