package emaillogs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confera/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts one delivery attempt.
func (r *Repository) Record(ctx context.Context, l *models.EmailLog) error {
	const q = `INSERT INTO email_logs (registration_id, recipient, subject, email_type, status, error)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''))
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, l.RegistrationID, l.Recipient, l.Subject, l.EmailType, l.Status, l.Error).
		Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("record email log: %w", err)
	}
	return nil
}

// List returns recent email logs, newest first, optionally filtered by
// delivery status.
func (r *Repository) List(ctx context.Context, status string, limit int) ([]models.EmailLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT id, registration_id, recipient, subject, email_type, status, COALESCE(error,''), created_at
		FROM email_logs
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	defer rows.Close()

	list := []models.EmailLog{}
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.RegistrationID, &l.Recipient, &l.Subject, &l.EmailType, &l.Status, &l.Error, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// ListByRegistration returns the emails sent for one registration.
func (r *Repository) ListByRegistration(ctx context.Context, regID uuid.UUID) ([]models.EmailLog, error) {
	const q = `SELECT id, registration_id, recipient, subject, email_type, status, COALESCE(error,''), created_at
		FROM email_logs
		WHERE registration_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, regID)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	defer rows.Close()

	list := []models.EmailLog{}
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.RegistrationID, &l.Recipient, &l.Subject, &l.EmailType, &l.Status, &l.Error, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
