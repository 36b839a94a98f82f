package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confera/backend/internal/models"
)

// Repository handles notification persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a notification for one user.
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (user_id, title, message, type, link)
		VALUES ($1, $2, $3, $4, NULLIF($5,''))
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, n.UserID, n.Title, n.Message, n.Type, n.Link).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// CreateForAll fans one message out to every given user in a single
// statement. Used for admin broadcasts.
func (r *Repository) CreateForAll(ctx context.Context, userIDs []uuid.UUID, title, message, link string) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	const q = `INSERT INTO notifications (user_id, title, message, type, link)
		SELECT unnest($1::uuid[]), $2, $3, $4, NULLIF($5,'')`
	tag, err := r.pool.Exec(ctx, q, userIDs, title, message, models.NotificationBroadcast, link)
	if err != nil {
		return 0, fmt.Errorf("broadcast notifications: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListByUser returns a user's notifications, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT id, user_id, title, message, type, COALESCE(link,''), read_at, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	list := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Link, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead stamps a single notification as read. The user scope keeps
// one user from marking another's feed.
func (r *Repository) MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL`, id, userID)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkAllRead stamps every unread notification for the user.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE user_id = $1 AND read_at IS NULL`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
