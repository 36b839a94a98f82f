package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confera/backend/internal/models"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, email, password_hash, full_name, role,
		COALESCE(mobile,''), COALESCE(institution,''), COALESCE(department,''),
		created_at, updated_at FROM users WHERE id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role,
		&u.Mobile, &u.Institution, &u.Department, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT id, email, password_hash, full_name, role,
		COALESCE(mobile,''), COALESCE(institution,''), COALESCE(department,''),
		created_at, updated_at FROM users WHERE email = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role,
		&u.Mobile, &u.Institution, &u.Department, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUserParams holds optional profile fields for signup.
type CreateUserParams struct {
	Mobile      string
	Institution string
	Department  string
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, role models.Role, profile *CreateUserParams) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name, role, mobile, institution, department)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''))
		RETURNING id, email, password_hash, full_name, role,
		COALESCE(mobile,''), COALESCE(institution,''), COALESCE(department,''),
		created_at, updated_at`
	mobile, institution, department := "", "", ""
	if profile != nil {
		mobile, institution, department = profile.Mobile, profile.Institution, profile.Department
	}
	var u models.User
	err := r.pool.QueryRow(ctx, q, email, passwordHash, fullName, string(role), mobile, institution, department).
		Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role,
			&u.Mobile, &u.Institution, &u.Department, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUserIDs returns every user ID with the given role, used for
// broadcast notifications.
func (r *Repository) ListUserIDs(ctx context.Context, role models.Role) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE role = $1`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
