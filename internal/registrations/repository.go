package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/pkg/apperr"
)

const registrationColumns = `id, user_id, author_id, personal_details, team_members, paper_details,
	status, payment_status, attended, attended_at, COALESCE(transaction_id,''), amount_paid,
	submitted_at, reviewed_at, created_at, updated_at`

// Repository is the pgx-backed Store. Nested detail objects live in
// JSONB columns; merge logic stays in the Service so the database write
// is always a full-document replace.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

// GetByUserID returns the registration owned by userID.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, userID))
}

// GetByID returns a registration by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

// GetByAuthorID returns a registration by its human-readable author ID.
func (r *Repository) GetByAuthorID(ctx context.Context, authorID string) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE author_id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, q, authorID))
}

// Create inserts a new registration document.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	personal, team, paper, err := marshalDetails(reg)
	if err != nil {
		return err
	}
	const q = `INSERT INTO registrations
		(user_id, author_id, personal_details, team_members, paper_details, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		reg.UserID, reg.AuthorID, personal, team, paper, string(reg.Status), string(reg.PaymentStatus),
	).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
}

// Update writes the full document back and refreshes updated_at.
func (r *Repository) Update(ctx context.Context, reg *models.Registration) error {
	personal, team, paper, err := marshalDetails(reg)
	if err != nil {
		return err
	}
	const q = `UPDATE registrations SET
		personal_details = $2, team_members = $3, paper_details = $4,
		status = $5, payment_status = $6, attended = $7, attended_at = $8,
		transaction_id = NULLIF($9,''), amount_paid = $10, submitted_at = $11, reviewed_at = $12,
		updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err = r.pool.QueryRow(ctx, q,
		reg.ID, personal, team, paper,
		string(reg.Status), string(reg.PaymentStatus), reg.Attended, reg.AttendedAt,
		reg.TransactionID, reg.AmountPaid, reg.SubmittedAt, reg.ReviewedAt,
	).Scan(&reg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFoundf("registration %s", reg.ID)
	}
	return err
}

// NextAuthorSeq returns the next value of the author-ID sequence.
func (r *Repository) NextAuthorSeq(ctx context.Context) (int, error) {
	var seq int
	err := r.pool.QueryRow(ctx, `SELECT nextval('author_id_seq')`).Scan(&seq)
	return seq, err
}

// List returns registrations matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE TRUE`
	var args []interface{}
	if f.Status != "" {
		args = append(args, string(f.Status))
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.PaymentStatus != "" {
		args = append(args, string(f.PaymentStatus))
		q += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	if f.Track != "" {
		args = append(args, f.Track)
		q += fmt.Sprintf(" AND paper_details->>'track' = $%d", len(args))
	}
	if f.Attended != nil {
		args = append(args, *f.Attended)
		q += fmt.Sprintf(" AND attended = $%d", len(args))
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

func (r *Repository) scanOne(row pgx.Row) (*models.Registration, error) {
	reg, err := scanRegistration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("registration")
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var (
		reg      models.Registration
		personal []byte
		team     []byte
		paper    []byte
	)
	err := row.Scan(
		&reg.ID, &reg.UserID, &reg.AuthorID, &personal, &team, &paper,
		&reg.Status, &reg.PaymentStatus, &reg.Attended, &reg.AttendedAt,
		&reg.TransactionID, &reg.AmountPaid, &reg.SubmittedAt, &reg.ReviewedAt,
		&reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(personal, &reg.PersonalDetails); err != nil {
		return nil, fmt.Errorf("decode personal_details: %w", err)
	}
	if err := json.Unmarshal(team, &reg.TeamMembers); err != nil {
		return nil, fmt.Errorf("decode team_members: %w", err)
	}
	if err := json.Unmarshal(paper, &reg.PaperDetails); err != nil {
		return nil, fmt.Errorf("decode paper_details: %w", err)
	}
	return &reg, nil
}

func marshalDetails(reg *models.Registration) (personal, team, paper []byte, err error) {
	if personal, err = json.Marshal(reg.PersonalDetails); err != nil {
		return nil, nil, nil, fmt.Errorf("encode personal_details: %w", err)
	}
	if reg.TeamMembers == nil {
		reg.TeamMembers = []models.TeamMember{}
	}
	if team, err = json.Marshal(reg.TeamMembers); err != nil {
		return nil, nil, nil, fmt.Errorf("encode team_members: %w", err)
	}
	if paper, err = json.Marshal(reg.PaperDetails); err != nil {
		return nil, nil, nil, fmt.Errorf("encode paper_details: %w", err)
	}
	return personal, team, paper, nil
}
