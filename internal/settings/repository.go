package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/internal/registrations"
)

// Repository reads and writes the single conference settings row.
type Repository struct {
	pool *pgxpool.Pool
}

var _ registrations.SettingsProvider = (*Repository)(nil)

// NewRepository creates a settings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureDefaults seeds the settings row on first boot. An existing row
// is left untouched so admin edits survive restarts.
func (r *Repository) EnsureDefaults(ctx context.Context, conferenceName, authorIDPrefix string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (id, conference_name, author_id_prefix)
		VALUES (TRUE, $1, $2)
		ON CONFLICT (id) DO NOTHING`,
		conferenceName, authorIDPrefix)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

// Current returns the conference settings.
func (r *Repository) Current(ctx context.Context) (*models.Settings, error) {
	var (
		s         models.Settings
		overrides []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT conference_name, author_id_prefix, registration_open,
		       submission_deadline, fee_overrides, updated_at
		FROM settings WHERE id`).Scan(
		&s.ConferenceName, &s.AuthorIDPrefix, &s.RegistrationOpen,
		&s.SubmissionDeadline, &overrides, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("settings row missing, run EnsureDefaults")
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &s.FeeOverrides); err != nil {
			return nil, fmt.Errorf("decode fee overrides: %w", err)
		}
	}
	return &s, nil
}

// Update replaces the settings row with the given values.
func (r *Repository) Update(ctx context.Context, s *models.Settings) error {
	overrides, err := json.Marshal(s.FeeOverrides)
	if err != nil {
		return fmt.Errorf("encode fee overrides: %w", err)
	}
	if s.FeeOverrides == nil {
		overrides = []byte("{}")
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE settings SET
			conference_name = $1,
			author_id_prefix = $2,
			registration_open = $3,
			submission_deadline = $4,
			fee_overrides = $5,
			updated_at = NOW()
		WHERE id`,
		s.ConferenceName, s.AuthorIDPrefix, s.RegistrationOpen,
		s.SubmissionDeadline, overrides)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
