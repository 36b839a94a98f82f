package registrations

import (
	"context"

	"github.com/google/uuid"

	"github.com/confera/backend/internal/models"
)

// Filter narrows admin registration listings.
type Filter struct {
	Status        models.Status
	PaymentStatus models.PaymentStatus
	Track         string
	Attended      *bool
}

// Store persists registration documents. The production implementation
// is the pgx Repository in this package; tests use an in-memory store.
// Each lifecycle operation is a single read-modify-write against the
// registration's primary key; last-write-wins is acceptable.
type Store interface {
	// GetByUserID returns the author's registration, or apperr.ErrNotFound.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Registration, error)
	// GetByID returns a registration by primary key, or apperr.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	// GetByAuthorID returns a registration by its human-readable author
	// ID (QR verification path), or apperr.ErrNotFound.
	GetByAuthorID(ctx context.Context, authorID string) (*models.Registration, error)
	// Create inserts a new registration, filling ID and timestamps.
	Create(ctx context.Context, reg *models.Registration) error
	// Update writes the full document back, refreshing updated_at.
	Update(ctx context.Context, reg *models.Registration) error
	// NextAuthorSeq returns the next value of the author-ID sequence.
	NextAuthorSeq(ctx context.Context) (int, error)
	// List returns registrations matching the filter, newest first.
	List(ctx context.Context, f Filter) ([]models.Registration, error)
}

// SettingsProvider supplies the current conference settings to lifecycle
// operations (registration-open check, author-ID prefix, fee overrides).
type SettingsProvider interface {
	Current(ctx context.Context) (*models.Settings, error)
}
