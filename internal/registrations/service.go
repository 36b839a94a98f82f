package registrations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/pkg/apperr"
)

// Hook is a post-commit side effect (notification, email enqueue). Hooks
// run after the state transition has been persisted; a hook failure is
// logged and never rolls back or fails the transition.
type Hook func(ctx context.Context, reg *models.Registration) error

// DraftPatch is a partial update from one step of the registration
// wizard. Nil sections are left untouched.
type DraftPatch struct {
	PersonalDetails *models.PersonalDetails `json:"personal_details"`
	TeamMembers     []models.TeamMember     `json:"team_members"`
	PaperDetails    *PaperPatch             `json:"paper_details"`
}

// PaperPatch merges key-wise into the stored paper details: absent keys
// keep their existing values, keywords are replaced wholesale only when
// provided.
type PaperPatch struct {
	Title    *string  `json:"title"`
	Abstract *string  `json:"abstract"`
	Keywords []string `json:"keywords"`
	Track    *string  `json:"track"`
}

// Service implements the registration lifecycle state machine:
// draft -> submitted -> under_review -> accepted|rejected, with payment
// and attendance as independent axes.
type Service struct {
	store    Store
	settings SettingsProvider
	logger   *zap.Logger

	afterSubmit   []Hook
	afterDecision []Hook
	afterPayment  []Hook
}

// NewService creates the lifecycle service.
func NewService(store Store, settings SettingsProvider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, settings: settings, logger: logger}
}

// AfterSubmit registers a post-commit hook for the submit transition.
func (s *Service) AfterSubmit(h Hook) { s.afterSubmit = append(s.afterSubmit, h) }

// AfterDecision registers a post-commit hook for review transitions.
func (s *Service) AfterDecision(h Hook) { s.afterDecision = append(s.afterDecision, h) }

// AfterPayment registers a post-commit hook for payment completion.
func (s *Service) AfterPayment(h Hook) { s.afterPayment = append(s.afterPayment, h) }

// GetByUserID returns the author's registration.
func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	return s.store.GetByUserID(ctx, userID)
}

// GetByID returns a registration by primary key.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return s.store.GetByID(ctx, id)
}

// List returns registrations matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Registration, error) {
	return s.store.List(ctx, f)
}

// SaveDraft creates or partially updates the caller's registration.
// The first save lazily creates the document with a fresh author ID;
// later saves merge the patch. Frozen (accepted/rejected) registrations
// reject every draft mutation.
func (s *Service) SaveDraft(ctx context.Context, userID uuid.UUID, patch DraftPatch) (*models.Registration, error) {
	reg, err := s.store.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		if !reg.Editable() {
			return nil, apperr.Forbiddenf("registration is %s and can no longer be edited", reg.Status)
		}
		applyPatch(reg, patch)
		if err := s.store.Update(ctx, reg); err != nil {
			return nil, err
		}
		return reg, nil

	case apperr.IsNotFound(err):
		cfg, err := s.settings.Current(ctx)
		if err != nil {
			return nil, err
		}
		if !cfg.RegistrationOpen {
			return nil, apperr.Forbiddenf("registration is closed")
		}
		seq, err := s.store.NextAuthorSeq(ctx)
		if err != nil {
			return nil, err
		}
		reg = &models.Registration{
			UserID:        userID,
			AuthorID:      fmt.Sprintf("%s-%03d", cfg.AuthorIDPrefix, seq),
			Status:        models.StatusDraft,
			PaymentStatus: models.PaymentPending,
		}
		applyPatch(reg, patch)
		if err := s.store.Create(ctx, reg); err != nil {
			return nil, err
		}
		return reg, nil

	default:
		return nil, err
	}
}

// AttachManuscript records an uploaded manuscript on the registration.
// Subject to the same freeze gate as SaveDraft.
func (s *Service) AttachManuscript(ctx context.Context, userID uuid.UUID, ref models.FileRef) (*models.Registration, error) {
	reg, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !reg.Editable() {
		return nil, apperr.Forbiddenf("registration is %s and can no longer be edited", reg.Status)
	}
	reg.PaperDetails.File = &ref
	if err := s.store.Update(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Submit transitions the caller's draft to submitted. Resubmitting an
// already-submitted registration is idempotent and never clears the
// original submitted_at. A registration already under review stays there.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	reg, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reg.Status.Terminal() {
		return nil, apperr.Forbiddenf("registration is %s and can no longer be edited", reg.Status)
	}
	if reg.Status == models.StatusUnderReview {
		return reg, nil
	}

	first := reg.Status == models.StatusDraft
	reg.Status = models.StatusSubmitted
	reg.PaperDetails.ReviewStatus = models.StatusSubmitted
	if reg.SubmittedAt == nil {
		now := time.Now()
		reg.SubmittedAt = &now
	}
	if err := s.store.Update(ctx, reg); err != nil {
		return nil, err
	}
	if first {
		s.runHooks(ctx, s.afterSubmit, reg, "submit")
	}
	return reg, nil
}

// Review applies an admin decision. Accepted and rejected are terminal:
// a later review call on a decided registration fails with forbidden.
func (s *Service) Review(ctx context.Context, regID uuid.UUID, decision models.Status, remarks string) (*models.Registration, error) {
	switch decision {
	case models.StatusUnderReview, models.StatusAccepted, models.StatusRejected:
	default:
		return nil, apperr.Validationf("invalid review decision %q", decision)
	}

	reg, err := s.store.GetByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if reg.Status.Terminal() {
		return nil, apperr.Forbiddenf("registration already %s", reg.Status)
	}
	if reg.Status == models.StatusDraft {
		return nil, apperr.InvalidStatef("registration has not been submitted")
	}

	reg.Status = decision
	reg.PaperDetails.ReviewStatus = decision
	if remarks != "" {
		reg.PaperDetails.ReviewerComments = remarks
	}
	if decision.Terminal() {
		now := time.Now()
		reg.ReviewedAt = &now
	}
	if err := s.store.Update(ctx, reg); err != nil {
		return nil, err
	}
	s.runHooks(ctx, s.afterDecision, reg, "review")
	return reg, nil
}

// SetAttendance toggles on-site check-in. Permitted in every status and
// payment combination; attended_at is stamped on the first check-in and
// kept thereafter.
func (s *Service) SetAttendance(ctx context.Context, regID uuid.UUID, attended bool) (*models.Registration, error) {
	reg, err := s.store.GetByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	reg.Attended = attended
	if attended && reg.AttendedAt == nil {
		now := time.Now()
		reg.AttendedAt = &now
	}
	if err := s.store.Update(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// VerifyAttendance looks up a registration by its author ID and marks it
// attended. This is the QR scan path at the venue desk.
func (s *Service) VerifyAttendance(ctx context.Context, authorID string) (*models.Registration, error) {
	reg, err := s.store.GetByAuthorID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return s.SetAttendance(ctx, reg.ID, true)
}

// CompletePayment records a confirmed gateway payment. Completion is
// only valid for accepted registrations; confirming twice is idempotent.
func (s *Service) CompletePayment(ctx context.Context, regID uuid.UUID, transactionID string, amount int) (*models.Registration, error) {
	reg, err := s.store.GetByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if reg.PaymentStatus == models.PaymentCompleted {
		return reg, nil
	}
	if reg.Status != models.StatusAccepted {
		return nil, apperr.InvalidStatef("payment requires an accepted registration, status is %s", reg.Status)
	}
	reg.PaymentStatus = models.PaymentCompleted
	reg.TransactionID = transactionID
	reg.AmountPaid = amount
	if err := s.store.Update(ctx, reg); err != nil {
		return nil, err
	}
	s.runHooks(ctx, s.afterPayment, reg, "payment")
	return reg, nil
}

// FailPayment records a failed gateway attempt. A completed payment is
// never downgraded.
func (s *Service) FailPayment(ctx context.Context, regID uuid.UUID) (*models.Registration, error) {
	reg, err := s.store.GetByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if reg.PaymentStatus == models.PaymentCompleted {
		return reg, nil
	}
	reg.PaymentStatus = models.PaymentFailed
	if err := s.store.Update(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *Service) runHooks(ctx context.Context, hooks []Hook, reg *models.Registration, event string) {
	for _, h := range hooks {
		if err := h(ctx, reg); err != nil {
			s.logger.Warn("post-commit hook failed",
				zap.String("event", event),
				zap.String("registration_id", reg.ID.String()),
				zap.Error(err))
		}
	}
}

func applyPatch(reg *models.Registration, patch DraftPatch) {
	if patch.PersonalDetails != nil {
		reg.PersonalDetails = *patch.PersonalDetails
	}
	if patch.TeamMembers != nil {
		members := make([]models.TeamMember, 0, len(patch.TeamMembers))
		for _, m := range patch.TeamMembers {
			if m.Name == "" {
				continue
			}
			members = append(members, m)
		}
		reg.TeamMembers = members
	}
	if patch.PaperDetails != nil {
		p := patch.PaperDetails
		if p.Title != nil {
			reg.PaperDetails.Title = *p.Title
		}
		if p.Abstract != nil {
			reg.PaperDetails.Abstract = *p.Abstract
		}
		if p.Track != nil {
			reg.PaperDetails.Track = *p.Track
		}
		if p.Keywords != nil {
			reg.PaperDetails.Keywords = p.Keywords
		}
	}
}
