package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/pkg/apperr"
)

// memStore is an in-memory Store for exercising the lifecycle service
// without PostgreSQL. Documents are deep-copied on the way in and out so
// a failed operation cannot leak partial mutations into the store.
type memStore struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.Registration
	seq  int
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[uuid.UUID]*models.Registration)}
}

func cloneReg(reg *models.Registration) *models.Registration {
	raw, _ := json.Marshal(reg)
	var out models.Registration
	_ = json.Unmarshal(raw, &out)
	return &out
}

func (m *memStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, reg := range m.byID {
		if reg.UserID == userID {
			return cloneReg(reg), nil
		}
	}
	return nil, apperr.NotFoundf("registration for user %s", userID)
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFoundf("registration %s", id)
	}
	return cloneReg(reg), nil
}

func (m *memStore) GetByAuthorID(ctx context.Context, authorID string) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, reg := range m.byID {
		if reg.AuthorID == authorID {
			return cloneReg(reg), nil
		}
	}
	return nil, apperr.NotFoundf("registration %s", authorID)
}

func (m *memStore) Create(ctx context.Context, reg *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg.ID = uuid.New()
	m.byID[reg.ID] = cloneReg(reg)
	return nil
}

func (m *memStore) Update(ctx context.Context, reg *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[reg.ID]; !ok {
		return apperr.NotFoundf("registration %s", reg.ID)
	}
	m.byID[reg.ID] = cloneReg(reg)
	return nil
}

func (m *memStore) NextAuthorSeq(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *memStore) List(ctx context.Context, f Filter) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Registration
	for _, reg := range m.byID {
		if f.Status != "" && reg.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && reg.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.Track != "" && reg.PaperDetails.Track != f.Track {
			continue
		}
		if f.Attended != nil && reg.Attended != *f.Attended {
			continue
		}
		out = append(out, *cloneReg(reg))
	}
	return out, nil
}

type memSettings struct {
	open   bool
	prefix string
}

func (m *memSettings) Current(ctx context.Context) (*models.Settings, error) {
	return &models.Settings{
		ConferenceName:   "Test Conference",
		AuthorIDPrefix:   m.prefix,
		RegistrationOpen: m.open,
	}, nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	svc := NewService(store, &memSettings{open: true, prefix: "CONF25"}, nil)
	return svc, store
}

func str(s string) *string { return &s }

func TestSaveDraftCreatesRegistration(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	reg, err := svc.SaveDraft(ctx, userID, DraftPatch{
		PersonalDetails: &models.PersonalDetails{
			FullName: "Jane Roe",
			Email:    "jane@example.com",
			Category: models.CategoryStudent,
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if reg.AuthorID != "CONF25-001" {
		t.Errorf("AuthorID = %q, want CONF25-001", reg.AuthorID)
	}
	if reg.Status != models.StatusDraft {
		t.Errorf("Status = %q, want draft", reg.Status)
	}
	if reg.PaymentStatus != models.PaymentPending {
		t.Errorf("PaymentStatus = %q, want pending", reg.PaymentStatus)
	}

	// The author ID is assigned once and survives later saves.
	reg2, err := svc.SaveDraft(ctx, userID, DraftPatch{
		PaperDetails: &PaperPatch{Title: str("A Paper")},
	})
	if err != nil {
		t.Fatalf("second SaveDraft: %v", err)
	}
	if reg2.AuthorID != reg.AuthorID {
		t.Errorf("AuthorID changed: %q -> %q", reg.AuthorID, reg2.AuthorID)
	}
	if reg2.PersonalDetails.FullName != "Jane Roe" {
		t.Errorf("personal details clobbered by paper-only save")
	}
}

func TestSaveDraftClosedRegistration(t *testing.T) {
	store := newMemStore()
	settings := &memSettings{open: true, prefix: "CONF25"}
	svc := NewService(store, settings, nil)
	ctx := context.Background()

	existing := uuid.New()
	if _, err := svc.SaveDraft(ctx, existing, DraftPatch{}); err != nil {
		t.Fatalf("SaveDraft while open: %v", err)
	}

	settings.open = false

	// New drafts are rejected once registration closes.
	if _, err := svc.SaveDraft(ctx, uuid.New(), DraftPatch{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("SaveDraft after close = %v, want ErrForbidden", err)
	}
	// Existing drafts remain editable.
	if _, err := svc.SaveDraft(ctx, existing, DraftPatch{PaperDetails: &PaperPatch{Title: str("X")}}); err != nil {
		t.Errorf("editing existing draft after close: %v", err)
	}
}

func TestSaveDraftPartialMerge(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.SaveDraft(ctx, userID, DraftPatch{
		PaperDetails: &PaperPatch{
			Abstract: str("Y"),
			Keywords: []string{"ml", "ethics"},
			Track:    str("AI"),
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	// Saving only a title keeps the existing abstract, keywords, track.
	reg, err := svc.SaveDraft(ctx, userID, DraftPatch{
		PaperDetails: &PaperPatch{Title: str("X")},
	})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if reg.PaperDetails.Title != "X" {
		t.Errorf("Title = %q, want X", reg.PaperDetails.Title)
	}
	if reg.PaperDetails.Abstract != "Y" {
		t.Errorf("Abstract = %q, want Y (partial merge must not overwrite)", reg.PaperDetails.Abstract)
	}
	if len(reg.PaperDetails.Keywords) != 2 {
		t.Errorf("Keywords = %v, want untouched", reg.PaperDetails.Keywords)
	}

	// Keywords are replaced wholesale only when provided.
	reg, err = svc.SaveDraft(ctx, userID, DraftPatch{
		PaperDetails: &PaperPatch{Keywords: []string{"robotics"}},
	})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if len(reg.PaperDetails.Keywords) != 1 || reg.PaperDetails.Keywords[0] != "robotics" {
		t.Errorf("Keywords = %v, want [robotics]", reg.PaperDetails.Keywords)
	}
	if reg.PaperDetails.Title != "X" || reg.PaperDetails.Abstract != "Y" {
		t.Errorf("keyword-only save clobbered other paper fields")
	}
}

func TestSaveDraftTeamMembers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	reg, err := svc.SaveDraft(ctx, userID, DraftPatch{
		TeamMembers: []models.TeamMember{
			{Name: "Alice", Category: models.CategoryIndustry},
			{Name: "", Email: "ghost@example.com"}, // empty name filtered out
			{Name: "Bob", Category: models.CategoryFaculty},
		},
	})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if len(reg.TeamMembers) != 2 {
		t.Fatalf("TeamMembers = %d entries, want 2", len(reg.TeamMembers))
	}
	if reg.TeamMembers[0].Name != "Alice" || reg.TeamMembers[1].Name != "Bob" {
		t.Errorf("TeamMembers order not preserved: %+v", reg.TeamMembers)
	}

	// A save without team_members leaves the list untouched; a save with
	// an empty list replaces wholesale.
	reg, _ = svc.SaveDraft(ctx, userID, DraftPatch{PaperDetails: &PaperPatch{Title: str("T")}})
	if len(reg.TeamMembers) != 2 {
		t.Errorf("TeamMembers clobbered by unrelated save: %+v", reg.TeamMembers)
	}
	reg, _ = svc.SaveDraft(ctx, userID, DraftPatch{TeamMembers: []models.TeamMember{}})
	if len(reg.TeamMembers) != 0 {
		t.Errorf("TeamMembers = %+v, want wholesale replace with empty", reg.TeamMembers)
	}
}

func TestFreezeAfterDecision(t *testing.T) {
	for _, decision := range []models.Status{models.StatusAccepted, models.StatusRejected} {
		t.Run(string(decision), func(t *testing.T) {
			svc, store := newTestService()
			ctx := context.Background()
			userID := uuid.New()

			reg, err := svc.SaveDraft(ctx, userID, DraftPatch{
				PaperDetails: &PaperPatch{Title: str("Original"), Abstract: str("A")},
			})
			if err != nil {
				t.Fatalf("SaveDraft: %v", err)
			}
			if _, err := svc.Submit(ctx, userID); err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if _, err := svc.Review(ctx, reg.ID, decision, "decided"); err != nil {
				t.Fatalf("Review: %v", err)
			}

			if _, err := svc.SaveDraft(ctx, userID, DraftPatch{
				PaperDetails: &PaperPatch{Title: str("Changed")},
			}); !errors.Is(err, apperr.ErrForbidden) {
				t.Errorf("SaveDraft on %s = %v, want ErrForbidden", decision, err)
			}
			if _, err := svc.AttachManuscript(ctx, userID, models.FileRef{PublicID: "x"}); !errors.Is(err, apperr.ErrForbidden) {
				t.Errorf("AttachManuscript on %s = %v, want ErrForbidden", decision, err)
			}
			if _, err := svc.Submit(ctx, userID); !errors.Is(err, apperr.ErrForbidden) {
				t.Errorf("Submit on %s = %v, want ErrForbidden", decision, err)
			}

			// Document unchanged by the rejected writes.
			cur, err := store.GetByID(ctx, reg.ID)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if cur.PaperDetails.Title != "Original" {
				t.Errorf("Title = %q, frozen document was mutated", cur.PaperDetails.Title)
			}
			if cur.PaperDetails.File != nil {
				t.Errorf("File attached to frozen document")
			}
		})
	}
}

func TestSubmitIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.Submit(ctx, userID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Submit without registration = %v, want ErrNotFound", err)
	}

	if _, err := svc.SaveDraft(ctx, userID, DraftPatch{}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	reg, err := svc.Submit(ctx, userID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if reg.Status != models.StatusSubmitted {
		t.Errorf("Status = %q, want submitted", reg.Status)
	}
	if reg.PaperDetails.ReviewStatus != models.StatusSubmitted {
		t.Errorf("ReviewStatus = %q, want submitted", reg.PaperDetails.ReviewStatus)
	}
	if reg.SubmittedAt == nil {
		t.Fatal("SubmittedAt not stamped")
	}
	first := *reg.SubmittedAt

	reg, err = svc.Submit(ctx, userID)
	if err != nil {
		t.Fatalf("re-Submit: %v", err)
	}
	if reg.Status != models.StatusSubmitted {
		t.Errorf("re-Submit Status = %q, want submitted", reg.Status)
	}
	if reg.SubmittedAt == nil || !reg.SubmittedAt.Equal(first) {
		t.Errorf("SubmittedAt changed on re-submit: %v -> %v", first, reg.SubmittedAt)
	}

	// Submit while under review does not regress the status.
	if _, err := svc.Review(ctx, reg.ID, models.StatusUnderReview, ""); err != nil {
		t.Fatalf("Review: %v", err)
	}
	reg, err = svc.Submit(ctx, userID)
	if err != nil {
		t.Fatalf("Submit under review: %v", err)
	}
	if reg.Status != models.StatusUnderReview {
		t.Errorf("Status = %q, submit regressed an in-review registration", reg.Status)
	}
}

func TestReviewTransitions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	reg, err := svc.SaveDraft(ctx, userID, DraftPatch{})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	// Drafts cannot be reviewed.
	if _, err := svc.Review(ctx, reg.ID, models.StatusAccepted, ""); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("Review on draft = %v, want ErrInvalidState", err)
	}

	if _, err := svc.Submit(ctx, userID); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := svc.Review(ctx, reg.ID, models.Status("maybe"), ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Review with bad decision = %v, want ErrValidation", err)
	}

	got, err := svc.Review(ctx, reg.ID, models.StatusUnderReview, "")
	if err != nil {
		t.Fatalf("Review under_review: %v", err)
	}
	if got.ReviewedAt != nil {
		t.Errorf("ReviewedAt stamped for non-terminal decision")
	}

	got, err = svc.Review(ctx, reg.ID, models.StatusAccepted, "solid work")
	if err != nil {
		t.Fatalf("Review accepted: %v", err)
	}
	if got.Status != models.StatusAccepted || got.PaperDetails.ReviewStatus != models.StatusAccepted {
		t.Errorf("accepted not reflected: status=%q reviewStatus=%q", got.Status, got.PaperDetails.ReviewStatus)
	}
	if got.PaperDetails.ReviewerComments != "solid work" {
		t.Errorf("ReviewerComments = %q", got.PaperDetails.ReviewerComments)
	}
	if got.ReviewedAt == nil {
		t.Error("ReviewedAt not stamped on terminal decision")
	}

	// Terminal: a second review call is rejected, even flipping the decision.
	if _, err := svc.Review(ctx, reg.ID, models.StatusRejected, "changed my mind"); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("re-Review after accept = %v, want ErrForbidden", err)
	}
}

func TestPaymentCompletion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	reg, _ := svc.SaveDraft(ctx, userID, DraftPatch{})
	if _, err := svc.CompletePayment(ctx, reg.ID, "TXN1", 500); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("CompletePayment on draft = %v, want ErrInvalidState", err)
	}

	svc.Submit(ctx, userID)
	if _, err := svc.CompletePayment(ctx, reg.ID, "TXN1", 500); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("CompletePayment on submitted = %v, want ErrInvalidState", err)
	}

	if _, err := svc.Review(ctx, reg.ID, models.StatusAccepted, ""); err != nil {
		t.Fatalf("Review: %v", err)
	}
	got, err := svc.CompletePayment(ctx, reg.ID, "TXN1", 500)
	if err != nil {
		t.Fatalf("CompletePayment: %v", err)
	}
	if got.PaymentStatus != models.PaymentCompleted || got.TransactionID != "TXN1" || got.AmountPaid != 500 {
		t.Errorf("payment not recorded: %+v", got)
	}

	// Completing twice is idempotent and keeps the original transaction.
	got, err = svc.CompletePayment(ctx, reg.ID, "TXN2", 999)
	if err != nil {
		t.Fatalf("re-CompletePayment: %v", err)
	}
	if got.TransactionID != "TXN1" || got.AmountPaid != 500 {
		t.Errorf("idempotent completion overwrote transaction: %+v", got)
	}

	// A completed payment is never downgraded to failed.
	got, err = svc.FailPayment(ctx, reg.ID)
	if err != nil {
		t.Fatalf("FailPayment: %v", err)
	}
	if got.PaymentStatus != models.PaymentCompleted {
		t.Errorf("FailPayment downgraded a completed payment")
	}
}

func TestAttendanceOrthogonal(t *testing.T) {
	statuses := []models.Status{
		models.StatusDraft, models.StatusSubmitted, models.StatusUnderReview,
		models.StatusAccepted, models.StatusRejected,
	}
	payments := []models.PaymentStatus{
		models.PaymentPending, models.PaymentCompleted, models.PaymentFailed,
	}
	ctx := context.Background()

	for _, status := range statuses {
		for _, payment := range payments {
			svc, store := newTestService()
			reg := &models.Registration{
				UserID:        uuid.New(),
				AuthorID:      "CONF25-900",
				Status:        status,
				PaymentStatus: payment,
			}
			if err := store.Create(ctx, reg); err != nil {
				t.Fatalf("Create: %v", err)
			}

			got, err := svc.SetAttendance(ctx, reg.ID, true)
			if err != nil {
				t.Fatalf("SetAttendance(%s/%s): %v", status, payment, err)
			}
			if !got.Attended || got.AttendedAt == nil {
				t.Errorf("attendance not recorded for %s/%s", status, payment)
			}
			stamp := *got.AttendedAt

			// Toggling off keeps the first check-in timestamp.
			got, err = svc.SetAttendance(ctx, reg.ID, false)
			if err != nil {
				t.Fatalf("SetAttendance false (%s/%s): %v", status, payment, err)
			}
			if got.Attended {
				t.Errorf("attendance not cleared for %s/%s", status, payment)
			}
			if got.AttendedAt == nil || !got.AttendedAt.Equal(stamp) {
				t.Errorf("AttendedAt changed on toggle for %s/%s", status, payment)
			}
		}
	}
}

func TestVerifyAttendanceByAuthorID(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	reg, err := svc.SaveDraft(ctx, userID, DraftPatch{})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	got, err := svc.VerifyAttendance(ctx, reg.AuthorID)
	if err != nil {
		t.Fatalf("VerifyAttendance: %v", err)
	}
	if !got.Attended {
		t.Error("VerifyAttendance did not mark attended")
	}

	if _, err := svc.VerifyAttendance(ctx, "CONF25-999"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("VerifyAttendance unknown = %v, want ErrNotFound", err)
	}
}

func TestHooksBestEffort(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	var submitCalls, decisionCalls int
	svc.AfterSubmit(func(ctx context.Context, reg *models.Registration) error {
		submitCalls++
		return errors.New("smtp down") // must not fail the transition
	})
	svc.AfterDecision(func(ctx context.Context, reg *models.Registration) error {
		decisionCalls++
		return nil
	})

	reg, _ := svc.SaveDraft(ctx, userID, DraftPatch{})
	if _, err := svc.Submit(ctx, userID); err != nil {
		t.Fatalf("Submit with failing hook: %v", err)
	}
	if submitCalls != 1 {
		t.Errorf("submit hooks ran %d times, want 1", submitCalls)
	}

	// Idempotent re-submit does not refire hooks.
	svc.Submit(ctx, userID)
	if submitCalls != 1 {
		t.Errorf("submit hooks refired on idempotent re-submit")
	}

	svc.Review(ctx, reg.ID, models.StatusUnderReview, "")
	svc.Review(ctx, reg.ID, models.StatusAccepted, "ok")
	if decisionCalls != 2 {
		t.Errorf("decision hooks ran %d times, want 2", decisionCalls)
	}
}
