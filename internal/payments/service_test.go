package payments

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/internal/registrations"
	"github.com/confera/backend/pkg/apperr"
)

type memRegStore struct {
	mu   sync.Mutex
	regs map[uuid.UUID]*models.Registration
	seq  int
}

func newMemRegStore() *memRegStore {
	return &memRegStore{regs: map[uuid.UUID]*models.Registration{}}
}

func (s *memRegStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.regs {
		if reg.UserID == userID {
			return reg, nil
		}
	}
	return nil, apperr.NotFoundf("registration")
}

func (s *memRegStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[id]
	if !ok {
		return nil, apperr.NotFoundf("registration %s", id)
	}
	return reg, nil
}

func (s *memRegStore) GetByAuthorID(ctx context.Context, authorID string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.regs {
		if reg.AuthorID == authorID {
			return reg, nil
		}
	}
	return nil, apperr.NotFoundf("registration %s", authorID)
}

func (s *memRegStore) Create(ctx context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg.ID = uuid.New()
	s.regs[reg.ID] = reg
	return nil
}

func (s *memRegStore) Update(ctx context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regs[reg.ID]; !ok {
		return apperr.NotFoundf("registration %s", reg.ID)
	}
	s.regs[reg.ID] = reg
	return nil
}

func (s *memRegStore) NextAuthorSeq(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

func (s *memRegStore) List(ctx context.Context, f registrations.Filter) ([]models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Registration
	for _, reg := range s.regs {
		list = append(list, *reg)
	}
	return list, nil
}

type memSettings struct {
	settings models.Settings
}

func (s *memSettings) Current(ctx context.Context) (*models.Settings, error) {
	cp := s.settings
	return &cp, nil
}

type memPayStore struct {
	mu     sync.Mutex
	orders map[string]*models.Payment
}

func newMemPayStore() *memPayStore {
	return &memPayStore{orders: map[string]*models.Payment{}}
}

func (s *memPayStore) Create(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New()
	s.orders[p.OrderID] = p
	return nil
}

func (s *memPayStore) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.orders[orderID]
	if !ok {
		return nil, apperr.NotFoundf("payment order %s", orderID)
	}
	return p, nil
}

func (s *memPayStore) RecordOutcome(ctx context.Context, orderID string, status models.PaymentStatus, transactionID string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.orders[orderID]
	if !ok {
		return apperr.NotFoundf("payment order %s", orderID)
	}
	p.Status = status
	p.TransactionID = transactionID
	p.GatewayPayload = payload
	return nil
}

func (s *memPayStore) ListByRegistration(ctx context.Context, regID uuid.UUID) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Payment
	for _, p := range s.orders {
		if p.RegistrationID == regID {
			list = append(list, *p)
		}
	}
	return list, nil
}

func newTestService(t *testing.T) (*Service, *memRegStore, *memPayStore) {
	t.Helper()
	regStore := newMemRegStore()
	settings := &memSettings{settings: models.Settings{
		ConferenceName:   "Confera 2025",
		AuthorIDPrefix:   "CONF25",
		RegistrationOpen: true,
		FeeOverrides:     map[string]int{string(models.CategoryFaculty): 800},
	}}
	regService := registrations.NewService(regStore, settings, nil)
	payStore := newMemPayStore()
	payu := NewPayU("merchant-key", "merchant-salt", "https://secure.payu.in")
	cashfree := NewCashfree("", "", "https://api.cashfree.com")
	svc := NewService(payStore, regService, settings, payu, cashfree, "https://portal.example/payment/return", nil)
	return svc, regStore, payStore
}

func seedRegistration(t *testing.T, store *memRegStore, status models.Status) *models.Registration {
	t.Helper()
	reg := &models.Registration{
		UserID:   uuid.New(),
		AuthorID: "CONF25-001",
		PersonalDetails: models.PersonalDetails{
			FullName: "Jane Roe",
			Email:    "jane@example.com",
			Category: models.CategoryFaculty,
		},
		Status:        status,
		PaymentStatus: models.PaymentPending,
	}
	if err := store.Create(context.Background(), reg); err != nil {
		t.Fatalf("seed registration: %v", err)
	}
	return reg
}

func TestInitiateRequiresAccepted(t *testing.T) {
	ctx := context.Background()
	for _, status := range []models.Status{
		models.StatusDraft, models.StatusSubmitted, models.StatusUnderReview, models.StatusRejected,
	} {
		svc, regStore, payStore := newTestService(t)
		reg := seedRegistration(t, regStore, status)

		_, err := svc.Initiate(ctx, reg.UserID, models.PaymentProviderPayU)
		if !errors.Is(err, apperr.ErrInvalidState) {
			t.Errorf("Initiate on %s = %v, want ErrInvalidState", status, err)
		}
		if n := len(payStore.orders); n != 0 {
			t.Errorf("Initiate on %s created %d payment orders, want 0", status, n)
		}
	}
}

func TestInitiateAlreadyPaid(t *testing.T) {
	ctx := context.Background()
	svc, regStore, payStore := newTestService(t)
	reg := seedRegistration(t, regStore, models.StatusAccepted)
	reg.PaymentStatus = models.PaymentCompleted

	_, err := svc.Initiate(ctx, reg.UserID, models.PaymentProviderPayU)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("Initiate on completed payment = %v, want ErrInvalidState", err)
	}
	if n := len(payStore.orders); n != 0 {
		t.Errorf("created %d payment orders, want 0", n)
	}
}

func TestInitiateCreatesPendingOrder(t *testing.T) {
	ctx := context.Background()
	svc, regStore, payStore := newTestService(t)
	reg := seedRegistration(t, regStore, models.StatusAccepted)

	session, err := svc.Initiate(ctx, reg.UserID, models.PaymentProviderPayU)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	// Faculty fee is overridden from 750 to 800 in the test settings.
	if session.Amount != 800 {
		t.Errorf("session amount = %d, want 800 (fee override applied)", session.Amount)
	}
	if session.Params["amount"] != "800.00" {
		t.Errorf("gateway amount = %q, want 800.00", session.Params["amount"])
	}

	order, err := payStore.GetByOrderID(ctx, session.OrderID)
	if err != nil {
		t.Fatalf("payment order not recorded: %v", err)
	}
	if order.Status != models.PaymentPending {
		t.Errorf("order status = %s, want pending", order.Status)
	}
	if order.RegistrationID != reg.ID || order.Amount != 800 {
		t.Errorf("order = %+v, want registration %s amount 800", order, reg.ID)
	}

	// The registration's own payment status is not touched by Initiate.
	cur, _ := regStore.GetByID(ctx, reg.ID)
	if cur.PaymentStatus != models.PaymentPending {
		t.Errorf("registration payment status = %s, want pending", cur.PaymentStatus)
	}
}

func TestInitiateRejectsUnknownProvider(t *testing.T) {
	ctx := context.Background()
	svc, regStore, _ := newTestService(t)
	reg := seedRegistration(t, regStore, models.StatusAccepted)

	if _, err := svc.Initiate(ctx, reg.UserID, "stripe"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Initiate with unknown provider = %v, want ErrValidation", err)
	}
	// Cashfree credentials are empty in the test service.
	if _, err := svc.Initiate(ctx, reg.UserID, models.PaymentProviderCashfree); !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("Initiate with unconfigured gateway = %v, want ErrUpstream", err)
	}
}

func TestConfirmPendingIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, regStore, payStore := newTestService(t)
	reg := seedRegistration(t, regStore, models.StatusAccepted)

	session, err := svc.Initiate(ctx, reg.UserID, models.PaymentProviderPayU)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	// A checkout that is still open carries no verdict and must leave
	// both the order and the registration untouched.
	err = svc.Confirm(ctx, &Notification{
		Provider: models.PaymentProviderCashfree,
		OrderID:  session.OrderID,
		Pending:  true,
	}, nil)
	if err != nil {
		t.Fatalf("Confirm pending: %v", err)
	}

	order, _ := payStore.GetByOrderID(ctx, session.OrderID)
	if order.Status != models.PaymentPending {
		t.Errorf("order status = %s after pending notification, want pending", order.Status)
	}
	cur, _ := regStore.GetByID(ctx, reg.ID)
	if cur.PaymentStatus != models.PaymentPending {
		t.Errorf("registration payment status = %s after pending notification, want pending", cur.PaymentStatus)
	}
}

func TestConfirmOutcomes(t *testing.T) {
	ctx := context.Background()
	svc, regStore, payStore := newTestService(t)
	reg := seedRegistration(t, regStore, models.StatusAccepted)

	session, err := svc.Initiate(ctx, reg.UserID, models.PaymentProviderPayU)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	if err := svc.Confirm(ctx, &Notification{
		OrderID: session.OrderID,
		Success: false,
	}, nil); err != nil {
		t.Fatalf("Confirm failure: %v", err)
	}
	cur, _ := regStore.GetByID(ctx, reg.ID)
	if cur.PaymentStatus != models.PaymentFailed {
		t.Errorf("payment status = %s after failure, want failed", cur.PaymentStatus)
	}

	if err := svc.Confirm(ctx, &Notification{
		OrderID:       session.OrderID,
		TransactionID: "txn-1",
		Success:       true,
		Amount:        800,
	}, nil); err != nil {
		t.Fatalf("Confirm success: %v", err)
	}
	order, _ := payStore.GetByOrderID(ctx, session.OrderID)
	if order.Status != models.PaymentCompleted {
		t.Errorf("order status = %s, want completed", order.Status)
	}
	cur, _ = regStore.GetByID(ctx, reg.ID)
	if cur.PaymentStatus != models.PaymentCompleted || cur.TransactionID != "txn-1" || cur.AmountPaid != 800 {
		t.Errorf("registration after success = status %s txn %q amount %d",
			cur.PaymentStatus, cur.TransactionID, cur.AmountPaid)
	}

	// A late failure for a completed order never downgrades it.
	if err := svc.Confirm(ctx, &Notification{
		OrderID: session.OrderID,
		Success: false,
	}, nil); err != nil {
		t.Fatalf("Confirm replay: %v", err)
	}
	cur, _ = regStore.GetByID(ctx, reg.ID)
	if cur.PaymentStatus != models.PaymentCompleted {
		t.Errorf("payment status = %s after late failure, want completed", cur.PaymentStatus)
	}
}
