package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/internal/registrations"
	"github.com/confera/backend/pkg/apperr"
)

// Service wires the payment gate to the gateways. Fee payment is only
// permitted for accepted registrations; the registration's payment
// status is flipped by verified gateway callbacks, never by Initiate.
type Service struct {
	repo      Store
	regs      *registrations.Service
	settings  registrations.SettingsProvider
	payu      *PayU
	cashfree  *Cashfree
	returnURL string
	logger    *zap.Logger
}

// NewService creates the payment service.
func NewService(repo Store, regs *registrations.Service, settings registrations.SettingsProvider, payu *PayU, cashfree *Cashfree, returnURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo: repo, regs: regs, settings: settings,
		payu: payu, cashfree: cashfree,
		returnURL: returnURL, logger: logger,
	}
}

// Initiate opens a checkout session for the caller's registration fee.
func (s *Service) Initiate(ctx context.Context, userID uuid.UUID, provider string) (*CheckoutSession, error) {
	reg, err := s.regs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reg.Status != models.StatusAccepted {
		return nil, apperr.InvalidStatef("payment requires an accepted registration, status is %s", reg.Status)
	}
	if reg.PaymentStatus == models.PaymentCompleted {
		return nil, apperr.InvalidStatef("registration fee already paid")
	}

	cfg, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	amount := TotalFee(reg, cfg.FeeOverrides)

	order := Order{
		OrderID:     fmt.Sprintf("%s-%d", reg.AuthorID, time.Now().UnixMilli()),
		Amount:      amount,
		Currency:    "INR",
		Product:     cfg.ConferenceName + " registration fee",
		PayerName:   reg.PersonalDetails.FullName,
		PayerEmail:  reg.PersonalDetails.Email,
		PayerMobile: reg.PersonalDetails.Mobile,
		ReturnURL:   s.returnURL,
	}

	var session *CheckoutSession
	switch provider {
	case models.PaymentProviderPayU:
		if !s.payu.Configured() {
			return nil, apperr.Upstreamf("payu gateway not configured")
		}
		if session, err = s.payu.CreateSession(order); err != nil {
			return nil, err
		}
	case models.PaymentProviderCashfree:
		if !s.cashfree.Configured() {
			return nil, apperr.Upstreamf("cashfree gateway not configured")
		}
		if session, err = s.cashfree.CreateSession(ctx, order); err != nil {
			return nil, err
		}
	default:
		return nil, apperr.Validationf("unknown payment provider %q", provider)
	}

	payment := &models.Payment{
		RegistrationID: reg.ID,
		Provider:       provider,
		OrderID:        order.OrderID,
		Amount:         amount,
		Currency:       order.Currency,
		Status:         models.PaymentPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return session, nil
}

// Confirm applies a verified gateway notification: updates the payment
// order and, on success, completes the registration's payment. Safe to
// call more than once for the same order. Pending notifications carry
// no verdict and leave both the order and the registration untouched.
func (s *Service) Confirm(ctx context.Context, n *Notification, payload json.RawMessage) error {
	if n.Pending {
		return nil
	}
	payment, err := s.repo.GetByOrderID(ctx, n.OrderID)
	if err != nil {
		return err
	}
	if payment.Status == models.PaymentCompleted {
		return nil
	}
	if n.Amount != 0 && n.Amount != payment.Amount {
		s.logger.Warn("gateway amount mismatch",
			zap.String("order_id", n.OrderID),
			zap.Int("expected", payment.Amount),
			zap.Int("reported", n.Amount))
	}

	if !n.Success {
		if err := s.repo.RecordOutcome(ctx, n.OrderID, models.PaymentFailed, n.TransactionID, payload); err != nil {
			return err
		}
		_, err = s.regs.FailPayment(ctx, payment.RegistrationID)
		return err
	}

	if err := s.repo.RecordOutcome(ctx, n.OrderID, models.PaymentCompleted, n.TransactionID, payload); err != nil {
		return err
	}
	_, err = s.regs.CompletePayment(ctx, payment.RegistrationID, n.TransactionID, payment.Amount)
	return err
}

// ListByRegistration returns a registration's payment orders.
func (s *Service) ListByRegistration(ctx context.Context, regID uuid.UUID) ([]models.Payment, error) {
	return s.repo.ListByRegistration(ctx, regID)
}
