// AngelaMos | 2026
// service.go

package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ltl-studio/backend/internal/config"
	"github.com/ltl-studio/backend/internal/core"
	"github.com/ltl-studio/backend/internal/payment"
	"github.com/ltl-studio/backend/internal/user"
)

var (
	ErrInvalidStatus     = errors.New("invalid booking status")
	ErrPaymentIncomplete = errors.New("payment has not succeeded")
)

// AccountProvisioner creates the client account that goes with a
// booking. It must return user.ErrEmailExists when the email is taken.
type AccountProvisioner interface {
	ProvisionWithTemporaryPassword(ctx context.Context, name, email string) (string, error)
}

type Service struct {
	repo          Repository
	accounts      AccountProvisioner
	payments      payment.Gateway
	amount        int64
	currency      string
	verifyPayment bool
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(
	repo Repository,
	accounts AccountProvisioner,
	payments payment.Gateway,
	paymentCfg config.PaymentConfig,
	bookingCfg config.BookingConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:          repo,
		accounts:      accounts,
		payments:      payments,
		amount:        paymentCfg.Amount,
		currency:      paymentCfg.Currency,
		verifyPayment: bookingCfg.VerifyPayment,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *Service) CreatePaymentIntent(ctx context.Context) (*payment.Intent, error) {
	intent, err := s.payments.CreateIntent(ctx, s.amount, s.currency)
	if err != nil {
		s.logger.Warn("payment intent creation failed", "error", err)
		return nil, err
	}
	return intent, nil
}

// CreateResult is a stored booking plus the one-time plaintext password
// of the account opened for it. TempPassword is empty when the client
// already had an account.
type CreateResult struct {
	Booking      *Booking
	TempPassword string
}

func (s *Service) Create(ctx context.Context, req CreateBookingRequest) (*CreateResult, error) {
	ctx, span := core.StartSpan(ctx, "booking.create",
		attribute.String("booking.service_type", req.ServiceType),
	)
	defer span.End()

	if s.verifyPayment {
		if err := s.checkPayment(ctx, req.PaymentIntentID); err != nil {
			core.SetSpanError(ctx, err)
			return nil, err
		}
	}

	b := &Booking{
		ID:                 uuid.New().String(),
		ClientName:         strings.TrimSpace(req.ClientName),
		ClientEmail:        core.NormalizeEmail(req.ClientEmail),
		ServiceType:        req.ServiceType,
		SessionFormat:      req.SessionFormat,
		PreferredDate:      req.PreferredDate,
		ExperienceLevel:    req.ExperienceLevel,
		ProjectDescription: req.ProjectDescription,
		Status:             StatusPending,
		Price:              Price,
		PaymentIntentID:    req.PaymentIntentID,
		CreatedAt:          s.now().UTC(),
	}

	if err := s.repo.Create(ctx, b); err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("booking.id", b.ID))

	tempPassword, err := s.accounts.ProvisionWithTemporaryPassword(ctx, b.ClientName, b.ClientEmail)
	outcome := "created"
	switch {
	case errors.Is(err, user.ErrEmailExists):
		outcome = "existing"
		s.logger.Info("booking client already has an account",
			"booking_id", b.ID,
			"email", b.ClientEmail,
		)
	case err != nil:
		outcome = "failed"
		s.logger.Error("account provisioning failed",
			"booking_id", b.ID,
			"email", b.ClientEmail,
			"error", err,
		)
	}
	core.AddSpanEvent(ctx, "account.provisioned",
		attribute.String("account.outcome", outcome),
	)

	return &CreateResult{Booking: b, TempPassword: tempPassword}, nil
}

func (s *Service) checkPayment(ctx context.Context, intentID string) error {
	if intentID == "" {
		return fmt.Errorf("%w: paymentIntentId is required", core.ErrInvalidInput)
	}

	intent, err := s.payments.GetIntent(ctx, intentID)
	if err != nil {
		return err
	}

	if intent.Status != payment.StatusSucceeded {
		return fmt.Errorf("%w: %w", core.ErrInvalidInput, ErrPaymentIncomplete)
	}

	return nil
}

// SetStatus overwrites the status. Any of the known statuses may follow
// any other.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*Booking, error) {
	st := Status(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, ErrInvalidStatus)
	}

	b, err := s.repo.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking status updated",
		"booking_id", b.ID,
		"status", b.Status,
	)

	return b, nil
}

func (s *Service) List(ctx context.Context) ([]Booking, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
