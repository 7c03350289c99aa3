// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ltl-studio/backend/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidResetToken  = errors.New("reset token invalid or expired")
	ErrWrongPassword      = errors.New("incorrect current password")
)

type Service struct {
	repo      Repository
	logger    *slog.Logger
	clientURL string
	now       func() time.Time
}

func NewService(repo Repository, logger *slog.Logger, clientURL string) *Service {
	return &Service{
		repo:      repo,
		logger:    logger,
		clientURL: strings.TrimRight(clientURL, "/"),
		now:       time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.create(ctx, req.Name, req.Email, passwordHash)
}

// Login compares the supplied password with the stored hash. Unknown
// emails still pay for a hash verification so response timing does not
// reveal which accounts exist.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, core.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.repo.UpdatePassword(ctx, user.ID, newHash); err != nil {
			s.logger.Warn("password rehash failed", "error", err)
		}
	}

	return user, nil
}

// ForgotPassword issues a one hour reset token. It reports success for
// unknown emails so callers cannot probe for accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, core.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	token, err := core.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expiresAt := s.now().Add(ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, core.HashToken(token), expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	// No mail transport is configured; the link goes to the operator log.
	s.logger.Info("password reset link issued",
		"email", user.Email,
		"link", s.clientURL+"/reset/"+token,
		"expires_at", expiresAt,
	)

	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidResetToken
	}

	now := s.now()
	user, err := s.repo.GetByResetToken(ctx, core.HashToken(token), now)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("get user: %w", err)
	}

	if !user.HasPendingReset(now) || !core.CompareTokenHash(token, *user.ResetTokenHash) {
		return ErrInvalidResetToken
	}

	passwordHash, err := core.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, user.ID, passwordHash)
}

func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	user, err := s.repo.GetByEmail(ctx, core.NormalizeEmail(req.Email))
	if err != nil {
		return err
	}

	valid, err := core.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrWrongPassword
	}

	passwordHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, user.ID, passwordHash)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// ProvisionWithTemporaryPassword is the legacy credential bootstrap used
// by bookings: it creates an account with a generated password and hands
// the plaintext back so it can be shown to the client once. Returns
// ErrEmailExists when the account is already there.
func (s *Service) ProvisionWithTemporaryPassword(
	ctx context.Context,
	name, email string,
) (string, error) {
	tempPassword, err := core.GenerateTemporaryPassword()
	if err != nil {
		return "", err
	}

	passwordHash, err := core.HashPassword(tempPassword)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.create(ctx, name, email, passwordHash)
	if err != nil {
		return "", err
	}

	s.logger.Warn("legacy credential bootstrap: plaintext temporary password issued",
		"user_id", user.ID,
		"email", user.Email,
	)

	return tempPassword, nil
}

func (s *Service) create(
	ctx context.Context,
	name, email, passwordHash string,
) (*User, error) {
	user := &User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(name),
		Email:        core.NormalizeEmail(email),
		PasswordHash: passwordHash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return user, nil
}
