package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/repositories"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordMinLength    = 8
	resetTokenTTL        = 1 * time.Hour
	confirmationTokenLen = 32
)

var (
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrAuthTokenInvalid       = errors.New("invalid or expired token")
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	ConfirmEmail(ctx context.Context, token string) error
	GeneratePasswordResetToken(ctx context.Context, email string) (string, error)
	ResetPasswordByToken(ctx context.Context, token string, newPassword string) error
}

type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginInput struct {
	Email    string
	Password string
}

type authService struct {
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

func NewAuthService(userRepo repositories.UserRepository, logger *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email address", ErrValidationFailed)
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, "", fmt.Errorf("%w: first and last name are required", ErrValidationFailed)
	}
	if len(input.Password) < passwordMinLength {
		return nil, "", ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	confirmationToken := generateRandomToken(confirmationTokenLen)

	user := &models.User{
		FirstName:              strings.TrimSpace(input.FirstName),
		LastName:               strings.TrimSpace(input.LastName),
		Email:                  email,
		PasswordHash:           string(hashedPassword),
		Role:                   models.RolePlayer,
		EmailConfirmed:         false,
		EmailConfirmationToken: &confirmationToken,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, "", ErrAuthEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}
	return user, confirmationToken, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) ConfirmEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.GetByConfirmationToken(ctx, token)
	if err != nil {
		return ErrAuthTokenInvalid
	}
	if user.EmailConfirmed {
		return nil
	}
	if err := s.userRepo.ConfirmEmail(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	return nil
}

// GeneratePasswordResetToken returns an empty token for unknown emails so
// the endpoint does not reveal which addresses are registered.
func (s *authService) GeneratePasswordResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil
	}
	resetToken := generateRandomToken(confirmationTokenLen)
	if err := s.userRepo.SetPasswordResetToken(ctx, user.ID, resetToken, time.Now().Add(resetTokenTTL)); err != nil {
		return "", err
	}
	return resetToken, nil
}

func (s *authService) ResetPasswordByToken(ctx context.Context, token string, newPassword string) error {
	user, err := s.userRepo.GetByPasswordResetToken(ctx, token)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "password reset with unknown token", slog.Any("error", err))
		}
		return ErrAuthTokenInvalid
	}
	if user.PasswordResetExpiresAt == nil || user.PasswordResetExpiresAt.Before(time.Now()) {
		return ErrAuthTokenInvalid
	}
	if len(newPassword) < passwordMinLength {
		return ErrPasswordTooShort
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.PasswordResetToken = nil
	user.PasswordResetExpiresAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func generateRandomToken(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		for i := range b {
			b[i] = charset[int(time.Now().UnixNano())%len(charset)]
		}
		return string(b)
	}
	for i, rb := range randomBytes {
		b[i] = charset[int(rb)%len(charset)]
	}
	return string(b)
}
