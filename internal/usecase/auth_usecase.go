package usecase

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/bimcheck/bimcheck/internal/domain"
	"github.com/bimcheck/bimcheck/internal/ports"
)

// LoginResponse carries the issued token and the authenticated auditor.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user"`
}

// AuthUseCase authenticates auditors. Identity is ambient plumbing here:
// the lifecycle core only ever receives actor IDs as explicit parameters.
type AuthUseCase struct {
	users     ports.UserRepository
	passwords ports.PasswordService
	tokens    ports.TokenService
	log       *logrus.Logger
}

// NewAuthUseCase creates a new auth use case
func NewAuthUseCase(users ports.UserRepository, passwords ports.PasswordService, tokens ports.TokenService, log *logrus.Logger) *AuthUseCase {
	return &AuthUseCase{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		log:       log,
	}
}

// Login verifies credentials and issues an access token. Lookup and
// verification failures collapse into one error so the response does not
// reveal which emails exist.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if email == "" || password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := uc.passwords.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.GenerateAccessToken(ports.TokenClaims{UserID: user.ID, Role: user.Role})
	if err != nil {
		uc.log.WithError(err).Error("failed to issue access token")
		return nil, err
	}

	return &LoginResponse{AccessToken: token, User: user}, nil
}
