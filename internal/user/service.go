package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"biteme-be/internal/auth"
	"biteme-be/internal/logger"
	"biteme-be/internal/utils"

	"go.uber.org/zap"
)

// CredentialService hashes passwords and issues/validates access tokens.
type CredentialService interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
	IssueToken(userID, email string, admin bool) (string, error)
	ValidateToken(token string) (*auth.Claims, error)
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, email, password string) (*Token, error)
	GetProfile(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, input UpdateProfileParams) (*User, error)
	SetAdmin(ctx context.Context, email string, admin bool) (*User, error)
	Authenticate(ctx context.Context, token string) (*User, error)
}

type service struct {
	repo  Repository
	creds CredentialService
	now   func() time.Time
}

var timingDigest = sync.OnceValue(func() string {
	digest, _ := auth.HashPassword("biteme-unknown-account")
	return digest
})

func NewService(repo Repository, creds CredentialService) Service {
	return &service{repo: repo, creds: creds, now: time.Now}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	input.Email = NormalizeEmail(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	_, err := s.repo.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	hashed, err := s.creds.Hash(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	now := s.stamp()
	u := &User{
		Email:          input.Email,
		FullName:       input.FullName,
		PhoneNumber:    utils.TrimPtr(input.PhoneNumber),
		HashedPassword: hashed,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		log.Error("failed to create user", zap.String("email", u.Email), zap.Error(err))
		return nil, err
	}

	log.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*Token, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		// same bcrypt cost as a real mismatch
		s.creds.Verify(password, timingDigest())
		log.Info("login for unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.creds.Verify(password, u.HashedPassword) {
		log.Info("password mismatch", zap.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	token, err := s.creds.IssueToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		log.Error("failed to issue token", zap.String("user_id", u.ID), zap.Error(err))
		return nil, err
	}

	return &Token{AccessToken: token, TokenType: auth.TokenType}, nil
}

func (s *service) GetProfile(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id string, input UpdateProfileParams) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateProfile"),
		zap.String("user_id", id),
	)

	if !input.HasChanges() {
		return nil, ErrNoChanges
	}
	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		input.Email = &email
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	changes := ProfileChanges{
		Email:       input.Email,
		FullName:    utils.TrimPtr(input.FullName),
		PhoneNumber: input.PhoneNumber,
		UpdatedAt:   s.stamp(),
	}

	if input.Email != nil {
		existing, err := s.repo.FindByEmail(ctx, *input.Email)
		switch {
		case err == nil && existing.ID != id:
			return nil, ErrEmailExists
		case err != nil && !errors.Is(err, ErrUserNotFound):
			return nil, err
		}
	}

	if input.Password != nil {
		hashed, err := s.creds.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		changes.HashedPassword = &hashed
	}

	u, err := s.repo.UpdateProfile(ctx, id, changes)
	if err != nil {
		log.Warn("profile update failed", zap.Error(err))
		return nil, err
	}

	log.Info("profile updated", zap.Bool("password_changed", changes.HashedPassword != nil))
	return u, nil
}

// SetAdmin grants or revokes admin rights. It is refused outside an
// internal (operator) context.
func (s *service) SetAdmin(ctx context.Context, email string, admin bool) (*User, error) {
	if !utils.IsInternalRequest(ctx) {
		return nil, ErrOperatorOnly
	}

	u, err := s.repo.SetAdmin(ctx, NormalizeEmail(email), admin, s.stamp())
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("admin flag changed",
		zap.String("layer", "service"),
		zap.String("user_id", u.ID),
		zap.Bool("is_admin", admin),
	)
	return u, nil
}

// Authenticate resolves a token to the stored user. A deactivated user is
// refused even while the token is still valid.
func (s *service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.creds.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.Subject)
	if errors.Is(err, ErrUserNotFound) {
		return nil, auth.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return u, nil
}

func (s *service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
