package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"videotube/internal/apperr"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type RegisterInput struct {
	Username string
	FullName string
	Email    string
	Password string
	// AvatarRef and CoverImageRef are opaque storage references, typically
	// URLs returned by the media uploader.
	AvatarRef     string
	CoverImageRef string
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (Public, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Password = strings.TrimSpace(input.Password)

	var missing []string
	for field, value := range map[string]string{
		"username": input.Username,
		"fullname": input.FullName,
		"email":    input.Email,
		"password": input.Password,
	} {
		if value == "" {
			missing = append(missing, field+" is required")
		}
	}
	if len(missing) > 0 {
		return Public{}, apperr.Validation("all fields are required", missing...)
	}
	if input.AvatarRef == "" {
		return Public{}, apperr.Validation("avatar file is required")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return Public{}, apperr.Internal("failed to register user", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Public{}, apperr.Internal("failed to register user", fmt.Errorf("generate uuid v7: %w", err))
	}

	now := time.Now().UTC()
	account := Account{
		ID:            id.String(),
		Username:      input.Username,
		Email:         input.Email,
		FullName:      input.FullName,
		AvatarURL:     input.AvatarRef,
		CoverImageURL: input.CoverImageRef,
		PasswordHash:  hash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Public{}, apperr.Conflict("user with email or username already exists")
		}
		return Public{}, apperr.Internal("failed to register user", err)
	}

	return account.Public(), nil
}

func (s *Service) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword, confirmPassword string) error {
	newPassword = strings.TrimSpace(newPassword)
	confirmPassword = strings.TrimSpace(confirmPassword)

	if newPassword == "" {
		return apperr.Validation("new password is required")
	}
	if newPassword != confirmPassword {
		return apperr.Validation("new password and confirmation do not match")
	}

	account, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.Unauthorized("invalid credentials")
		}
		return apperr.Internal("failed to change password", err)
	}

	if !CheckPassword(account.PasswordHash, strings.TrimSpace(oldPassword)) {
		return apperr.Unauthorized("invalid credentials")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("failed to change password", err)
	}

	// The current refresh token stays valid; changing the password does not
	// force a re-login.
	if err := s.store.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return apperr.Internal("failed to change password", err)
	}

	return nil
}
