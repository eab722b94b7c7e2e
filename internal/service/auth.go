package service

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/novelfinder/novelfinder-go/internal/crypto"
	"github.com/novelfinder/novelfinder-go/internal/model"
	"github.com/novelfinder/novelfinder-go/internal/repository"
)

// MinNewPasswordLength is enforced by ChangePassword only; registration
// accepts any non-empty password.
const MinNewPasswordLength = 6

// Column limits shared by every store backend.
const (
	MaxUsernameLength = 64
	MaxEmailLength    = 255
)

// AuthService handles account registration, login and password changes.
type AuthService struct {
	users     repository.UserStore
	hasher    *crypto.Hasher
	jwtSecret string
	jwtExpiry time.Duration
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserStore, hasher *crypto.Hasher, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		jwtSecret: secret,
		jwtExpiry: expiry,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Register creates a new account with a hashed credential.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.Identity, error) {
	if req.Username == "" || req.Password == "" || req.ConfirmPassword == "" {
		return model.Identity{}, ErrMissingRegistration
	}
	if req.Password != req.ConfirmPassword {
		return model.Identity{}, ErrPasswordMismatch
	}
	if utf8.RuneCountInString(req.Username) > MaxUsernameLength {
		return model.Identity{}, ErrUsernameTooLong
	}
	if utf8.RuneCountInString(req.Email) > MaxEmailLength {
		return model.Identity{}, ErrEmailTooLong
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.Identity{}, err
	}

	now := s.now()
	user := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		CreatedAt:    now,
		LastLogin:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return model.Identity{}, ErrUsernameTaken
		}
		return model.Identity{}, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return s.identity(user)
}

// Login checks the credential and records the login time.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.Identity, error) {
	if req.Username == "" || req.Password == "" {
		return model.Identity{}, ErrMissingCredentials
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.Identity{}, ErrUserNotFound
		}
		return model.Identity{}, err
	}

	if err := s.checkPassword(ctx, user, req.Password, ErrWrongPassword); err != nil {
		return model.Identity{}, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		return model.Identity{}, err
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, req.Password)
	}

	return s.identity(user)
}

// ChangePassword replaces the credential after checking the old password.
func (s *AuthService) ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error {
	if req.UserID == 0 || req.OldPassword == "" || req.NewPassword == "" {
		return ErrMissingPasswords
	}
	if utf8.RuneCountInString(req.NewPassword) < MinNewPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.users.GetByID(ctx, req.UserID.Int64())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.checkPassword(ctx, user, req.OldPassword, ErrWrongOldPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	slog.InfoContext(ctx, "password changed", "user_id", user.ID)
	return nil
}

// checkPassword returns mismatch when password does not match the stored
// credential. A credential that is not a recognized hash never matches.
func (s *AuthService) checkPassword(ctx context.Context, user *model.User, password string, mismatch error) error {
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		slog.WarnContext(ctx, "stored credential is not a valid hash", "user_id", user.ID, "error", err)
		return mismatch
	}
	if !ok {
		return mismatch
	}
	return nil
}

// rehash upgrades a legacy or outdated credential. Failure only costs the upgrade.
func (s *AuthService) rehash(ctx context.Context, userID int64, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePassword(ctx, userID, hash)
	}
	if err != nil {
		slog.WarnContext(ctx, "credential upgrade failed", "user_id", userID, "error", err)
		return
	}
	slog.InfoContext(ctx, "credential upgraded", "user_id", userID)
}

func (s *AuthService) identity(user *model.User) (model.Identity, error) {
	token, err := crypto.GenerateToken(user.ID, user.Username, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.Identity{}, err
	}

	return model.Identity{
		ID:       user.ID,
		Username: user.Username,
		Token:    token,
	}, nil
}
