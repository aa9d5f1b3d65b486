package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smarttile/energyd/internal/energy/domain"
	"github.com/smarttile/energyd/internal/energy/store"
	"github.com/smarttile/energyd/pkg/cryptox"
	"github.com/smarttile/energyd/pkg/idx"
	"github.com/smarttile/energyd/pkg/slogx"
	passwordvalidator "github.com/wagslane/go-password-validator"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6

	// passwordMinEntropyBits keeps "aaaaaa" style passwords out without
	// getting in the way of normal passphrases.
	passwordMinEntropyBits = 30
)

// UserService owns identity records: registration, authentication, profile
// changes, and account deletion. Every uniqueness check runs inside a
// transaction so concurrent writers on the same username/email cannot both
// win.
type UserService struct {
	Store store.Store
}

// Register creates a new account. The plaintext password is hashed before
// anything touches the store; only the hash is persisted.
func (s *UserService) Register(
	ctx context.Context,
	username, email, password string,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if err := validateUsername(username); err != nil {
		return domain.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return domain.User{}, err
	}
	if err := validatePassword(password); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := checkAvailable(ctx, tx, user.ID, username, email); err != nil {
			return err
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	log.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Authenticate verifies a username-or-email identifier against a password.
// Unknown identifiers and wrong passwords return the same error so callers
// cannot probe which accounts exist. On success, last_login is bumped.
func (s *UserService) Authenticate(
	ctx context.Context,
	identifier, password string,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.lookupIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		log.Error("failed to look up user", slog.Any("error", err))
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Warn("authentication failed", slog.String("user_id", user.ID))
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	now := time.Now().UTC()
	if err := s.Store.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Error("failed to update last_login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return domain.User{}, err
	}
	user.LastLogin = &now

	log.Debug("user authenticated", slog.String("user_id", user.ID))
	return user, nil
}

// GetByID fetches a user by id.
func (s *UserService) GetByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// UpdateProfile changes username and email. Colliding with another user is
// ErrConflict; keeping one's own current values is fine.
func (s *UserService) UpdateProfile(
	ctx context.Context,
	userID, newUsername, newEmail string,
) (domain.User, error) {
	newUsername = strings.TrimSpace(newUsername)
	newEmail = normalizeEmail(newEmail)

	if err := validateUsername(newUsername); err != nil {
		return domain.User{}, err
	}
	if err := validateEmail(newEmail); err != nil {
		return domain.User{}, err
	}

	var updated domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := checkAvailable(ctx, tx, userID, newUsername, newEmail); err != nil {
			return err
		}
		if err := tx.Users().UpdateProfile(ctx, userID, newUsername, newEmail); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrConflict
			}
			return err
		}

		// Reset tokens are keyed by email; keep them reachable after a
		// profile change.
		if current.Email != newEmail {
			if err := tx.ResetTokens().DeleteTokensByEmail(ctx, current.Email); err != nil {
				return err
			}
		}

		updated = current
		updated.Username = newUsername
		updated.Email = newEmail
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	return updated, nil
}

// ChangePassword verifies the current password before installing the new.
func (s *UserService) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}

// DeleteAccount removes the user and everything keyed to it: reset tokens
// for its email and the whole energy ledger, in one transaction so no
// partial deletion is ever observable.
func (s *UserService) DeleteAccount(ctx context.Context, userID, password string) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.EnergyEvents().ClearUser(ctx, userID); err != nil {
			return err
		}
		if err := tx.ResetTokens().DeleteTokensByEmail(ctx, user.Email); err != nil {
			return err
		}
		return tx.Users().DeleteUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	log.Info("account deleted", slog.String("user_id", userID))
	return nil
}

// lookupIdentifier resolves a login identifier: emails match the stored
// lowercased column, anything else is tried as a username.
func (s *UserService) lookupIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	if strings.Contains(identifier, "@") {
		return s.Store.Users().GetUserByEmail(ctx, strings.ToLower(identifier))
	}
	return s.Store.Users().GetUserByUsername(ctx, identifier)
}

// checkAvailable ensures username and email are free, ignoring matches on
// selfID so a user can re-save their own profile.
func checkAvailable(ctx context.Context, tx store.Tx, selfID, username, email string) error {
	if other, err := tx.Users().GetUserByUsername(ctx, username); err == nil {
		if other.ID != selfID {
			return ErrConflict
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if other, err := tx.Users().GetUserByEmail(ctx, email); err == nil {
		if other.ID != selfID {
			return ErrConflict
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength {
		return fmt.Errorf("%w: username must be at least %d characters",
			ErrInvalidInput, minUsernameLength)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email address is malformed", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters",
			ErrInvalidInput, minPasswordLength)
	}
	if err := passwordvalidator.Validate(password, passwordMinEntropyBits); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return nil
}
