package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/smarttile/energyd/internal/energy/domain"
	"github.com/smarttile/energyd/internal/energy/mail"
	"github.com/smarttile/energyd/internal/energy/store"
	"github.com/smarttile/energyd/pkg/cryptox"
	"github.com/smarttile/energyd/pkg/idx"
	"github.com/smarttile/energyd/pkg/slogx"
)

// DefaultResetTokenTTL is how long an issued token stays redeemable.
const DefaultResetTokenTTL = 1 * time.Hour

// ResetService issues, validates, and consumes single-use password reset
// tokens. A token flips unused -> used at most once; used and expired
// tokens are permanently inert but kept for audit.
type ResetService struct {
	Store store.Store

	// Mailer delivers reset links best-effort. nil disables delivery
	// entirely; delivery failure never fails Issue.
	Mailer mail.Mailer

	// BaseURL is the public origin reset links are built against.
	BaseURL string

	// TTL overrides DefaultResetTokenTTL when positive.
	TTL time.Duration
}

func (s *ResetService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultResetTokenTTL
}

// Issue creates a reset token for email and hands it to the delivery
// layer. The caller-visible outcome is identical whether or not the email
// belongs to an account, so the endpoint cannot be used to enumerate
// registered addresses. Only a storage fault is reported.
func (s *ResetService) Issue(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		// Malformed input can't match an account; same silent outcome.
		return nil
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("reset requested for unknown email")
			return nil
		}
		return err
	}

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	token := domain.ResetToken{
		ID:        idx.New().String(),
		Email:     user.Email,
		Token:     raw,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
		Used:      false,
	}

	if err := s.Store.ResetTokens().CreateResetToken(ctx, token); err != nil {
		return err
	}

	log.Info("reset token issued",
		slog.String("token_id", token.ID),
		slog.Time("expires_at", token.ExpiresAt),
	)

	if s.Mailer != nil {
		link := s.BaseURL + "/reset-password?token=" + raw
		if err := s.Mailer.SendPasswordReset(ctx, user.Email, user.Username, link); err != nil {
			// Best effort only; the token is already valid.
			log.Warn("reset mail delivery failed", slog.Any("error", err))
		}
	}

	return nil
}

// Validate checks a token without mutating it, so a reset form can be
// shown before the user commits to a new password.
func (s *ResetService) Validate(ctx context.Context, token string) (domain.ResetToken, error) {
	t, err := s.Store.ResetTokens().GetResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ResetToken{}, ErrTokenNotFound
		}
		return domain.ResetToken{}, err
	}

	if t.Used {
		return domain.ResetToken{}, ErrTokenUsed
	}
	if t.Expired(time.Now().UTC()) {
		return domain.ResetToken{}, ErrTokenExpired
	}

	return t, nil
}

// Consume redeems a token: the password update and the used flag land in
// one transaction. Of two concurrent consumers of the same token exactly
// one commits; the other observes ErrTokenUsed.
func (s *ResetService) Consume(ctx context.Context, token, newPassword string) error {
	log := slogx.FromContext(ctx)

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	// Hashing is deliberately slow; keep it outside the transaction.
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		t, err := tx.ResetTokens().GetResetToken(ctx, token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenNotFound
			}
			return err
		}
		if t.Used {
			return ErrTokenUsed
		}
		if t.Expired(time.Now().UTC()) {
			return ErrTokenExpired
		}

		user, err := tx.Users().GetUserByEmail(ctx, t.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Token survived its account; nothing to reset.
				return ErrTokenNotFound
			}
			return err
		}

		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return err
		}

		// The conditional update is the serialization point: a racing
		// consumer that already flipped the flag leaves no row to match.
		if err := tx.ResetTokens().MarkUsed(ctx, t.Token); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenUsed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("reset token consumed")
	return nil
}
