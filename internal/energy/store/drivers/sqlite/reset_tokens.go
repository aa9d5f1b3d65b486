package sqlite

import (
	"context"
	"time"

	"github.com/smarttile/energyd/internal/energy/domain"
	"github.com/smarttile/energyd/internal/energy/store"
)

type resetTokensRepo struct {
	q dbtx
}

func (r *resetTokensRepo) CreateResetToken(ctx context.Context, t domain.ResetToken) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (id, email, token, created_at, expires_at, used)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Email, t.Token, t.CreatedAt, t.ExpiresAt, t.Used)
	return mapConstraint(err)
}

func (r *resetTokensRepo) GetResetToken(ctx context.Context, token string) (domain.ResetToken, error) {
	var t domain.ResetToken
	err := r.q.QueryRowContext(ctx,
		`SELECT id, email, token, created_at, expires_at, used
		 FROM password_reset_tokens WHERE token = ?`, token,
	).Scan(&t.ID, &t.Email, &t.Token, &t.CreatedAt, &t.ExpiresAt, &t.Used)
	if err != nil {
		return domain.ResetToken{}, mapNotFound(err)
	}
	return t, nil
}

// MarkUsed only matches rows still unused: of N concurrent callers exactly
// one sees a row update, the rest get ErrNotFound.
func (r *resetTokensRepo) MarkUsed(ctx context.Context, token string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = 1 WHERE token = ? AND used = 0`,
		token)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *resetTokensRepo) DeleteTokensByEmail(ctx context.Context, email string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE email = ?`, email)
	return err
}

func (r *resetTokensRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
