package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssue(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st}
	mailer := &captureMailer{}
	svc := &ResetService{Store: st, Mailer: mailer, BaseURL: "http://localhost"}

	registerTestUser(t, users, "alice", "a@x.com", "secret1")

	t.Run("issues a token and mails the link", func(t *testing.T) {
		require.NoError(t, svc.Issue(ctx, "a@x.com"))
		require.Len(t, mailer.resetLinks, 1)
		require.Contains(t, mailer.resetLinks[0], "http://localhost/reset-password?token=")
	})

	t.Run("unknown email is silently ignored", func(t *testing.T) {
		require.NoError(t, svc.Issue(ctx, "nobody@x.com"))
		require.Len(t, mailer.resetLinks, 1)
	})

	t.Run("malformed email is silently ignored", func(t *testing.T) {
		require.NoError(t, svc.Issue(ctx, "not-an-email"))
		require.Len(t, mailer.resetLinks, 1)
	})

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		require.NoError(t, svc.Issue(ctx, "A@X.COM"))
		require.Len(t, mailer.resetLinks, 2)
	})

	t.Run("mail failure does not fail the issue", func(t *testing.T) {
		failing := &ResetService{Store: st, Mailer: nil, BaseURL: "http://localhost"}
		require.NoError(t, failing.Issue(ctx, "a@x.com"))
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st}
	mailer := &captureMailer{}
	svc := &ResetService{Store: st, Mailer: mailer, BaseURL: "http://localhost"}

	registerTestUser(t, users, "alice", "a@x.com", "secret1")

	t.Run("accepts a fresh token", func(t *testing.T) {
		require.NoError(t, svc.Issue(ctx, "a@x.com"))
		tok, err := svc.Validate(ctx, mailer.lastToken(t))
		require.NoError(t, err)
		require.Equal(t, "a@x.com", tok.Email)
		require.False(t, tok.Used)
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		_, err := svc.Validate(ctx, "no-such-token")
		require.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		short := &ResetService{Store: st, Mailer: mailer, BaseURL: "http://localhost", TTL: time.Millisecond}
		require.NoError(t, short.Issue(ctx, "a@x.com"))
		token := mailer.lastToken(t)

		time.Sleep(5 * time.Millisecond)
		_, err := svc.Validate(ctx, token)
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("rejects a spent token", func(t *testing.T) {
		require.NoError(t, svc.Issue(ctx, "a@x.com"))
		token := mailer.lastToken(t)

		require.NoError(t, svc.Consume(ctx, token, "validpass8"))
		_, err := svc.Validate(ctx, token)
		require.ErrorIs(t, err, ErrTokenUsed)
	})

	t.Run("does not mutate the token", func(t *testing.T) {
		require.NoError(t, svc.Issue(ctx, "a@x.com"))
		token := mailer.lastToken(t)

		_, err := svc.Validate(ctx, token)
		require.NoError(t, err)
		_, err = svc.Validate(ctx, token)
		require.NoError(t, err)
	})
}

func TestConsume(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st}
	mailer := &captureMailer{}
	svc := &ResetService{Store: st, Mailer: mailer, BaseURL: "http://localhost"}

	registerTestUser(t, users, "alice", "a@x.com", "secret1")

	t.Run("resets the password exactly once", func(t *testing.T) {
		require.NoError(t, svc.Issue(ctx, "a@x.com"))
		token := mailer.lastToken(t)

		require.NoError(t, svc.Consume(ctx, token, "newsecret2"))

		_, err := users.Authenticate(ctx, "alice", "secret1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = users.Authenticate(ctx, "alice", "newsecret2")
		require.NoError(t, err)

		// The token is spent; a second consume must not change anything.
		require.ErrorIs(t, svc.Consume(ctx, token, "thirdsecret3"), ErrTokenUsed)
		_, err = users.Authenticate(ctx, "alice", "newsecret2")
		require.NoError(t, err)
	})

	t.Run("validates the new password before touching the token", func(t *testing.T) {
		require.NoError(t, svc.Issue(ctx, "a@x.com"))
		token := mailer.lastToken(t)

		require.ErrorIs(t, svc.Consume(ctx, token, "abc"), ErrInvalidInput)

		// The failed attempt must not have spent the token.
		_, err := svc.Validate(ctx, token)
		require.NoError(t, err)
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		err := svc.Consume(ctx, "no-such-token", "newsecret2")
		require.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("expired token cannot be consumed", func(t *testing.T) {
		short := &ResetService{Store: st, Mailer: mailer, BaseURL: "http://localhost", TTL: time.Millisecond}
		require.NoError(t, short.Issue(ctx, "a@x.com"))
		token := mailer.lastToken(t)

		time.Sleep(5 * time.Millisecond)
		require.ErrorIs(t, svc.Consume(ctx, token, "newsecret2"), ErrTokenExpired)
	})

	t.Run("concurrent consumers race to a single winner", func(t *testing.T) {
		require.NoError(t, svc.Issue(ctx, "a@x.com"))
		token := mailer.lastToken(t)

		const attempts = 8
		errs := make([]error, attempts)
		var wg sync.WaitGroup
		for i := range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = svc.Consume(ctx, token, "racedsecret9")
			}()
		}
		wg.Wait()

		var wins int
		for _, err := range errs {
			if err == nil {
				wins++
			} else {
				require.ErrorIs(t, err, ErrTokenUsed)
			}
		}
		require.Equal(t, 1, wins)
	})
}
