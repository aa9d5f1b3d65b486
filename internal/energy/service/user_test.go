package service

import (
	"context"
	"testing"

	"github.com/smarttile/energyd/internal/energy/store"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := &UserService{Store: newTestStore(t)}

	t.Run("creates an account with a hashed password", func(t *testing.T) {
		user, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
		require.NoError(t, err)
		require.NotEmpty(t, user.ID)
		require.Equal(t, "alice", user.Username)
		require.Equal(t, "a@x.com", user.Email)
		require.NotEqual(t, "secret1", user.PasswordHash)
		require.Contains(t, user.PasswordHash, "$argon2id$")
	})

	t.Run("rejects a duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice", "other@x.com", "secret1")
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("rejects a duplicate email regardless of case", func(t *testing.T) {
		_, err := svc.Register(ctx, "someone", "A@X.COM", "secret1")
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("rejects short usernames", func(t *testing.T) {
		_, err := svc.Register(ctx, "ab", "ab@x.com", "secret1")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects malformed emails", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob", "not-an-email", "secret1")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob", "bob@x.com", "abc")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects low entropy passwords", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob", "bob@x.com", "aaaaaaaa")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := &UserService{Store: newTestStore(t)}
	registerTestUser(t, svc, "alice", "a@x.com", "secret1")

	t.Run("accepts username and password", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "alice", "secret1")
		require.NoError(t, err)
		require.Equal(t, "alice", user.Username)
		require.NotNil(t, user.LastLogin)
	})

	t.Run("accepts email as identifier", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "A@x.com", "secret1")
		require.NoError(t, err)
		require.Equal(t, "alice", user.Username)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "alice", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown identifier looks like wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", "secret1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects empty credentials", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := &UserService{Store: newTestStore(t)}
	alice := registerTestUser(t, svc, "alice", "a@x.com", "secret1")
	registerTestUser(t, svc, "bob", "b@x.com", "secret1")

	t.Run("changes username and email", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, alice.ID, "alice2", "a2@x.com")
		require.NoError(t, err)
		require.Equal(t, "alice2", updated.Username)
		require.Equal(t, "a2@x.com", updated.Email)

		fetched, err := svc.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice2", fetched.Username)
	})

	t.Run("re-saving current values is not a conflict", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, alice.ID, "alice2", "a2@x.com")
		require.NoError(t, err)
	})

	t.Run("rejects another user's username", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, alice.ID, "bob", "a2@x.com")
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("rejects another user's email", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, alice.ID, "alice2", "b@x.com")
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("invalidates reset tokens issued to the old email", func(t *testing.T) {
		st := newTestStore(t)
		users := &UserService{Store: st}
		mailer := &captureMailer{}
		reset := &ResetService{Store: st, Mailer: mailer, BaseURL: "http://localhost"}

		carol := registerTestUser(t, users, "carol", "c@x.com", "secret1")
		require.NoError(t, reset.Issue(ctx, "c@x.com"))
		token := mailer.lastToken(t)

		_, err := users.UpdateProfile(ctx, carol.ID, "carol", "c-new@x.com")
		require.NoError(t, err)

		_, err = reset.Validate(ctx, token)
		require.ErrorIs(t, err, ErrTokenNotFound)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := &UserService{Store: newTestStore(t)}
	alice := registerTestUser(t, svc, "alice", "a@x.com", "secret1")

	t.Run("requires the current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, alice.ID, "wrong", "newsecret2")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("validates the new password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, alice.ID, "secret1", "abc")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("installs the new password", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, alice.ID, "secret1", "newsecret2"))

		_, err := svc.Authenticate(ctx, "alice", "secret1")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(ctx, "alice", "newsecret2")
		require.NoError(t, err)
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st}
	ledger := &LedgerService{Store: st}
	mailer := &captureMailer{}
	reset := &ResetService{Store: st, Mailer: mailer, BaseURL: "http://localhost"}

	alice := registerTestUser(t, users, "alice", "a@x.com", "secret1")
	_, err := ledger.Append(ctx, alice.ID, 600, 0.003)
	require.NoError(t, err)
	require.NoError(t, reset.Issue(ctx, "a@x.com"))
	token := mailer.lastToken(t)

	t.Run("requires the password", func(t *testing.T) {
		err := users.DeleteAccount(ctx, alice.ID, "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("removes the user, ledger, and reset tokens", func(t *testing.T) {
		require.NoError(t, users.DeleteAccount(ctx, alice.ID, "secret1"))

		_, err := users.GetByID(ctx, alice.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		events, err := ledger.Recent(ctx, alice.ID, 10)
		require.NoError(t, err)
		require.Empty(t, events)

		_, err = reset.Validate(ctx, token)
		require.ErrorIs(t, err, ErrTokenNotFound)
	})
}
