package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeepingSweep(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st}
	mailer := &captureMailer{}
	reset := &ResetService{Store: st, Mailer: mailer, BaseURL: "http://localhost"}

	registerTestUser(t, users, "alice", "a@x.com", "secret1")

	// One token already past retention, one still fresh.
	short := &ResetService{Store: st, Mailer: mailer, BaseURL: "http://localhost", TTL: time.Millisecond}
	require.NoError(t, short.Issue(ctx, "a@x.com"))
	stale := mailer.lastToken(t)

	require.NoError(t, reset.Issue(ctx, "a@x.com"))
	fresh := mailer.lastToken(t)

	time.Sleep(5 * time.Millisecond)

	hk := NewHousekeepingService(st, slog.Default(), time.Hour, time.Nanosecond)
	hk.sweep()

	_, err := reset.Validate(ctx, stale)
	require.ErrorIs(t, err, ErrTokenNotFound)

	_, err = reset.Validate(ctx, fresh)
	require.NoError(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	st := newTestStore(t)

	hk := NewHousekeepingService(st, slog.Default(), 10*time.Millisecond, time.Hour)
	hk.Start()
	time.Sleep(25 * time.Millisecond)
	hk.Stop()
}
