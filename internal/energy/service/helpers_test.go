package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/smarttile/energyd/internal/energy/domain"
	"github.com/smarttile/energyd/internal/energy/store/drivers/sqlite"
	"github.com/smarttile/energyd/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	cryptox.SetPepperPath(t.TempDir() + "/pepper")

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

// captureMailer records outbound mail so tests can fish the reset token
// out of the link instead of poking at storage internals.
type captureMailer struct {
	resetLinks []string
	welcomes   []string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, _, resetLink string) error {
	m.resetLinks = append(m.resetLinks, resetLink)
	return nil
}

func (m *captureMailer) SendWelcome(_ context.Context, to, _ string) error {
	m.welcomes = append(m.welcomes, to)
	return nil
}

// lastToken extracts the raw token from the most recent reset link.
func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.resetLinks)

	link := m.resetLinks[len(m.resetLinks)-1]
	u, err := url.Parse(link)
	require.NoError(t, err)

	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func registerTestUser(
	t *testing.T,
	svc *UserService,
	username, email, password string,
) domain.User {
	t.Helper()

	user, err := svc.Register(context.Background(), username, email, password)
	require.NoError(t, err)
	return user
}
