package mail

import (
	"context"
	"log/slog"
)

// LogMailer stands in when SMTP is unconfigured: it logs what would have
// been sent so development flows (reset links in particular) stay usable.
type LogMailer struct {
	Logger *slog.Logger
}

func (l *LogMailer) SendPasswordReset(ctx context.Context, to, username, resetLink string) error {
	l.Logger.Info("mock mail: password reset",
		"to", to,
		"username", username,
		"reset_link", resetLink,
	)
	return nil
}

func (l *LogMailer) SendWelcome(ctx context.Context, to, username string) error {
	l.Logger.Info("mock mail: welcome",
		"to", to,
		"username", username,
	)
	return nil
}
