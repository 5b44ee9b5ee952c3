// Package mail is the outbound notification boundary. Delivery is best-effort
// from the core's perspective: the send methods return nothing and failures
// are logged, never surfaced as operation failures.
package mail

import (
	"context"
	"log/slog"
)

// Notifier delivers the account-lifecycle emails. Each method receives the
// raw token so the message can embed an action link.
type Notifier interface {
	SendConfirmation(ctx context.Context, address, token string)
	SendPasswordReset(ctx context.Context, address, token string)
	SendUnlock(ctx context.Context, address, token string)
	SendRevertNotice(ctx context.Context, address, token string)
	SendChangeConfirmation(ctx context.Context, address, token string)
}

// LogNotifier writes the action links to the structured log instead of
// sending real mail. It is the default until an SMTP relay is configured.
type LogNotifier struct {
	log     *slog.Logger
	baseURL string
}

func NewLogNotifier(log *slog.Logger, baseURL string) *LogNotifier {
	return &LogNotifier{log: log, baseURL: baseURL}
}

func (n *LogNotifier) send(ctx context.Context, kind, path, address, token string) {
	n.log.InfoContext(ctx, "outbound email",
		"kind", kind,
		"to", address,
		"link", n.baseURL+path+"?token="+token,
	)
}

func (n *LogNotifier) SendConfirmation(ctx context.Context, address, token string) {
	n.send(ctx, "confirmation", "/auth/confirm-email", address, token)
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, address, token string) {
	n.send(ctx, "password-reset", "/auth/reset-password", address, token)
}

func (n *LogNotifier) SendUnlock(ctx context.Context, address, token string) {
	n.send(ctx, "unlock", "/auth/unlock-account", address, token)
}

func (n *LogNotifier) SendRevertNotice(ctx context.Context, address, token string) {
	n.send(ctx, "revert-notice", "/auth/revert-email", address, token)
}

func (n *LogNotifier) SendChangeConfirmation(ctx context.Context, address, token string) {
	n.send(ctx, "change-confirmation", "/auth/confirm-email-update", address, token)
}
