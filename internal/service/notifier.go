package service

import (
	"context"
	"log/slog"
)

// Notification is a fully rendered mail ready for dispatch. The body carries
// the delivery link with the raw token; nothing here is persisted.
type Notification struct {
	To       string
	Subject  string
	HTMLBody string
}

// NotificationGateway delivers one-time token mails. Injected into the token
// engine at construction so tests can substitute a capture double.
type NotificationGateway interface {
	Send(ctx context.Context, n Notification) error
}

// DevNotificationGateway logs the rendered mail instead of sending it. Used
// whenever SMTP is not configured.
type DevNotificationGateway struct {
	logger *slog.Logger
}

func NewDevNotificationGateway(logger *slog.Logger) *DevNotificationGateway {
	return &DevNotificationGateway{logger: logger}
}

func (g *DevNotificationGateway) Send(ctx context.Context, n Notification) error {
	g.logger.InfoContext(ctx, "notification dispatched",
		"to", n.To,
		"subject", n.Subject,
		"body", n.HTMLBody,
	)
	return nil
}
