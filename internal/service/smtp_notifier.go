package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Maulana-anjari/account-service/internal/security"
)

// SMTPNotificationGateway sends mail through a plain-auth SMTP relay.
type SMTPNotificationGateway struct {
	addr   string
	from   string
	domain string
	auth   smtp.Auth
}

func NewSMTPNotificationGateway(host, port, username, password, from string) *SMTPNotificationGateway {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	domain := host
	if i := strings.LastIndex(from, "@"); i >= 0 && i+1 < len(from) {
		domain = from[i+1:]
	}
	return &SMTPNotificationGateway{
		addr:   host + ":" + port,
		from:   from,
		domain: domain,
		auth:   auth,
	}
}

func (g *SMTPNotificationGateway) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := g.buildMessage(n)
	if err != nil {
		return fmt.Errorf("smtp render: %w", err)
	}
	if err := smtp.SendMail(g.addr, g.auth, g.from, []string{n.To}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (g *SMTPNotificationGateway) buildMessage(n Notification) ([]byte, error) {
	// Some relays drop mail without a Message-ID.
	id, err := security.NewRandomString(16)
	if err != nil {
		return nil, err
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", g.from)
	fmt.Fprintf(&msg, "To: %s\r\n", n.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", n.Subject)
	fmt.Fprintf(&msg, "Message-ID: <%s@%s>\r\n", id, g.domain)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(n.HTMLBody)
	msg.WriteString("\r\n")
	return []byte(msg.String()), nil
}
