// Package notify delivers low stock alerts to the configured recipient.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/invtrack/invtrack/internal/stock"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers notification messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes notifications to the structured log instead of
// delivering them. Used when no SMTP server is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("notification (log only)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body)
	return nil
}

// SMTPSender delivers notifications over plain SMTP.
type SMTPSender struct {
	Addr string // host:port
	From string
}

func (s SMTPSender) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(s.Addr, nil, s.From, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("sending mail via %s: %w", s.Addr, err)
	}
	return nil
}

// RenderDigest formats a low stock digest as a plain text message.
func RenderDigest(to string, digest stock.Digest) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%d item(s) are at or below their reorder level:\n\n", len(digest.Items))
	for _, item := range digest.Items {
		fmt.Fprintf(&b, "- %s: %d on hand (reorder at %d), supplier: %s\n",
			item.Name, item.Quantity, item.ReorderLevel, item.SupplierName)
	}
	fmt.Fprintf(&b, "\nTotal at-risk stock value: %.2f\n", digest.TotalAtRiskValue)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Low stock alert: %d item(s) need attention", len(digest.Items)),
		Body:    b.String(),
	}
}
