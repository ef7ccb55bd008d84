// Package notify sends best-effort email notifications. Delivery is
// fire-and-forget from the caller's perspective: failures are logged and
// never propagate into the registration flow.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Notifier delivers a single message to a recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPNotifier delivers mail through a plain SMTP relay.
type SMTPNotifier struct {
	addr string
	from string
}

// NewSMTP constructs an SMTPNotifier for the given relay address and
// sender.
func NewSMTP(addr, from string) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from}
}

// Send delivers one message. The relay is expected to be an internal
// submission endpoint, so no authentication is attempted.
func (n *SMTPNotifier) Send(_ context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(n.addr, nil, n.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogNotifier records notifications in the log instead of delivering
// them. Used when SMTP is not configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLog constructs a LogNotifier.
func NewLog(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the would-be delivery and succeeds.
func (n *LogNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.logger.Info("notification (smtp disabled)",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
