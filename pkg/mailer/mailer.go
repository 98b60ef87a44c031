// Package mailer sends transactional email such as waitlist promotion notices.
package mailer

import (
	"context"
	"net/mail"

	"go.uber.org/zap"
)

// Message is a single outbound email.
type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer is used when MAIL_ENABLED is false.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email suppressed",
		zap.String("to", msg.To.Address),
		zap.String("subject", msg.Subject),
	)
	return nil
}
