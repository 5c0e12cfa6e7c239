// Package notify fans out share notifications for tweets. Delivery is a
// stubbed email: the sender renders the message to the log.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Notification describes one share-notification email.
type Notification struct {
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`
	AuthorName     string `json:"author_name"`
	Content        string `json:"content"`
}

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notification "emails" to the log instead of an SMTP
// gateway.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.log.Info().
		Str("to", n.RecipientEmail).
		Str("recipient", n.RecipientName).
		Str("author", n.AuthorName).
		Str("content", n.Content).
		Msg("email: tweet shared with you")
	return nil
}
