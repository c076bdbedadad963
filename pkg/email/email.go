package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nexulsly-backend/pkg/validation"
)

var (
	ErrFailedToSendEmail = errors.New("email: failed to send")
	ErrInvalidConfig     = errors.New("email: invalid configuration")
	ErrInvalidMessage    = errors.New("email: invalid message")
)

// Sender delivers one message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a rendered email. The From address belongs to the sender.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string // plain text fallback
	Tag     string // optional, used for provider analytics and dev file names
}

// Validate checks the message before it reaches a transport.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", ErrInvalidMessage)
	}
	for _, to := range m.To {
		if !validation.IsEmail(to) {
			return fmt.Errorf("%w: recipient %q is not a valid email address", ErrInvalidMessage, to)
		}
	}
	if m.ReplyTo != "" && !validation.IsEmail(m.ReplyTo) {
		return fmt.Errorf("%w: reply-to %q is not a valid email address", ErrInvalidMessage, m.ReplyTo)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.HTML) == "" {
		return fmt.Errorf("%w: html body is required", ErrInvalidMessage)
	}
	return nil
}
