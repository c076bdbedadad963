package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"nexulsly-backend/config"

	"github.com/mrz1836/postmark"
)

// PostmarkSender sends through Postmark's transactional API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender requires both tokens so misconfiguration surfaces at startup.
func NewPostmarkSender(cfg *config.Config) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: Postmark server token is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: Postmark account token is required", ErrInvalidConfig)
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("%w: from address is required", ErrInvalidConfig)
	}

	from := mail.Address{Name: cfg.FromName, Address: cfg.FromEmail}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:   from.String(),
	}, nil
}

// Send implements Sender. All recipients share one API call.
func (p *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       p.from,
		To:         strings.Join(msg.To, ","),
		ReplyTo:    msg.ReplyTo,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTML,
		TextBody:   msg.Text,
		TrackOpens: false,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}
