package email

import (
	"fmt"

	"nexulsly-backend/config"
)

// NewSender builds the transport selected by MAIL_DRIVER.
func NewSender(cfg *config.Config) (Sender, error) {
	switch cfg.MailDriver {
	case config.MailDriverSMTP, "":
		s, err := NewSMTPSender(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.MailDriverPostmark:
		s, err := NewPostmarkSender(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.MailDriverDev:
		return NewDevSender(cfg.MailDevDir), nil
	default:
		return nil, fmt.Errorf("%w: unknown mail driver %q", ErrInvalidConfig, cfg.MailDriver)
	}
}
