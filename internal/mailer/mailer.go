// Package mailer renders and delivers transactional email.
package mailer

import (
	"context"
	"fmt"

	"taskboard/backend/pkg/config"

	"go.uber.org/zap"
)

// Message is a rendered email ready for a Transport.
type Message struct {
	To       string
	Subject  string
	HTML     string
	Text     string
	Template Template
}

// Transport delivers a single message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// NewTransport builds the transport selected by cfg.Transport.
func NewTransport(ctx context.Context, cfg config.MailConfig, log *zap.Logger) (Transport, error) {
	switch cfg.Transport {
	case config.MailTransportSES:
		return NewSESTransport(ctx, cfg.AWSRegion, cfg.From)
	case config.MailTransportSMTP:
		return NewSMTPTransport(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
		})
	case config.MailTransportLog, "":
		return NewLogTransport(log), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}
