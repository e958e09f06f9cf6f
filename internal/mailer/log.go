package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport writes messages to the log instead of delivering them.
// Used in development and when no mail provider is configured.
type LogTransport struct {
	log *zap.Logger
}

func NewLogTransport(log *zap.Logger) *LogTransport {
	return &LogTransport{log: log.Named("mailer")}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.log.Info("--- SIMULATING EMAIL SEND ---",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", string(msg.Template)),
		zap.String("body", msg.Text))
	return nil
}
