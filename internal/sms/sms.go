package sms

import (
	"context"
	"errors"
	"log/slog"
)

// ErrTransport indicates the SMS could not be dispatched. The provider is an
// unreliable external collaborator; callers roll back any state that depends
// on delivery.
var ErrTransport = errors.New("sms transport failure")

// Sender delivers text messages to phone numbers.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// LoggerSender is a stub implementation that writes messages to the logger.
// Used in development when no SMS provider is configured.
type LoggerSender struct {
	logger *slog.Logger
}

// NewLoggerSender constructs a logging sender stub.
func NewLoggerSender(logger *slog.Logger) *LoggerSender {
	return &LoggerSender{logger: logger}
}

// Send writes the message to the structured logger.
func (s *LoggerSender) Send(_ context.Context, to, body string) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("sms", "to", to, "body", body)
	return nil
}
