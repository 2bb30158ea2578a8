// Package email delivers outbound messages through a pluggable provider.
// Provider errors are classified transient-vs-terminal so the dispatch
// retry policy can decide what is worth retrying.
package email

import (
	"context"
	"errors"
	"fmt"
	"net"

	"outreach_backend/platform/config"
)

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	// Headers carries extra RFC 5322 headers, e.g. List-Unsubscribe.
	Headers map[string]string
}

// Sender is the outbound provider interface. On success it returns the
// provider's message ID for the send-attempt record.
type Sender interface {
	Send(ctx context.Context, msg Message) (providerMessageID string, err error)
}

// SendError is a classified provider failure.
type SendError struct {
	StatusCode int
	Transient  bool
	Err        error
}

func (e *SendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("send failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("send failed: %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// IsTransient reports whether the error is worth retrying. Unclassified
// network failures and timeouts count as transient; anything else the
// provider rejected outright is terminal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// NoopSender accepts every message without delivering anything. Used when
// email is disabled, e.g. in development.
type NoopSender struct{}

// Send implements Sender.
func (NoopSender) Send(ctx context.Context, msg Message) (string, error) {
	return "noop", nil
}

// NewSender builds the configured provider.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	switch cfg.GetEmailProvider() {
	case "resend":
		return NewResendSender(cfg), nil
	case "smtp":
		return NewSMTPSender(cfg), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}
