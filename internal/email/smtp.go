package email

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"outreach_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers via a direct SMTP connection using go-mail, for
// operators running their own relay instead of the Resend API.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates an SMTPSender from configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

// Send implements Sender. The returned message ID is generated locally since
// SMTP has no provider-assigned ID to hand back.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(s.fromName, s.fromEmail); err != nil {
		return "", &SendError{Err: fmt.Errorf("smtp from: %w", err)}
	}
	if err := m.To(msg.To); err != nil {
		return "", &SendError{Err: fmt.Errorf("smtp to: %w", err)}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	for key, value := range msg.Headers {
		m.SetGenHeader(gomail.Header(key), value)
	}
	m.SetMessageID()

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return "", &SendError{Err: fmt.Errorf("smtp client: %w", err)}
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", &SendError{Transient: true, Err: fmt.Errorf("smtp send: %w", err)}
	}

	var messageID string
	if values := m.GetGenHeader(gomail.HeaderMessageID); len(values) > 0 {
		messageID = strings.Trim(values[0], "<>")
	}
	return messageID, nil
}
