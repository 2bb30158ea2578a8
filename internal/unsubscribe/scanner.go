// Package unsubscribe polls the outreach mailbox for opt-out replies and
// feeds them into the suppression list.
package unsubscribe

import (
	"context"
	"strings"
	"time"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	imap "github.com/BrianLeishman/go-imap"
)

// Suppressor adds an address to the suppression list.
type Suppressor interface {
	Suppress(ctx context.Context, email, reason string) error
}

// Scanner reads unseen inbox messages on an interval and suppresses any
// sender whose reply matches an opt-out keyword. Matching is a lowercase
// substring check over subject and body, which catches one-word replies
// like "remover" as well as full sentences.
type Scanner struct {
	cfg        config.IMAPConfig
	suppressor Suppressor
	log        *logger.Logger
	keywords   []string
}

// NewScanner builds the scanner. Keywords are normalized once.
func NewScanner(cfg config.IMAPConfig, suppressor Suppressor, log *logger.Logger) *Scanner {
	keywords := make([]string, 0, len(cfg.GetUnsubscribeKeywords()))
	for _, kw := range cfg.GetUnsubscribeKeywords() {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &Scanner{cfg: cfg, suppressor: suppressor, log: log, keywords: keywords}
}

// Run polls the mailbox until the context is cancelled. A failed scan is
// logged and retried on the next tick; the mailbox is a best-effort signal
// and must never take the dispatcher down with it.
func (s *Scanner) Run(ctx context.Context) error {
	if !s.cfg.IsIMAPEnabled() {
		s.log.Info("inbox scanner disabled, IMAP not configured")
		<-ctx.Done()
		return nil
	}

	interval := s.cfg.GetIMAPScanInterval()
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("inbox scanner started", "interval", interval.String())
	for {
		if err := s.scanOnce(ctx); err != nil {
			s.log.Warn("inbox scan failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scanner) scanOnce(ctx context.Context) error {
	dialer, err := imap.New(s.cfg.GetIMAPUsername(), s.cfg.GetIMAPPassword(), s.cfg.GetIMAPHost(), s.cfg.GetIMAPPort())
	if err != nil {
		return err
	}
	defer dialer.Close()

	if err := dialer.SelectFolder("INBOX"); err != nil {
		return err
	}

	uids, err := dialer.GetUIDs("UNSEEN")
	if err != nil {
		return err
	}
	if len(uids) == 0 {
		return nil
	}

	messages, err := dialer.GetEmails(uids...)
	if err != nil {
		return err
	}

	for uid, msg := range messages {
		if msg == nil {
			continue
		}

		if s.matches(msg.Subject, msg.Text) {
			for addr := range msg.From {
				addr = strings.ToLower(strings.TrimSpace(addr))
				if addr == "" {
					continue
				}
				if err := s.suppressor.Suppress(ctx, addr, "unsubscribe request"); err != nil {
					s.log.Warn("suppress from inbox reply failed", "email", addr, "error", err)
					continue
				}
				s.log.Info("unsubscribe request processed", "email", addr)
			}
		}

		// Seen either way so the next pass does not rescan it.
		if err := dialer.MarkSeen(uid); err != nil {
			s.log.Warn("mark seen failed", "uid", uid, "error", err)
		}
	}
	return nil
}

func (s *Scanner) matches(subject, body string) bool {
	haystack := strings.ToLower(subject + "\n" + body)
	for _, kw := range s.keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
