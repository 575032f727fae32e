package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/jwalitptl/transplant-api/internal/config"
)

// Service sends transplant coordination mail to recipients and care teams.
type Service interface {
	SendAllocationOffer(ctx context.Context, to, recipientName, organType string, deadline string) error
	SendAllocationOutcome(ctx context.Context, to, recipientName, organType, outcome string) error
	SendSurgeryScheduled(ctx context.Context, to, recipientName, organType, scheduledAt string) error
	SendCustom(ctx context.Context, to, subject, body string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendAllocationOffer(ctx context.Context, to, recipientName, organType, deadline string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nA %s has been offered to you. Your care team must respond before %s.\n\nPlease contact your transplant coordinator immediately.",
		recipientName, organType, deadline,
	)
	return s.send(ctx, to, "Organ offer: response required", body)
}

func (s *smtpService) SendAllocationOutcome(ctx context.Context, to, recipientName, organType, outcome string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nThe offer for a %s has been %s. Your waitlist standing is unchanged.\n\nYour transplant coordinator will follow up with next steps.",
		recipientName, organType, outcome,
	)
	return s.send(ctx, to, "Organ offer update", body)
}

func (s *smtpService) SendSurgeryScheduled(ctx context.Context, to, recipientName, organType, scheduledAt string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour %s transplant surgery has been scheduled for %s.\n\nPre-operative instructions will follow from your care team.",
		recipientName, organType, scheduledAt,
	)
	return s.send(ctx, to, "Transplant surgery scheduled", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopService discards all mail. Used when SMTP is not configured.
type NoopService struct{}

func (NoopService) SendAllocationOffer(context.Context, string, string, string, string) error {
	return nil
}
func (NoopService) SendAllocationOutcome(context.Context, string, string, string, string) error {
	return nil
}
func (NoopService) SendSurgeryScheduled(context.Context, string, string, string, string) error {
	return nil
}
func (NoopService) SendCustom(context.Context, string, string, string) error { return nil }
