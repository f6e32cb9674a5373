package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailNotifier sends alerts over SMTP with media attached.
type EmailNotifier struct {
	cfg    EmailConfig
	sender mailSender
}

// NewEmailNotifier creates an SMTP client for cfg.
func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("email notifier misconfigured: missing SMTP credentials")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if len(cfg.To) == 0 {
		cfg.To = []string{cfg.From}
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("creating SMTP client: %w", err)
	}
	return &EmailNotifier{cfg: cfg, sender: client}, nil
}

// Notify sends one alert email.
func (e *EmailNotifier) Notify(ctx context.Context, a Alert) error {
	msg, err := e.buildMessage(a)
	if err != nil {
		return err
	}
	if err := e.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending alert email: %w", err)
	}
	return nil
}

func (e *EmailNotifier) buildMessage(a Alert) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(e.cfg.From); err != nil {
		return nil, fmt.Errorf("setting sender: %w", err)
	}
	if err := m.To(e.cfg.To...); err != nil {
		return nil, fmt.Errorf("setting recipients: %w", err)
	}
	m.Subject(Subject(a))
	m.SetMessageIDWithValue(uuid.NewString() + "@adwatch")
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, TextBody(a))

	html, err := HTMLBody(a)
	if err != nil {
		return nil, err
	}
	m.AddAlternativeString(mail.TypeTextHTML, html)

	for _, path := range a.Attachments {
		m.AttachFile(path)
	}
	return m, nil
}
