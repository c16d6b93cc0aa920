package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

const sendTimeout = 10 * time.Second

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sender is the part of *mail.Client the mailer uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type smtpMailer struct {
	from   string
	client sender
	log    *logrus.Logger
}

// NewSMTPMailer delivers over SMTP, upgrading to TLS when the server offers
// STARTTLS. PLAIN auth is used only when a username is configured.
func NewSMTPMailer(cfg SMTPConfig, logger *logrus.Logger) (Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(sendTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		logger.Errorf("Mailer: Invalid SMTP configuration for %s:%d: %v", cfg.Host, cfg.Port, err)
		return nil, fmt.Errorf("could not configure smtp client: %w", err)
	}
	return &smtpMailer{from: cfg.From, client: client, log: logger}, nil
}

func (m *smtpMailer) newMessage(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", m.from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	msg, err := m.newMessage(to, subject, body)
	if err != nil {
		m.log.Warnf("Mailer: Refusing to send '%s': %v", subject, err)
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.log.Errorf("Mailer: Failed to send '%s' to %s: %v", subject, to, err)
		return fmt.Errorf("could not send mail: %w", err)
	}
	m.log.Infof("Mailer: Sent '%s' to %s", subject, to)
	return nil
}

type logMailer struct {
	log *logrus.Logger
}

// NewLogMailer logs mail instead of delivering it. Used when no SMTP host is
// configured.
func NewLogMailer(logger *logrus.Logger) Mailer {
	return &logMailer{log: logger}
}

func (m *logMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    body,
	}).Info("Mailer: Mail delivery disabled, logging message")
	return nil
}
