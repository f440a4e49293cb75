// Package notify delivers capture results to a principal's notification
// address over SMTP, attaching the screenshot on success. Delivery errors
// are reported to the caller for logging and must never destabilize the
// scheduler.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/snapmail/snapmail/internal/capture"
	"github.com/snapmail/snapmail/internal/principal"
)

// Notifier sends the result message for one completed run.
type Notifier interface {
	Send(ctx context.Context, p principal.Principal, outcome capture.Outcome) error
}

// Config holds SMTP configuration.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`

	// Subject prefixes the capture date in the message subject.
	Subject string `yaml:"subject"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Port <= 0 {
		c.Port = 587
	}
	if c.Subject == "" {
		c.Subject = "Your daily portal snapshot"
	}
}

// Mailer implements Notifier over SMTP. The deliver hook is swappable so
// tests can inspect composed messages without a mail server.
type Mailer struct {
	cfg     Config
	logger  *slog.Logger
	deliver func(ctx context.Context, msg *mail.Msg) error

	// now is injectable for subject-line tests.
	now func() time.Time
}

// Compile-time interface guard.
var _ Notifier = (*Mailer)(nil)

// NewMailer creates a Mailer. The SMTP connection is established per send;
// the daemon sends at most a handful of messages a day.
func NewMailer(cfg Config, logger *slog.Logger) (*Mailer, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
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
		return nil, fmt.Errorf("notify: creating SMTP client: %w", err)
	}

	return &Mailer{
		cfg:    cfg,
		logger: logger,
		deliver: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
		now: time.Now,
	}, nil
}

// Send composes and delivers the result message. Only successful outcomes
// are mailed; failures are the scheduler's to log.
func (m *Mailer) Send(ctx context.Context, p principal.Principal, outcome capture.Outcome) error {
	if !outcome.Success {
		return nil
	}

	msg, err := m.compose(p, outcome)
	if err != nil {
		return err
	}

	if err := m.deliver(ctx, msg); err != nil {
		return fmt.Errorf("notify: sending to %s: %w", p.NotifyAddress, err)
	}

	m.logger.Info("notification sent", "login_id", p.LoginID, "to", p.NotifyAddress)
	return nil
}

// compose builds the success message: plain and HTML alternative bodies
// with the screenshot attached.
func (m *Mailer) compose(p principal.Principal, outcome capture.Outcome) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("notify: invalid from address %q: %w", m.cfg.From, err)
	}
	if err := msg.To(p.NotifyAddress); err != nil {
		return nil, fmt.Errorf("notify: invalid recipient %q: %w", p.NotifyAddress, err)
	}

	date := m.now().Format("2006-01-02")
	msg.Subject(fmt.Sprintf("%s — %s", m.cfg.Subject, date))

	name := p.DisplayName
	if name == "" {
		name = p.LoginID
	}
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Hi %s,\n\nYour portal snapshot for %s is attached.\n", name, date))
	msg.AddAlternativeString(mail.TypeTextHTML, fmt.Sprintf(
		"<p>Hi %s,</p><p>Your portal snapshot for <strong>%s</strong> is attached.</p>", name, date))

	msg.AttachFile(outcome.ArtifactPath)
	return msg, nil
}
