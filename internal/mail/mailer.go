package mail

import (
	"strings"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/soportek/helpdesk/internal/config"
)

// Mailer sends plain-text notification mail. Callers treat delivery as
// best-effort and must not fail their own operation on a send error.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

type noopMailer struct {
	logger *zap.Logger
}

// NewMailer builds an SMTP mailer from config. An empty SMTP host
// returns a logging noop so notification handlers stay wired in
// development.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		logger.Info("mail disabled; MAIL_SMTP_HOST not set")
		return &noopMailer{logger: logger}
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

func (m *noopMailer) Send(to, subject, _ string) error {
	m.logger.Debug("mail suppressed",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
