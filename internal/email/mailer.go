package email

import (
	"fmt"

	"tradehub_backend/internal/config"
	"tradehub_backend/internal/logger"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail over SMTP. When email is disabled in
// config every send is a logged no-op, which keeps local development and
// tests quiet.
type Mailer struct {
	cfg *config.Config
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Send(to, subject, body string) error {
	if !m.cfg.Email.Enabled {
		logger.Debug("email disabled, skipping send", "to", to, "subject", subject)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Email.FromEmail)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(
		m.cfg.Email.SMTPHost,
		m.cfg.Email.SMTPPort,
		m.cfg.Email.SMTPUsername,
		m.cfg.Email.SMTPPassword,
	)

	return d.DialAndSend(msg)
}

// SendSubscriptionExpired tells a trader their paid plan lapsed and they
// are back on the free tier. Best effort, callers log and move on.
func (m *Mailer) SendSubscriptionExpired(to, planName string) error {
	subject := "Your subscription has expired"
	body := fmt.Sprintf(
		"<p>Your <b>%s</b> plan has expired and your account is back on the Basic plan.</p>"+
			"<p>Resubscribe any time from the app to restore unlimited leads.</p>",
		planName,
	)
	return m.Send(to, subject, body)
}
