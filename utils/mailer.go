// utils/mailer.go
package utils

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/skillstream/lms_backend/config"
)

// Mailer delivers OTP codes over SMTP when SMS delivery is unavailable.
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer creates a mailer from configuration. Returns nil when no SMTP
// credentials are configured.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	if cfg.Username == "" {
		return nil
	}
	return &Mailer{cfg: cfg}
}

// SendOTP emails a verification code to the given address.
func (m *Mailer) SendOTP(email, name, otp string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Your verification code")
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>Hi %s,</p><p>Your verification code is <b>%s</b>. It expires in 10 minutes.</p>",
		name, otp))

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	return nil
}
