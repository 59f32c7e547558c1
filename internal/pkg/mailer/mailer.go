// Package mailer sends account lifecycle mail over SMTP.
package mailer

import (
	"fmt"

	"github.com/mberezin/microblog/internal/pkg/config"
	"gopkg.in/gomail.v2"
)

type Mailer struct {
	cfg config.SMTP
}

func New(cfg config.SMTP) Mailer {
	return Mailer{cfg: cfg}
}

func (m Mailer) SendVerificationEmail(email, token string) error {
	verifyURL := m.cfg.BaseURL + "/api/auth/verify/" + token

	body := fmt.Sprintf(`<h1>Email Verification</h1>
<p>Please verify your email address by clicking on the link below:</p>
<a href="%s">Verify Email</a>
<p>If the link doesn't work, copy and paste this URL into your browser:</p>
<p>%s</p>`, verifyURL, verifyURL)

	return m.send(email, "Please verify your email address", body)
}

func (m Mailer) SendPasswordResetEmail(email, token string) error {
	resetURL := m.cfg.BaseURL + "/api/auth/reset-password/" + token

	body := fmt.Sprintf(`<h1>Password Reset</h1>
<p>You requested a password reset. Please click on the link below:</p>
<a href="%s">Reset Password</a>
<p>If the link doesn't work, copy and paste this URL into your browser:</p>
<p>%s</p>
<p>If you didn't request this, please ignore this email.</p>`, resetURL, resetURL)

	return m.send(email, "Password Reset Request", body)
}

func (m Mailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail error: %w", err)
	}

	return nil
}
