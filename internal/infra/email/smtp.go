package email

import (
	"net/smtp"
)

type smtpTransport struct {
	host, port, from, password string
}

// NewSMTPSender sends through an SMTP relay with PLAIN auth. With no host
// configured emails are logged and dropped.
func NewSMTPSender(cfg Config) Sender {
	return &mailer{
		appURL: cfg.AppURL,
		apiURL: cfg.APIURL,
		t: &smtpTransport{
			host:     cfg.SMTPHost,
			port:     cfg.SMTPPort,
			from:     cfg.From,
			password: cfg.SMTPPassword,
		},
	}
}

func (s *smtpTransport) deliver(to string, m message) error {
	if s.host == "" {
		log.Warn("SMTP not configured, email not sent", "to", to, "subject", m.subject)
		return nil
	}

	auth := smtp.PlainAuth("", s.from, s.password, s.host)
	raw := []byte("Subject: " + m.subject + "\r\n" +
		"From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		m.text + "\r\n")

	err := smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{to}, raw)
	if err != nil {
		log.Error("SMTP error", "to", to, "subject", m.subject, "error", err)
	}
	return err
}
