package email

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"nitpickr-api/internal/logger"
)

var log = logger.New("email")

const (
	ProviderSMTP = "smtp"
	ProviderSES  = "ses"
)

// Sender delivers the transactional emails.
type Sender interface {
	SendVerification(to, token string) error
	SendPasswordReset(to, token string) error
	SendTeamInvite(to, teamName, inviterName, token string) error
}

// Config selects and configures the provider. SMTP fields are ignored for
// SES and the other way round.
type Config struct {
	Provider string
	From     string
	AppURL   string
	APIURL   string

	SMTPHost     string
	SMTPPort     string
	SMTPPassword string

	SESRegion string
}

// New returns the Sender for cfg.Provider; empty means SMTP.
func New(cfg Config) (Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderSMTP:
		return NewSMTPSender(cfg), nil
	case ProviderSES:
		return NewSESSender(cfg)
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

type message struct {
	subject string
	text    string
	link    string
}

// html renders each paragraph of the text; the link paragraph becomes an anchor.
func (m message) html() string {
	var b strings.Builder
	for _, p := range strings.Split(m.text, "\n\n") {
		if p == m.link {
			fmt.Fprintf(&b, `<p><a href="%s">%s</a></p>`, html.EscapeString(m.link), html.EscapeString(m.link))
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(p))
	}
	return b.String()
}

type transport interface {
	deliver(to string, m message) error
}

// mailer builds the messages and hands them to a transport.
type mailer struct {
	appURL string
	apiURL string
	t      transport
}

func link(base, path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", base, path, url.QueryEscape(token))
}

func (m *mailer) SendVerification(to, token string) error {
	l := link(m.apiURL, "/verify", token)
	return m.t.deliver(to, message{
		subject: "Verify Your Account",
		text:    "Click the following link to verify your account:\n\n" + l,
		link:    l,
	})
}

func (m *mailer) SendPasswordReset(to, token string) error {
	l := link(m.appURL, "/auth/reset-password", token)
	return m.t.deliver(to, message{
		subject: "Reset Your Password",
		text:    "Use the following link to reset your password. It expires in one hour.\n\n" + l,
		link:    l,
	})
}

func (m *mailer) SendTeamInvite(to, teamName, inviterName, token string) error {
	l := link(m.appURL, "/invitations", token)
	return m.t.deliver(to, message{
		subject: "You have been invited to " + teamName,
		text:    fmt.Sprintf("%s invited you to join %s on Nitpickr.\n\nAccept the invitation:\n\n%s", inviterName, teamName, l),
		link:    l,
	})
}
