package email

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
)

const charset = "UTF-8"

type sesTransport struct {
	client sesiface.SESAPI
	from   string
}

// NewSESSender sends through Amazon SES using the standard AWS credential
// chain.
func NewSESSender(cfg Config) (Sender, error) {
	if cfg.From == "" {
		return nil, errors.New("EMAIL_FROM is required for ses")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.SESRegion)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return newSESSender(ses.New(sess), cfg), nil
}

func newSESSender(client sesiface.SESAPI, cfg Config) Sender {
	return &mailer{
		appURL: cfg.AppURL,
		apiURL: cfg.APIURL,
		t:      &sesTransport{client: client, from: cfg.From},
	}
}

func content(s string) *ses.Content {
	return &ses.Content{Charset: aws.String(charset), Data: aws.String(s)}
}

func (s *sesTransport) deliver(to string, m message) error {
	out, err := s.client.SendEmail(&ses.SendEmailInput{
		Destination: &ses.Destination{ToAddresses: []*string{aws.String(to)}},
		Message: &ses.Message{
			Subject: content(m.subject),
			Body: &ses.Body{
				Text: content(m.text),
				Html: content(m.html()),
			},
		},
		Source: aws.String(s.from),
	})
	if err != nil {
		log.Error("SES error", "to", to, "subject", m.subject, "error", err)
		return err
	}
	log.Debug("Email sent", "to", to, "message_id", aws.StringValue(out.MessageId))
	return nil
}
