package email

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	sesiface.SESAPI
	sent []*ses.SendEmailInput
	err  error
}

func (f *fakeSES) SendEmail(in *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, in)
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

var testCfg = Config{
	Provider: ProviderSES,
	From:     "noreply@nitpickr.test",
	AppURL:   "http://app.test",
	APIURL:   "http://api.test",
}

func TestSESVerification(t *testing.T) {
	api := &fakeSES{}
	s := newSESSender(api, testCfg)

	require.NoError(t, s.SendVerification("ann@example.com", "tok 1"))
	require.Len(t, api.sent, 1)
	in := api.sent[0]
	assert.Equal(t, "noreply@nitpickr.test", aws.StringValue(in.Source))
	assert.Equal(t, []string{"ann@example.com"}, aws.StringValueSlice(in.Destination.ToAddresses))
	assert.Equal(t, "Verify Your Account", aws.StringValue(in.Message.Subject.Data))
	assert.Contains(t, aws.StringValue(in.Message.Body.Text.Data), "http://api.test/verify?token=tok+1")
	assert.Contains(t, aws.StringValue(in.Message.Body.Html.Data), `<a href="http://api.test/verify?token=tok+1">`)
}

func TestSESInviteAndReset(t *testing.T) {
	api := &fakeSES{}
	s := newSESSender(api, testCfg)

	require.NoError(t, s.SendTeamInvite("bo@example.com", "Acme <Realty>", "Ann", "inv"))
	require.NoError(t, s.SendPasswordReset("bo@example.com", "rst"))
	require.Len(t, api.sent, 2)

	assert.Equal(t, "You have been invited to Acme <Realty>", aws.StringValue(api.sent[0].Message.Subject.Data))
	assert.Contains(t, aws.StringValue(api.sent[0].Message.Body.Html.Data), "Acme &lt;Realty&gt;")
	assert.Contains(t, aws.StringValue(api.sent[0].Message.Body.Text.Data), "http://app.test/invitations?token=inv")
	assert.Contains(t, aws.StringValue(api.sent[1].Message.Body.Text.Data), "http://app.test/auth/reset-password?token=rst")
}

func TestSESFailure(t *testing.T) {
	s := newSESSender(&fakeSES{err: errors.New("throttled")}, testCfg)
	assert.EqualError(t, s.SendVerification("ann@example.com", "t"), "throttled")
}

func TestNewSelectsProvider(t *testing.T) {
	s, err := New(Config{AppURL: "http://app.test"})
	require.NoError(t, err)
	m, ok := s.(*mailer)
	require.True(t, ok)
	assert.IsType(t, &smtpTransport{}, m.t)

	// An unconfigured SMTP relay drops mail without failing.
	assert.NoError(t, s.SendVerification("ann@example.com", "t"))

	_, err = New(Config{Provider: "pigeon"})
	assert.Error(t, err)

	_, err = New(Config{Provider: ProviderSES})
	assert.Error(t, err)
}
