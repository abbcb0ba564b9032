package notifxses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/notifx"
	"github.com/fieldops360/auth-service/pkg/notifx/notifxses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSESProvider_BuildsInput(t *testing.T) {
	api := &fakeSES{}
	p := notifxses.NewSESProvider(api, "noreply@fieldops360.com", "default-set")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"ana@demo.com"},
		Subject:  "Reset",
		HTMLBody: "<p>hi</p>",
	}, notifx.WithTags(map[string]string{"tenant": "demo", "purpose": "password_reset"}))
	require.NoError(t, err)

	in := api.input
	require.NotNil(t, in)
	assert.Equal(t, "noreply@fieldops360.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"ana@demo.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Reset", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "<p>hi</p>", aws.ToString(in.Message.Body.Html.Data))
	assert.Nil(t, in.Message.Body.Text)
	assert.Equal(t, "default-set", aws.ToString(in.ConfigurationSetName))
	require.Len(t, in.Tags, 2)
	assert.Equal(t, "purpose", aws.ToString(in.Tags[0].Name))
}

func TestSESProvider_WrapsFailures(t *testing.T) {
	p := notifxses.NewSESProvider(&fakeSES{err: errors.New("throttled")}, "noreply@x.com", "")
	err := p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@b.c"}, Subject: "s"})
	assert.True(t, errx.HasCode(err, notifxses.ErrSendFailed))
}
