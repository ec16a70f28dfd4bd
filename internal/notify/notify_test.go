package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergington/activities-portal/internal/domain"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

var chess = domain.Activity{
	Name:        "Chess Club",
	Description: "Learn strategies and compete in chess tournaments",
	Schedule:    "Fridays, 3:30 PM - 5:00 PM",
}

func TestRenderer_Defaults(t *testing.T) {
	r, err := NewRenderer("", "")
	require.NoError(t, err)

	msg, err := r.Render(chess, "kid@mergington.edu")
	require.NoError(t, err)
	assert.Equal(t, "You're signed up for Chess Club", msg.Subject)
	assert.Contains(t, msg.Body, "Hi kid@mergington.edu")
	assert.Contains(t, msg.Body, "Schedule: Fridays, 3:30 PM - 5:00 PM")
}

func TestRenderer_DefaultFilterForMissingSchedule(t *testing.T) {
	r, err := NewRenderer("", "")
	require.NoError(t, err)

	msg, err := r.Render(domain.Activity{Name: "Drama"}, "kid@mergington.edu")
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "Schedule: to be announced")
}

func TestRenderer_CustomTemplate(t *testing.T) {
	r, err := NewRenderer("{{ activity | upcase }}", "{{ email }} / {{ schedule }}")
	require.NoError(t, err)

	msg, err := r.Render(chess, "a@b.edu")
	require.NoError(t, err)
	assert.Equal(t, "CHESS CLUB", msg.Subject)
	assert.Equal(t, "a@b.edu / Fridays, 3:30 PM - 5:00 PM", msg.Body)
}

func TestRenderer_RejectsBadTemplate(t *testing.T) {
	_, err := NewRenderer("{% if activity %}unterminated", "")
	assert.Error(t, err)
}

func TestSESNotifier_SendsRenderedMessage(t *testing.T) {
	r, err := NewRenderer("", "")
	require.NoError(t, err)
	ses := &fakeSES{}
	n := NewSESNotifierWithClient(ses, "activities@mergington.edu", r)

	require.NoError(t, n.SignupConfirmed(context.Background(), chess, "kid@mergington.edu"))

	require.Len(t, ses.inputs, 1)
	in := ses.inputs[0]
	assert.Equal(t, "activities@mergington.edu", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"kid@mergington.edu"}, in.Destination.ToAddresses)
	assert.Equal(t, "You're signed up for Chess Club", aws.ToString(in.Content.Simple.Subject.Data))
	assert.Contains(t, aws.ToString(in.Content.Simple.Body.Text.Data), "Chess Club")
}

func TestSESNotifier_WrapsSendError(t *testing.T) {
	r, err := NewRenderer("", "")
	require.NoError(t, err)
	boom := errors.New("throttled")
	n := NewSESNotifierWithClient(&fakeSES{err: boom}, "activities@mergington.edu", r)

	err = n.SignupConfirmed(context.Background(), chess, "kid@mergington.edu")
	assert.ErrorIs(t, err, boom)
}

func TestNewSESNotifier_RequiresFrom(t *testing.T) {
	r, err := NewRenderer("", "")
	require.NoError(t, err)
	_, err = NewSESNotifier(context.Background(), SESConfig{}, r)
	assert.Error(t, err)
}
