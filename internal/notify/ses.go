package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/mergington/activities-portal/internal/domain"
	"github.com/mergington/activities-portal/internal/pkg/logger"
)

// SESAPI is the subset of the SES v2 client the notifier uses.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures an SESNotifier.
type SESConfig struct {
	Region    string
	From      string
	AccessKey string
	SecretKey string
}

// SESNotifier e-mails signup confirmations through AWS SES.
type SESNotifier struct {
	client   SESAPI
	from     string
	renderer *Renderer
}

// NewSESNotifier builds an SES client from cfg. Static credentials are used
// when both keys are set; otherwise the default AWS credential chain applies.
func NewSESNotifier(ctx context.Context, cfg SESConfig, r *Renderer) (*SESNotifier, error) {
	if cfg.From == "" {
		return nil, errors.New("notify: from address is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESNotifierWithClient(sesv2.NewFromConfig(awsCfg), cfg.From, r), nil
}

// NewSESNotifierWithClient wires an existing client.
func NewSESNotifierWithClient(client SESAPI, from string, r *Renderer) *SESNotifier {
	return &SESNotifier{client: client, from: from, renderer: r}
}

// SignupConfirmed sends one confirmation to email.
func (n *SESNotifier) SignupConfirmed(ctx context.Context, a domain.Activity, email string) error {
	msg, err := n.renderer.Render(a, email)
	if err != nil {
		return err
	}

	out, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination:      &types.Destination{ToAddresses: []string{email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("kind"), Value: aws.String("activity_signup")},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	logger.Info("signup confirmation sent",
		"activity", a.Name, "email", email, "message_id", aws.ToString(out.MessageId))
	return nil
}
