package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

const defaultSESRegion = "us-east-1"

// SESAPI is the subset of the SES v2 client the sender uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	// From overrides the identity address as the envelope sender.
	From string
}

var _ Sender = (*SESSender)(nil)

// SESSender delivers through Amazon SES. An accepted message counts as
// delivered; SES rejecting the message counts as a bounce. Asynchronous
// bounce and complaint notifications are not consumed.
type SESSender struct {
	client SESAPI
	from   string
}

func NewSESSender(ctx context.Context, cfg SESConfig) (*SESSender, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultSESRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewSESSenderWithClient(sesv2.NewFromConfig(awsCfg), cfg.From)
}

func NewSESSenderWithClient(client SESAPI, from string) (*SESSender, error) {
	if client == nil {
		return nil, fmt.Errorf("ses client is required")
	}
	return &SESSender{client: client, from: strings.TrimSpace(from)}, nil
}

func (s *SESSender) Send(ctx context.Context, msg Message) (domain.Outcome, error) {
	if err := msg.Validate(); err != nil {
		return "", fmt.Errorf("invalid message: %w", err)
	}

	from := s.from
	if from == "" {
		from = msg.From
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("identity_id"), Value: aws.String(msg.IdentityID)},
		},
	}
	if msg.CampaignID != "" {
		input.EmailTags = append(input.EmailTags, types.MessageTag{
			Name:  aws.String("campaign_id"),
			Value: aws.String(msg.CampaignID),
		})
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return classifySESError(err)
	}
	return domain.OutcomeDelivered, nil
}
