package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/callog-relay/internal/domain"
)

// api is the subset of *sns.Client used for mobile push.
type api interface {
	CreatePlatformEndpoint(ctx context.Context, in *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// PushSender delivers call notifications through an SNS platform application
// backed by FCM. The device token is registered as a platform endpoint on
// each send; SNS returns the existing endpoint for a known token.
type PushSender struct {
	client         api
	platformAppARN string
}

func NewClient(awsCfg aws.Config, endpoint *string) *sns.Client {
	clientOpts := []func(*sns.Options){}
	if endpoint != nil {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = endpoint
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...)
}

func NewPushSender(client *sns.Client, platformAppARN string) *PushSender {
	return &PushSender{client: client, platformAppARN: platformAppARN}
}

func (s *PushSender) Name() string { return "sns" }

// gcmPayload is the FCM body SNS forwards under the "GCM" key.
type gcmPayload struct {
	Notification map[string]string `json:"notification"`
	Data         map[string]string `json:"data"`
	Priority     string            `json:"priority"`
	TimeToLive   int               `json:"time_to_live"`
	Android      map[string]any    `json:"android,omitempty"`
}

func (s *PushSender) Send(ctx context.Context, msg *domain.PushMessage) (string, error) {
	ep, err := s.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(s.platformAppARN),
		Token:                  aws.String(msg.Token),
	})
	if err != nil {
		if isTokenRejection(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrTokenRejected, err)
		}
		return "", fmt.Errorf("sns create platform endpoint: %w", err)
	}

	body, err := buildMessage(msg)
	if err != nil {
		return "", err
	}
	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        ep.EndpointArn,
		MessageStructure: aws.String("json"),
		Message:          aws.String(body),
	})
	if err != nil {
		if isTokenRejection(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrTokenRejected, err)
		}
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

func buildMessage(msg *domain.PushMessage) (string, error) {
	priority := "normal"
	if msg.HighPriority {
		priority = "high"
	}
	gcm := gcmPayload{
		Notification: map[string]string{
			"title": msg.Title,
			"body":  msg.Body,
			"sound": msg.Sound,
			"tag":   msg.WebTag,
		},
		Data:       msg.Data,
		Priority:   priority,
		TimeToLive: int(msg.TTL.Seconds()),
		Android: map[string]any{
			"notification": map[string]string{"channel_id": msg.AndroidChannelID},
		},
	}
	gcmJSON, err := json.Marshal(gcm)
	if err != nil {
		return "", fmt.Errorf("marshal gcm payload: %w", err)
	}
	envelope, err := json.Marshal(map[string]string{
		"default": msg.Body,
		"GCM":     string(gcmJSON),
	})
	if err != nil {
		return "", fmt.Errorf("marshal sns envelope: %w", err)
	}
	return string(envelope), nil
}

func isTokenRejection(err error) bool {
	var disabled *types.EndpointDisabledException
	var invalid *types.InvalidParameterException
	return errors.As(err, &disabled) || errors.As(err, &invalid)
}
