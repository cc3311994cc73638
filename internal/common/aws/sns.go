// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/models"
)

// SNSAPI is the slice of the SNS client the publisher needs.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ReviewPublisher announces created and updated reviews on an SNS topic.
type ReviewPublisher struct {
	api      SNSAPI
	topicARN string
	logger   logger.Logger
}

func NewReviewPublisher(api SNSAPI, topicARN string, log logger.Logger) *ReviewPublisher {
	return &ReviewPublisher{
		api:      api,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "review-events"}),
	}
}

// NewSNSClient builds an SNS client from the default AWS credential chain.
func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sns.NewFromConfig(cfg), nil
}

// Publish sends event as JSON. Reviews sharing a job go to the same message group on FIFO topics.
func (p *ReviewPublisher) Publish(ctx context.Context, event models.ReviewEvent) (string, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return "", errors.NewNotificationSendFailedError(event.Type, err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String(subjectFor(event)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.Type),
			},
			"revieweeId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.RevieweeID),
			},
			"rating": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(fmt.Sprintf("%d", event.Rating)),
			},
		},
	}

	out, err := p.api.Publish(ctx, input)
	if err != nil {
		p.logger.Warn("review event publish failed", map[string]interface{}{
			"eventType": event.Type,
			"reviewId":  event.ReviewID,
			"error":     err,
		})
		return "", errors.NewNotificationSendFailedError(event.Type, err)
	}

	messageID := aws.ToString(out.MessageId)
	p.logger.Debug("review event published", map[string]interface{}{
		"eventType": event.Type,
		"reviewId":  event.ReviewID,
		"messageId": messageID,
	})
	return messageID, nil
}

func subjectFor(event models.ReviewEvent) string {
	if event.Type == models.ReviewEventUpdated {
		return "A review about you was updated"
	}
	return "You received a new review"
}
