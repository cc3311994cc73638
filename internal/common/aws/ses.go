// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/models"
)

type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// ModerationMailer emails the moderation inbox when a low rating comes in.
type ModerationMailer struct {
	api       SESAPI
	from      string
	to        string
	threshold int
	logger    logger.Logger
}

func NewModerationMailer(api SESAPI, from, to string, threshold int, log logger.Logger) *ModerationMailer {
	return &ModerationMailer{
		api:       api,
		from:      from,
		to:        to,
		threshold: threshold,
		logger:    log.WithFields(map[string]interface{}{"component": "review-moderation"}),
	}
}

func NewSESClient(ctx context.Context, region string) (*ses.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ses.NewFromConfig(cfg), nil
}

// Publish sends an alert for events rated at or below the threshold and
// returns the SES message id. Other events are skipped with an empty id.
func (m *ModerationMailer) Publish(ctx context.Context, event models.ReviewEvent) (string, error) {
	if event.Rating > m.threshold {
		return "", nil
	}

	subject := fmt.Sprintf("[reviews] %d-star review for %s", event.Rating, event.RevieweeID)
	var body strings.Builder
	fmt.Fprintf(&body, "Event:    %s\n", event.Type)
	fmt.Fprintf(&body, "Review:   %s\n", event.ReviewID)
	fmt.Fprintf(&body, "Job:      %s\n", event.JobID)
	fmt.Fprintf(&body, "Reviewer: %s\n", event.ReviewerID)
	fmt.Fprintf(&body, "Reviewee: %s\n", event.RevieweeID)
	fmt.Fprintf(&body, "Rating:   %d\n", event.Rating)
	fmt.Fprintf(&body, "At:       %s\n", event.OccurredAt)

	out, err := m.api.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(m.from),
		Destination: &types.Destination{ToAddresses: []string{m.to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body.String()), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return "", errors.NewNotificationSendFailedError("moderation-email", err)
	}

	messageID := aws.ToString(out.MessageId)
	m.logger.Info("moderation alert sent", map[string]interface{}{
		"reviewId":  event.ReviewID,
		"rating":    event.Rating,
		"messageId": messageID,
	})
	return messageID, nil
}
