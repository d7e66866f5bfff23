// Package queue provides the SQS producer that hands notification work to the
// email worker: collab request alerts for creators and billing lifecycle
// alerts for operators.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"presskit/internal/config"
)

// Notification kinds carried on the queue.
const (
	KindCollabSubmitted = "collab_submitted"
	KindBillingAlert    = "billing_alert"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// NotificationMessage is the queue payload consumed by the email worker.
type NotificationMessage struct {
	MessageID  string         `json:"message_id"`
	Kind       string         `json:"kind"`
	IdentityID string         `json:"identity_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	QueuedAt   time.Time      `json:"queued_at"`
}

// Publisher sends notification messages to the configured SQS queue.
// Publishing is best-effort on every call site: callers log failures and
// continue, so a queue outage never fails a user-facing request or a webhook.
type Publisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewPublisher creates a new Publisher. If logger is nil, slog.Default()
// is used. An empty queue URL disables publishing; Publish becomes a logged
// no-op so local environments run without SQS.
func NewPublisher(client SQSSender, awsCfg config.AWSConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:   client,
		queueURL: awsCfg.NotificationQueue,
		logger:   logger,
	}
}

// PublishCollabSubmitted notifies the creator that a brand submitted a collab
// request for their kit.
func (p *Publisher) PublishCollabSubmitted(ctx context.Context, identityID, collabID, brandName string) error {
	return p.publish(ctx, NotificationMessage{
		Kind:       KindCollabSubmitted,
		IdentityID: identityID,
		Payload: map[string]any{
			"collab_id":  collabID,
			"brand_name": brandName,
		},
	})
}

// PublishBillingAlert records a billing lifecycle change worth an operator or
// creator email (subscription created, cancelled, expired).
func (p *Publisher) PublishBillingAlert(ctx context.Context, identityID, eventName, subscriptionID string) error {
	return p.publish(ctx, NotificationMessage{
		Kind:       KindBillingAlert,
		IdentityID: identityID,
		Payload: map[string]any{
			"event_name":      eventName,
			"subscription_id": subscriptionID,
		},
	})
}

func (p *Publisher) publish(ctx context.Context, msg NotificationMessage) error {
	if p.queueURL == "" {
		p.logger.DebugContext(ctx, "notification queue not configured, dropping message",
			"kind", msg.Kind,
		)
		return nil
	}

	msg.MessageID = uuid.New().String()
	msg.QueuedAt = time.Now().UTC()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal notification: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"kind": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Kind),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("queue: failed to send notification: %w", err)
	}

	p.logger.InfoContext(ctx, "notification queued",
		"message_id", msg.MessageID,
		"kind", msg.Kind,
		"identity_id", msg.IdentityID,
	)
	return nil
}
