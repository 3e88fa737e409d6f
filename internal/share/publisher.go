// Package share publishes share events to the async worker queue.
package share

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

// EventTypeShareItem tags every share event message.
const EventTypeShareItem = "SHARE_ITEM"

// EventMessage is the SQS message body for a share request. The
// downstream worker increments the share count and records the activity.
type EventMessage struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	ItemID    string `json:"itemId"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId"`
}

// NewEventMessage builds a share event for the given item. requestID
// correlates the event with the originating request; when empty a fresh
// identifier is generated.
func NewEventMessage(userID, itemID, requestID string) EventMessage {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return EventMessage{
		Type:      EventTypeShareItem,
		UserID:    userID,
		ItemID:    itemID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// SQSSender abstracts SQS send operations for dependency inversion.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends share events to an SQS queue.
type Publisher struct {
	client   SQSSender
	queueURL string
}

// NewPublisher creates a Publisher for the given queue.
func NewPublisher(client SQSSender, queueURL string) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
	}
}

// Publish sends one share event. An error means the event was not
// durably accepted; there is no local retry.
func (p *Publisher) Publish(ctx context.Context, msg EventMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal share event: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"EventType": {DataType: aws.String("String"), StringValue: aws.String(msg.Type)},
			"UserId":    {DataType: aws.String("String"), StringValue: aws.String(msg.UserID)},
			"RequestId": {DataType: aws.String("String"), StringValue: aws.String(msg.RequestID)},
		},
	})
	if err != nil {
		return fmt.Errorf("send share event: %w", err)
	}
	return nil
}
