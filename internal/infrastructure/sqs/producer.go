package sqsqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// maxDelay is the longest per-message delay SQS accepts.
const maxDelay = 15 * time.Minute

// ExpiryJob asks the worker to run the expiry sweep for one notification.
type ExpiryJob struct {
	NotificationID string `json:"notificationId"`
}

type sendAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// ExpiryQueue schedules expiry sweeps as delayed SQS messages.
type ExpiryQueue struct {
	SQS      sendAPI
	QueueURL string
	Delay    time.Duration
}

func (q *ExpiryQueue) Schedule(ctx context.Context, notificationID string) error {
	body, err := json.Marshal(ExpiryJob{NotificationID: notificationID})
	if err != nil {
		return err
	}
	delay := min(q.Delay, maxDelay)
	_, err = q.SQS.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     &q.QueueURL,
		MessageBody:  str(string(body)),
		DelaySeconds: int32(delay / time.Second),
	})
	if err != nil {
		return fmt.Errorf("enqueue expiry job: %w", err)
	}
	return nil
}
