package sqsqueue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type receiveAPI interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type Consumer struct {
	SQS      receiveAPI
	QueueURL string

	WaitTimeSeconds   int32
	MaxMessages       int32
	VisibilityTimeout int32
}

type Handler func(ctx context.Context, job ExpiryJob) error

// Poll receives until ctx is cancelled. A message is deleted after the
// handler succeeds; on error it stays for redrive.
func (c *Consumer) Poll(ctx context.Context, handler Handler) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		out, err := c.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            &c.QueueURL,
			MaxNumberOfMessages: c.MaxMessages,
			WaitTimeSeconds:     c.WaitTimeSeconds,
			VisibilityTimeout:   c.VisibilityTimeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("sqs receive message failed", "err", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		for _, m := range out.Messages {
			if m.Body == nil {
				c.delete(ctx, m.ReceiptHandle)
				continue
			}
			var job ExpiryJob
			if err := json.Unmarshal([]byte(*m.Body), &job); err != nil || job.NotificationID == "" {
				// bad payload => delete to avoid endless redrive
				c.delete(ctx, m.ReceiptHandle)
				continue
			}
			if err := handler(ctx, job); err != nil {
				slog.Error("expiry job failed", "notification_id", job.NotificationID, "err", err)
				continue
			}
			c.delete(ctx, m.ReceiptHandle)
		}
	}
}

func (c *Consumer) delete(ctx context.Context, receipt *string) {
	_, _ = c.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.QueueURL,
		ReceiptHandle: receipt,
	})
}
