package sqsqueue

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// NewClient creates an SQS client, pointing at LocalStack when endpoint is set.
func NewClient(awsCfg aws.Config, endpoint *string) *sqs.Client {
	if endpoint != nil {
		return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			o.BaseEndpoint = endpoint
		})
	}
	return sqs.NewFromConfig(awsCfg)
}

func str(s string) *string { return &s }
