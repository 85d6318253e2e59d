package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// NewClient creates a DynamoDB client. A non-nil endpoint (LocalStack)
// overrides the base endpoint so all traffic goes to the local instance.
func NewClient(awsCfg aws.Config, endpoint *string) *dynamodb.Client {
	clientOpts := []func(*dynamodb.Options){}
	if endpoint != nil {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = endpoint
		})
	}
	return dynamodb.NewFromConfig(awsCfg, clientOpts...)
}
