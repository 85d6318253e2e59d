package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/callog-relay/internal/domain"
)

// UserRepo reads push destinations from the users table. The table is owned
// by the profile service; this repo never writes to it.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// GetDeliveryToken returns domain.ErrPeerNotFound when the user does not
// exist. A user without a token yields an empty Token.
func (r *UserRepo) GetDeliveryToken(ctx context.Context, userID string) (*domain.UserDeliveryToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.tableName),
		Key:                  strKey(fieldUserID, userID),
		ProjectionExpression: aws.String("#uid, #tok"),
		ExpressionAttributeNames: map[string]string{
			"#uid": fieldUserID,
			"#tok": fieldFCMToken,
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrPeerNotFound)
	}
	var u domain.UserDeliveryToken
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
