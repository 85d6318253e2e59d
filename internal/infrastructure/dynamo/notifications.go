package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/callog-relay/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the call
// notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

// Create inserts a new record. An existing id is never overwritten.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.CallNotification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": fieldNotificationID,
		},
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.CallNotification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldNotificationID, notificationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	var n domain.CallNotification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ApplyChange writes change only while the stored status still equals
// change.From. It reports false when the condition did not hold, including
// when the record does not exist.
func (r *NotificationRepo) ApplyChange(ctx context.Context, notificationID string, change domain.StatusChange) (bool, error) {
	ue, err := buildUpdateExpr(statusChangeUpdates(change))
	if err != nil {
		return false, err
	}
	ue.Names["#cs"] = fieldStatus
	ue.Values[":from"] = &types.AttributeValueMemberS{Value: string(change.From)}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#cs = :from"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// statusCreatedIndex is the GSI keyed by status and created_at.
const statusCreatedIndex = "status-created_at-index"

// ListCreatedBefore returns at most limit ids whose created_at is older than
// cutoff, querying the status GSI once per lifecycle state.
func (r *NotificationRepo) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	for _, status := range []domain.NotificationStatus{
		domain.StatusExpired, domain.StatusFailed, domain.StatusSent, domain.StatusPending,
	} {
		var startKey map[string]types.AttributeValue
		for len(ids) < limit {
			out, err := r.client.Query(ctx, &dynamodb.QueryInput{
				TableName:              aws.String(r.tableName),
				IndexName:              aws.String(statusCreatedIndex),
				KeyConditionExpression: aws.String("#st = :st AND #ca < :cutoff"),
				ExpressionAttributeNames: map[string]string{
					"#st": fieldStatus,
					"#ca": fieldCreatedAt,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":st":     &types.AttributeValueMemberS{Value: string(status)},
					":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff.Unix(), 10)},
				},
				Limit:             aws.Int32(int32(limit - len(ids))),
				ExclusiveStartKey: startKey,
			})
			if err != nil {
				return nil, err
			}
			for _, item := range out.Items {
				if v, ok := item[fieldNotificationID].(*types.AttributeValueMemberS); ok {
					ids = append(ids, v.Value)
				}
			}
			if len(out.LastEvaluatedKey) == 0 {
				break
			}
			startKey = out.LastEvaluatedKey
		}
		if len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// DeleteBatch removes ids in groups of 25 and returns how many were deleted.
// Unprocessed items are left for the next sweep.
func (r *NotificationRepo) DeleteBatch(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, part := range chunk(ids, maxBatchWrite) {
		reqs := make([]types.WriteRequest, 0, len(part))
		for _, id := range part {
			reqs = append(reqs, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: strKey(fieldNotificationID, id)},
			})
		}
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: reqs},
		})
		if err != nil {
			return deleted, fmt.Errorf("batch delete notifications: %w", err)
		}
		unprocessed := len(out.UnprocessedItems[r.tableName])
		if unprocessed > 0 {
			slog.Warn("batch delete left unprocessed items", "table", r.tableName, "count", unprocessed)
		}
		deleted += len(part) - unprocessed
	}
	return deleted, nil
}

// statusChangeUpdates maps a transition onto the attributes it sets.
func statusChangeUpdates(change domain.StatusChange) map[string]interface{} {
	updates := map[string]interface{}{fieldStatus: string(change.To)}
	switch change.To {
	case domain.StatusSent:
		updates[fieldSentAt] = change.At.Unix()
	case domain.StatusFailed:
		updates[fieldFailedAt] = change.At.Unix()
	case domain.StatusExpired:
		updates[fieldExpiredAt] = change.At.Unix()
	}
	if change.MessageID != "" {
		updates[fieldMessageID] = change.MessageID
	}
	if change.Error != "" {
		updates[fieldError] = change.Error
	}
	return updates
}

// Ping reports whether the notifications table is reachable.
func (r *NotificationRepo) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.tableName)})
	return err
}
