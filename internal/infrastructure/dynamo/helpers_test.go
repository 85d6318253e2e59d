package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/callog-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldStatus: "sent"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "status"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		fieldStatus:    "sent",
		fieldMessageID: "projects/p/messages/1",
		fieldSentAt:   time.Unix(1700000000, 0).Unix(),
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)

	// message_id < sent_at < status
	assert.Equal(t, "message_id", ue1.Names["#f0"])
	assert.Equal(t, "sent_at", ue1.Names["#f1"])
	assert.Equal(t, "status", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_TimestampsAreNumeric(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldExpiredAt: int64(1700000030)})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	n, isNum := av.(*types.AttributeValueMemberN)
	require.True(t, isNum)
	assert.Equal(t, "1700000030", n.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestChunk(t *testing.T) {
	ids := make([]string, 60)
	for i := range ids {
		ids[i] = string(rune('a' + i%26))
	}
	parts := chunk(ids, maxBatchWrite)
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 25)
	assert.Len(t, parts[1], 25)
	assert.Len(t, parts[2], 10)
	assert.Empty(t, chunk(nil, maxBatchWrite))
}

func TestStatusChangeUpdates(t *testing.T) {
	at := time.Unix(1700000000, 0)

	u := statusChangeUpdates(changeFixture("sent", at, "msg-1", ""))
	assert.Equal(t, map[string]interface{}{
		fieldStatus:    "sent",
		fieldSentAt:    int64(1700000000),
		fieldMessageID: "msg-1",
	}, u)

	u = statusChangeUpdates(changeFixture("failed", at, "", "boom"))
	assert.Equal(t, map[string]interface{}{
		fieldStatus:   "failed",
		fieldFailedAt: int64(1700000000),
		fieldError:    "boom",
	}, u)

	u = statusChangeUpdates(changeFixture("expired", at, "", ""))
	assert.Equal(t, map[string]interface{}{
		fieldStatus:    "expired",
		fieldExpiredAt: int64(1700000000),
	}, u)
}

func changeFixture(to string, at time.Time, messageID, errMsg string) domain.StatusChange {
	return domain.StatusChange{
		To:        domain.NotificationStatus(to),
		At:        at,
		MessageID: messageID,
		Error:     errMsg,
	}
}
