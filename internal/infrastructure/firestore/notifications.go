package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcfs "cloud.google.com/go/firestore"
	"github.com/callog-relay/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxBatchWrite is the Firestore limit of writes per batch commit.
const maxBatchWrite = 500

// errConditionFailed aborts a transaction whose precondition did not hold.
var errConditionFailed = errors.New("status precondition failed")

// NotificationRepo stores call notifications in a Firestore collection keyed
// by notification id.
type NotificationRepo struct {
	client     *gcfs.Client
	collection string
}

func NewNotificationRepo(client *gcfs.Client, collection string) *NotificationRepo {
	return &NotificationRepo{client: client, collection: collection}
}

func (r *NotificationRepo) doc(id string) *gcfs.DocumentRef {
	return r.client.Collection(r.collection).Doc(id)
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.CallNotification) error {
	_, err := r.doc(n.ID).Create(ctx, n)
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.CallNotification, error) {
	snap, err := r.doc(notificationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
		}
		return nil, err
	}
	var n domain.CallNotification
	if err := snap.DataTo(&n); err != nil {
		return nil, err
	}
	n.ID = snap.Ref.ID
	return &n, nil
}

// ApplyChange runs the read-compare-write in a transaction so a concurrent
// status change is never overwritten.
func (r *NotificationRepo) ApplyChange(ctx context.Context, notificationID string, change domain.StatusChange) (bool, error) {
	ref := r.doc(notificationID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *gcfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errConditionFailed
			}
			return err
		}
		current, err := snap.DataAt("status")
		if err != nil {
			return errConditionFailed
		}
		if s, _ := current.(string); s != string(change.From) {
			return errConditionFailed
		}
		return tx.Update(ref, statusChangeUpdates(change))
	})
	if errors.Is(err, errConditionFailed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *NotificationRepo) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	docs, err := r.client.Collection(r.collection).
		Where("createdAt", "<", cutoff).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Ref.ID)
	}
	return ids, nil
}

// DeleteBatch commits deletes in batches of up to 500 documents.
func (r *NotificationRepo) DeleteBatch(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for start := 0; start < len(ids); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(ids))
		batch := r.client.Batch()
		for _, id := range ids[start:end] {
			batch.Delete(r.doc(id))
		}
		if _, err := batch.Commit(ctx); err != nil {
			return deleted, fmt.Errorf("commit delete batch: %w", err)
		}
		deleted += end - start
	}
	return deleted, nil
}

func statusChangeUpdates(change domain.StatusChange) []gcfs.Update {
	updates := []gcfs.Update{{Path: "status", Value: string(change.To)}}
	switch change.To {
	case domain.StatusSent:
		updates = append(updates, gcfs.Update{Path: "sentAt", Value: change.At})
	case domain.StatusFailed:
		updates = append(updates, gcfs.Update{Path: "failedAt", Value: change.At})
	case domain.StatusExpired:
		updates = append(updates, gcfs.Update{Path: "expiredAt", Value: change.At})
	}
	if change.MessageID != "" {
		updates = append(updates, gcfs.Update{Path: "fcmResponse", Value: change.MessageID})
	}
	if change.Error != "" {
		updates = append(updates, gcfs.Update{Path: "error", Value: change.Error})
	}
	return updates
}

// Ping reports whether the collection can be read.
func (r *NotificationRepo) Ping(ctx context.Context) error {
	_, err := r.client.Collection(r.collection).Limit(1).Documents(ctx).GetAll()
	return err
}
