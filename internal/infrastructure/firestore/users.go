package firestore

import (
	"context"
	"fmt"

	gcfs "cloud.google.com/go/firestore"
	"github.com/callog-relay/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UserRepo reads the fcmToken field of user profile documents.
type UserRepo struct {
	client     *gcfs.Client
	collection string
}

func NewUserRepo(client *gcfs.Client, collection string) *UserRepo {
	return &UserRepo{client: client, collection: collection}
}

func (r *UserRepo) GetDeliveryToken(ctx context.Context, userID string) (*domain.UserDeliveryToken, error) {
	snap, err := r.client.Collection(r.collection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrPeerNotFound)
		}
		return nil, err
	}
	var u domain.UserDeliveryToken
	if err := snap.DataTo(&u); err != nil {
		return nil, err
	}
	u.UserID = snap.Ref.ID
	return &u, nil
}
