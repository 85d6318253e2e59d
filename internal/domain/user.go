package domain

// UserDeliveryToken is the push destination registered by a user.
// It is owned by the profile subsystem; this service only reads it.
type UserDeliveryToken struct {
	UserID string `json:"id" dynamodbav:"user_id" firestore:"-"`
	Token  string `json:"fcmToken" dynamodbav:"fcm_token" firestore:"fcmToken"`
}
