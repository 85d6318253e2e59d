package dynamo

// DynamoDB attribute names used in key, condition and update expressions.
const (
	fieldNotificationID = "notification_id"
	fieldStatus         = "status"
	fieldMessageID      = "message_id"
	fieldError          = "error"
	fieldCreatedAt      = "created_at"
	fieldSentAt         = "sent_at"
	fieldFailedAt       = "failed_at"
	fieldExpiredAt      = "expired_at"

	fieldUserID   = "user_id"
	fieldFCMToken = "fcm_token"
)
