// internal/domain/models/notification.go
package models

import "time"

// Notification types.
const (
	NotifyCaseUpdate       = "case_update"
	NotifyCaseCreated      = "case_created"
	NotifyClientAssigned   = "client_assigned"
	NotifyNewClient        = "new_client"
	NotifyProspectAssigned = "prospect_assigned"
	NotifyPaymentDeclared  = "payment_declared"
	NotifyPaymentConfirmed = "payment_confirmed"
	NotifyPaymentRejected  = "payment_rejected"
)

// Notification is an in-app message for one recipient. It never drives business state.
type Notification struct {
	ID          NotificationID `bson:"_id" json:"id"`
	RecipientID UserID         `bson:"recipient_id" json:"recipient_id"`
	Type        string         `bson:"type" json:"type"`
	Title       string         `bson:"title" json:"title"`
	Message     string         `bson:"message" json:"message"`
	RelatedID   string         `bson:"related_id,omitempty" json:"related_id,omitempty"`
	Read        bool           `bson:"read" json:"read"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at"`
}
