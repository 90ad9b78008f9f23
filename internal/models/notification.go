package models

import "time"

// NotificationType identifies the social action behind a notification
type NotificationType string

const (
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationLike          NotificationType = "like"
	NotificationComment       NotificationType = "comment"
)

// Notification is a durable record of a social action addressed to a user.
// Only IsRead ever changes after creation.
type Notification struct {
	ID            int64            `json:"id" db:"id"`
	RecipientID   int64            `json:"recipient_id" db:"recipient_id"`
	SenderID      int64            `json:"sender_id" db:"sender_id"`
	Type          NotificationType `json:"type" db:"type"`
	RelatedItemID *int64           `json:"related_item_id" db:"related_item_id"`
	IsRead        bool             `json:"is_read" db:"is_read"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`

	// Denormalized on read
	Sender        *UserSummary `json:"-"`
	RelatedListID *int64       `json:"-"`
}

// NotificationView is the wire shape of a notification, both in listings and
// in live pushes.
type NotificationView struct {
	ID            int64            `json:"id"`
	IsRead        bool             `json:"is_read"`
	Type          NotificationType `json:"type"`
	CreatedAt     time.Time        `json:"created_at"`
	Sender        UserSummary      `json:"sender"`
	RelatedItemID *int64           `json:"related_item_id,omitempty"`
	RelatedListID *int64           `json:"related_list_id,omitempty"`
}

// View builds the wire shape of the notification
func (n *Notification) View() NotificationView {
	v := NotificationView{
		ID:            n.ID,
		IsRead:        n.IsRead,
		Type:          n.Type,
		CreatedAt:     n.CreatedAt,
		RelatedItemID: n.RelatedItemID,
		RelatedListID: n.RelatedListID,
	}
	if n.Sender != nil {
		v.Sender = *n.Sender
	} else {
		v.Sender = UserSummary{ID: n.SenderID}
	}
	return v
}
