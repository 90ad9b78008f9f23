package notify

import (
	"context"
	"fmt"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

// Inbox is the read side of a user's notifications
type Inbox struct {
	notifications repository.NotificationRepository
}

// NewInbox creates an Inbox over notifications
func NewInbox(notifications repository.NotificationRepository) *Inbox {
	return &Inbox{notifications: notifications}
}

// Listing is a page of notifications with the recipient's unread total
type Listing struct {
	UnreadCount   int                       `json:"unread_count"`
	Notifications []models.NotificationView `json:"notifications"`
}

// List returns recipient's notifications newest first
func (i *Inbox) List(ctx context.Context, recipientID int64, page repository.Page) (*Listing, error) {
	rows, err := i.notifications.ListByRecipient(ctx, recipientID, page)
	if err != nil {
		return nil, err
	}
	unread, err := i.notifications.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	views := make([]models.NotificationView, 0, len(rows))
	for _, n := range rows {
		views = append(views, n.View())
	}
	return &Listing{UnreadCount: unread, Notifications: views}, nil
}

// UnreadCount returns the number of unread notifications of recipient
func (i *Inbox) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	return i.notifications.CountUnread(ctx, recipientID)
}

// MarkRead marks one notification of recipient as read. Marking an already
// read notification is a no-op reported as changed=false. Notifications of
// other users look missing.
func (i *Inbox) MarkRead(ctx context.Context, recipientID, notificationID int64) (bool, error) {
	n, err := i.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return false, err
	}
	if n == nil || n.RecipientID != recipientID {
		return false, apperr.NotFound("notification %d not found", notificationID)
	}
	if n.IsRead {
		return false, nil
	}

	changed, err := i.notifications.MarkRead(ctx, notificationID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification %d read: %w", notificationID, err)
	}
	return changed, nil
}

// MarkAllRead marks every unread notification of recipient and returns how many changed
func (i *Inbox) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	return i.notifications.MarkAllRead(ctx, recipientID)
}
