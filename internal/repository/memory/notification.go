package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

type notificationRepository struct {
	db *db
}

// view copies n and fills in the joined sender and related list. Callers hold a lock.
func (r *notificationRepository) view(n *models.Notification) *models.Notification {
	c := *n
	c.Sender = r.db.summary(n.SenderID)
	c.RelatedListID = nil
	if n.RelatedItemID != nil {
		itemID := *n.RelatedItemID
		c.RelatedItemID = &itemID
		if it, ok := r.db.items[itemID]; ok {
			listID := it.ListID
			c.RelatedListID = &listID
		}
	}
	return &c
}

func (r *notificationRepository) Create(_ context.Context, notification *models.Notification) (*models.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[notification.RecipientID]; !ok {
		return nil, fmt.Errorf("failed to create notification: recipient %d does not exist", notification.RecipientID)
	}

	notification.ID = r.db.id()
	notification.IsRead = false
	notification.CreatedAt = time.Now()
	c := *notification
	c.Sender = nil
	c.RelatedListID = nil
	r.db.notifications[notification.ID] = &c
	return notification, nil
}

func (r *notificationRepository) GetByID(_ context.Context, id int64) (*models.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if n, ok := r.db.notifications[id]; ok {
		return r.view(n), nil
	}
	return nil, nil
}

func (r *notificationRepository) ListByRecipient(_ context.Context, recipientID int64, page repository.Page) ([]*models.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var notifications []*models.Notification
	for _, n := range r.db.notifications {
		if n.RecipientID == recipientID {
			notifications = append(notifications, r.view(n))
		}
	}
	sortNewestFirst(notifications, func(n *models.Notification) (int64, int64) { return n.CreatedAt.UnixNano(), n.ID })
	return paginate(notifications, page), nil
}

func (r *notificationRepository) CountUnread(_ context.Context, recipientID int64) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	count := 0
	for _, n := range r.db.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(_ context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n, ok := r.db.notifications[id]
	if !ok || n.IsRead {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

func (r *notificationRepository) MarkAllRead(_ context.Context, recipientID int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var changed int64
	for _, n := range r.db.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}
