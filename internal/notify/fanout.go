package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/metrics"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

// Fanout records notifications and schedules their live push
type Fanout struct {
	notifications repository.NotificationRepository
	queue         Queue
	metrics       *metrics.Metrics
	logger        *logrus.Logger
}

// NewFanout creates a Fanout persisting to notifications and pushing through queue
func NewFanout(notifications repository.NotificationRepository, queue Queue, m *metrics.Metrics, logger *logrus.Logger) *Fanout {
	return &Fanout{
		notifications: notifications,
		queue:         queue,
		metrics:       m,
		logger:        logger,
	}
}

// Notify persists a notification for recipient and enqueues its push. Acting
// on your own content notifies nobody and returns nil. Only a failed write is
// reported, the push is best effort.
func (f *Fanout) Notify(ctx context.Context, recipientID, senderID int64, kind models.NotificationType, relatedItemID *int64) (*models.Notification, error) {
	if recipientID == senderID {
		return nil, nil
	}

	n, err := f.notifications.Create(ctx, &models.Notification{
		RecipientID:   recipientID,
		SenderID:      senderID,
		Type:          kind,
		RelatedItemID: relatedItemID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record %s notification: %w", kind, err)
	}
	f.metrics.NotificationsCreated.WithLabelValues(string(kind)).Inc()

	// Re-read for the sender summary and related list
	if full, err := f.notifications.GetByID(ctx, n.ID); err != nil {
		f.logger.WithError(err).Warnf("Failed to reload notification %d", n.ID)
	} else if full != nil {
		n = full
	}

	f.queue.Enqueue(Envelope{RecipientID: recipientID, Message: n.View()})
	return n, nil
}
