package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

var notificationSelect = psql.
	Select(
		"n.id", "n.recipient_id", "n.sender_id", "n.type", "n.related_item_id", "n.is_read", "n.created_at",
		"s.name", "s.email", "i.list_id",
	).
	From("notifications n").
	Join("users s ON s.id = n.sender_id").
	LeftJoin("items i ON i.id = n.related_item_id")

type notificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func scanNotification(row scanner) (*models.Notification, error) {
	n := &models.Notification{Sender: &models.UserSummary{}}
	var listID sql.NullInt64
	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.SenderID,
		&n.Type,
		&n.RelatedItemID,
		&n.IsRead,
		&n.CreatedAt,
		&n.Sender.Name,
		&n.Sender.Email,
		&listID,
	)
	if err != nil {
		return nil, err
	}
	n.Sender.ID = n.SenderID
	if listID.Valid {
		n.RelatedListID = &listID.Int64
	}
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (recipient_id, sender_id, type, related_item_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	notification.CreatedAt = time.Now()
	notification.IsRead = false

	err := r.db.QueryRowContext(ctx, query,
		notification.RecipientID,
		notification.SenderID,
		notification.Type,
		notification.RelatedItemID,
		notification.IsRead,
		notification.CreatedAt,
	).Scan(&notification.ID, &notification.CreatedAt)

	if err != nil {
		return nil, wrapWrite("create notification", err)
	}

	return notification, nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	query, args, err := notificationSelect.Where(sq.Eq{"n.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build notification query: %w", err)
	}

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification by ID: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID int64, page repository.Page) ([]*models.Notification, error) {
	page = page.Normalize()
	query, args, err := notificationSelect.
		Where(sq.Eq{"n.recipient_id": recipientID}).
		OrderBy("n.created_at DESC", "n.id DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build notification query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, recipientID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND is_read = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
