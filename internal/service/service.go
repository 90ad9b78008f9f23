package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/auth"
	"github.com/Kerhoff/listshare/internal/friendship"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/notify"
	"github.com/Kerhoff/listshare/internal/repository"
	"github.com/Kerhoff/listshare/internal/visibility"
)

// Service is the application layer: it owns the repositories and composes the
// friendship machine, the visibility engine and the notification fan-out
// into the operations exposed over HTTP and Telegram.
type Service struct {
	logger *logrus.Logger
	tokens *auth.Tokens

	Users         repository.UserRepository
	Lists         repository.ListRepository
	Items         repository.ItemRepository
	Likes         repository.LikeRepository
	Comments      repository.CommentRepository
	Reservations  repository.ReservationRepository
	Notifications repository.NotificationRepository
	Goals         repository.GoalRepository

	Friends    *friendship.Machine
	Visibility *visibility.Engine
	Fanout     *notify.Fanout
	Inbox      *notify.Inbox
}

// New creates a Service over store. Notifications go through fanout.
func New(store *repository.Store, fanout *notify.Fanout, tokens *auth.Tokens, logger *logrus.Logger) *Service {
	friends := friendship.NewMachine(store.Friendships, store.Users, fanout, logger)
	return &Service{
		logger: logger,
		tokens: tokens,

		Users:         store.Users,
		Lists:         store.Lists,
		Items:         store.Items,
		Likes:         store.Likes,
		Comments:      store.Comments,
		Reservations:  store.Reservations,
		Notifications: store.Notifications,
		Goals:         store.Goals,

		Friends:    friends,
		Visibility: visibility.NewEngine(friends),
		Fanout:     fanout,
		Inbox:      notify.NewInbox(store.Notifications),
	}
}

// notify records a notification without failing the action that caused it
func (s *Service) notify(ctx context.Context, recipientID, senderID int64, kind models.NotificationType, itemID *int64) {
	if _, err := s.Fanout.Notify(ctx, recipientID, senderID, kind, itemID); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"recipient_id": recipientID,
			"sender_id":    senderID,
			"type":         kind,
		}).Error("Failed to record notification")
	}
}

// userSummary loads the public identity of userID
func (s *Service) userSummary(ctx context.Context, userID int64) (models.UserSummary, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return models.UserSummary{}, err
	}
	if u == nil {
		return models.UserSummary{ID: userID}, nil
	}
	return u.Summary(), nil
}

// getList loads a list or fails with NotFound
func (s *Service) getList(ctx context.Context, listID int64) (*models.List, error) {
	list, err := s.Lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, apperr.NotFound("list %d not found", listID)
	}
	return list, nil
}

// ownedList loads a list userID must own
func (s *Service) ownedList(ctx context.Context, userID, listID int64) (*models.List, error) {
	list, err := s.getList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if !list.IsOwnedBy(userID) {
		return nil, apperr.Forbidden("not enough permissions")
	}
	return list, nil
}

// getItem loads an item with its list or fails with NotFound
func (s *Service) getItem(ctx context.Context, itemID int64) (*models.Item, *models.List, error) {
	item, err := s.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, apperr.NotFound("item %d not found", itemID)
	}
	list, err := s.getList(ctx, item.ListID)
	if err != nil {
		return nil, nil, err
	}
	return item, list, nil
}

// ownedItem loads an item whose list userID must own
func (s *Service) ownedItem(ctx context.Context, userID, itemID int64) (*models.Item, *models.List, error) {
	item, list, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if !list.IsOwnedBy(userID) {
		return nil, nil, apperr.Forbidden("not enough permissions")
	}
	return item, list, nil
}

// authorize runs the visibility check of list for viewer
func (s *Service) authorize(ctx context.Context, viewer *int64, list *models.List) (visibility.Decision, error) {
	d, err := s.Visibility.CanView(ctx, viewer, list)
	if err != nil {
		return visibility.Decision{}, err
	}
	if !d.Allowed {
		owner, err := s.userSummary(ctx, list.OwnerID)
		if err != nil {
			return visibility.Decision{}, err
		}
		return d, d.Err(owner)
	}
	return d, nil
}

// visibleItem loads an item the viewer is allowed to see through its list
func (s *Service) visibleItem(ctx context.Context, viewerID, itemID int64) (*models.Item, *models.List, visibility.Decision, error) {
	item, list, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, nil, visibility.Decision{}, err
	}
	d, err := s.authorize(ctx, &viewerID, list)
	if err != nil {
		return nil, nil, visibility.Decision{}, err
	}
	return item, list, d, nil
}

// mapStoreErr maps repository sentinels onto the error taxonomy
func mapStoreErr(err error, conflict, missing string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicate) && conflict != "":
		return apperr.Conflict("%s", conflict)
	case errors.Is(err, repository.ErrNotFound) && missing != "":
		return apperr.NotFound("%s", missing)
	default:
		return fmt.Errorf("store: %w", err)
	}
}
