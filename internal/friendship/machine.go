// Package friendship implements the friend request lifecycle. A pair of users
// has at most one relationship record, pending or accepted; declining or
// removing deletes it so the pair starts over.
package friendship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

// Notifier records a notification for a social action
type Notifier interface {
	Notify(ctx context.Context, recipientID, senderID int64, kind models.NotificationType, relatedItemID *int64) (*models.Notification, error)
}

// Machine drives friendship transitions
type Machine struct {
	friendships repository.FriendshipRepository
	users       repository.UserRepository
	notifier    Notifier
	logger      *logrus.Logger
}

// NewMachine creates a Machine
func NewMachine(friendships repository.FriendshipRepository, users repository.UserRepository, notifier Notifier, logger *logrus.Logger) *Machine {
	return &Machine{
		friendships: friendships,
		users:       users,
		notifier:    notifier,
		logger:      logger,
	}
}

// SendRequest creates a pending request from requester to addressee and
// notifies the addressee
func (m *Machine) SendRequest(ctx context.Context, requesterID, addresseeID int64) (*models.Friendship, error) {
	if requesterID == addresseeID {
		return nil, apperr.Conflict("cannot send a friend request to yourself")
	}

	addressee, err := m.users.GetByID(ctx, addresseeID)
	if err != nil {
		return nil, err
	}
	if addressee == nil {
		return nil, apperr.NotFound("user %d not found", addresseeID)
	}

	existing, err := m.friendships.GetByPair(ctx, requesterID, addresseeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, existsConflict(existing)
	}

	f, err := m.friendships.Create(ctx, &models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.FriendshipPending,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("a friendship or pending request already exists")
		}
		return nil, err
	}

	if _, err := m.notifier.Notify(ctx, addresseeID, requesterID, models.NotificationFriendRequest, nil); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"friendship_id": f.ID,
			"addressee_id":  addresseeID,
		}).Error("Failed to notify friend request")
	}

	m.logger.WithFields(logrus.Fields{
		"friendship_id": f.ID,
		"requester_id":  requesterID,
		"addressee_id":  addresseeID,
	}).Info("Friend request sent")
	return f, nil
}

func existsConflict(f *models.Friendship) error {
	if f.IsAccepted() {
		return apperr.Conflict("already friends")
	}
	return apperr.Conflict("a friend request is already pending")
}

// pending loads a request that must still be pending
func (m *Machine) pending(ctx context.Context, requestID int64) (*models.Friendship, error) {
	f, err := m.friendships.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if f == nil || !f.IsPending() {
		return nil, apperr.NotFound("friend request %d not found", requestID)
	}
	return f, nil
}

// Accept turns a pending request into a friendship. Only the addressee may accept.
func (m *Machine) Accept(ctx context.Context, requestID, actorID int64) (*models.Friendship, error) {
	f, err := m.pending(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if f.AddresseeID != actorID {
		return nil, apperr.Forbidden("only the addressee can accept a friend request")
	}

	updated, err := m.friendships.UpdateStatus(ctx, f.ID, models.FriendshipPending, models.FriendshipAccepted)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("friend request %d not found", requestID)
		}
		return nil, err
	}

	m.logger.WithField("friendship_id", f.ID).Info("Friend request accepted")
	return updated, nil
}

// Decline deletes a pending request. Either party may decline, which also
// covers the requester cancelling an outgoing request.
func (m *Machine) Decline(ctx context.Context, requestID, actorID int64) error {
	f, err := m.pending(ctx, requestID)
	if err != nil {
		return err
	}
	if !f.Involves(actorID) {
		return apperr.Forbidden("not a party to this friend request")
	}
	return m.delete(ctx, f.ID, models.FriendshipPending, "friend request")
}

// Remove ends an accepted friendship. Either friend may remove it.
func (m *Machine) Remove(ctx context.Context, friendshipID, actorID int64) error {
	f, err := m.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if f == nil || !f.IsAccepted() {
		return apperr.NotFound("friendship %d not found", friendshipID)
	}
	if !f.Involves(actorID) {
		return apperr.Forbidden("not a party to this friendship")
	}
	return m.delete(ctx, f.ID, models.FriendshipAccepted, "friendship")
}

// delete removes the record only if it is still in status, so a transition
// racing this one makes it fail with NotFound
func (m *Machine) delete(ctx context.Context, id int64, status models.FriendshipStatus, what string) error {
	if err := m.friendships.Delete(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("%s %d not found", what, id)
		}
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	m.logger.WithField("friendship_id", id).Infof("Deleted %s", what)
	return nil
}

// AreFriends reports whether a and b have an accepted friendship. It is
// symmetric and a user is never their own friend.
func (m *Machine) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	if a == b {
		return false, nil
	}
	f, err := m.friendships.GetByPair(ctx, a, b)
	if err != nil {
		return false, err
	}
	return f != nil && f.IsAccepted(), nil
}

// FriendIDs returns the ids of userID's accepted friends
func (m *Machine) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	return m.friendships.FriendIDs(ctx, userID)
}

// Friend is an accepted friendship seen from one side
type Friend struct {
	FriendshipID int64              `json:"friendship_id"`
	User         models.UserSummary `json:"user"`
	Since        time.Time          `json:"since"`
}

// Request is a pending request seen from one side. User is the other party.
type Request struct {
	ID        int64              `json:"id"`
	User      models.UserSummary `json:"user"`
	CreatedAt time.Time          `json:"created_at"`
}

// Overview groups a user's relationships
type Overview struct {
	Friends  []Friend  `json:"friends"`
	Incoming []Request `json:"incoming"`
	Outgoing []Request `json:"outgoing"`
}

// Overview lists userID's friends and pending requests in both directions
func (m *Machine) Overview(ctx context.Context, userID int64) (*Overview, error) {
	rows, err := m.friendships.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	o := &Overview{Friends: []Friend{}, Incoming: []Request{}, Outgoing: []Request{}}
	for _, f := range rows {
		other := f.Requester
		if f.RequesterID == userID {
			other = f.Addressee
		}
		var summary models.UserSummary
		if other != nil {
			summary = *other
		} else {
			summary = models.UserSummary{ID: f.Other(userID)}
		}

		switch {
		case f.IsAccepted():
			o.Friends = append(o.Friends, Friend{FriendshipID: f.ID, User: summary, Since: f.UpdatedAt})
		case f.IsPending() && f.AddresseeID == userID:
			o.Incoming = append(o.Incoming, Request{ID: f.ID, User: summary, CreatedAt: f.CreatedAt})
		case f.IsPending():
			o.Outgoing = append(o.Outgoing, Request{ID: f.ID, User: summary, CreatedAt: f.CreatedAt})
		}
	}
	return o, nil
}
