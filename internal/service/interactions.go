package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/models"
)

// CommentInput is the payload of a new comment
type CommentInput struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// LikeState is the like state of an item after a like or unlike
type LikeState struct {
	ItemID int64 `json:"item_id"`
	Liked  bool  `json:"liked"`
}

// Like records that userID likes an item they can see and notifies the list owner
func (s *Service) Like(ctx context.Context, userID, itemID int64) (*LikeState, error) {
	item, list, _, err := s.visibleItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if _, err := s.Likes.Create(ctx, &models.Like{ItemID: item.ID, UserID: userID}); err != nil {
		return nil, mapStoreErr(err, "item already liked", "item not found")
	}

	s.notify(ctx, list.OwnerID, userID, models.NotificationLike, &item.ID)
	return &LikeState{ItemID: item.ID, Liked: true}, nil
}

// Unlike removes userID's like of an item
func (s *Service) Unlike(ctx context.Context, userID, itemID int64) (*LikeState, error) {
	item, _, _, err := s.visibleItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.Likes.Delete(ctx, item.ID, userID); err != nil {
		return nil, mapStoreErr(err, "", "like not found")
	}
	return &LikeState{ItemID: item.ID, Liked: false}, nil
}

// Comment adds a comment by userID to an item they can see and notifies the list owner
func (s *Service) Comment(ctx context.Context, userID, itemID int64, in CommentInput) (*models.Comment, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := Validate(in); err != nil {
		return nil, err
	}
	item, list, _, err := s.visibleItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	comment, err := s.Comments.Create(ctx, &models.Comment{
		ItemID:  item.ID,
		OwnerID: userID,
		Text:    in.Text,
	})
	if err != nil {
		return nil, mapStoreErr(err, "", "item not found")
	}
	if author, err := s.userSummary(ctx, userID); err == nil {
		ref := author.OwnerRef()
		comment.Owner = &ref
	}

	s.notify(ctx, list.OwnerID, userID, models.NotificationComment, &item.ID)
	return comment, nil
}

// DeleteComment removes a comment written by userID
func (s *Service) DeleteComment(ctx context.Context, userID, commentID int64) error {
	comment, err := s.Comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return apperr.NotFound("comment %d not found", commentID)
	}
	if comment.OwnerID != userID {
		return apperr.Forbidden("not enough permissions")
	}
	return mapStoreErr(s.Comments.Delete(ctx, commentID), "", "comment not found")
}

// Reserve marks a wishlist item as going to be gifted by userID. Owners
// cannot reserve their own items and an item holds one reservation.
func (s *Service) Reserve(ctx context.Context, userID, itemID int64) (*models.Reservation, error) {
	item, list, _, err := s.visibleItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if !list.IsWishlist() {
		return nil, apperr.Invalid("only wishlist items can be reserved")
	}
	if list.IsOwnedBy(userID) {
		return nil, apperr.Forbidden("cannot reserve your own item")
	}

	existing, err := s.Reservations.GetByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("item is already reserved")
	}

	res, err := s.Reservations.Create(ctx, &models.Reservation{ItemID: item.ID, ReserverID: userID})
	if err != nil {
		return nil, mapStoreErr(err, "item is already reserved", "item not found")
	}

	s.logger.WithFields(logrus.Fields{"item_id": item.ID, "reserver_id": userID}).Debug("Item reserved")
	return res, nil
}

// Unreserve cancels userID's reservation of an item
func (s *Service) Unreserve(ctx context.Context, userID, itemID int64) error {
	res, err := s.Reservations.GetByItem(ctx, itemID)
	if err != nil {
		return err
	}
	if res == nil {
		return apperr.NotFound("reservation not found")
	}
	if res.ReserverID != userID {
		return apperr.Forbidden("only the reserver can cancel a reservation")
	}
	return mapStoreErr(s.Reservations.Delete(ctx, res.ID), "", "reservation not found")
}
