package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
	"github.com/Kerhoff/listshare/internal/visibility"
)

// CreateItemInput is the payload of a new item
type CreateItemInput struct {
	Title        string  `json:"title" validate:"required,max=500"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	ImageURL     *string `json:"image_url" validate:"omitempty,url,max=2048"`
	ThumbnailURL *string `json:"thumbnail_url" validate:"omitempty,url,max=2048"`
}

// UpdateItemInput patches an item. Absent fields are left unchanged.
type UpdateItemInput struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=500"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	ImageURL     *string `json:"image_url" validate:"omitempty,url,max=2048"`
	ThumbnailURL *string `json:"thumbnail_url" validate:"omitempty,url,max=2048"`
	IsCompleted  *bool   `json:"is_completed"`
}

// CopyItemInput names the list an item is copied into
type CopyItemInput struct {
	TargetListID int64 `json:"target_list_id" validate:"required,gt=0"`
}

// ItemView is an item with its social state as seen by a viewer
type ItemView struct {
	*models.Item
	visibility.ReservationState
	LikesCount int                 `json:"likes_count"`
	LikedByMe  bool                `json:"liked_by_me"`
	Comments   []*models.Comment   `json:"comments"`
	Goal       *models.GoalTracker `json:"goal,omitempty"`
}

// CreateItem adds an item to a list owned by userID
func (s *Service) CreateItem(ctx context.Context, userID, listID int64, in CreateItemInput) (*models.Item, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.ownedList(ctx, userID, listID); err != nil {
		return nil, err
	}

	item, err := s.Items.Create(ctx, &models.Item{
		ListID:       listID,
		Title:        in.Title,
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		ThumbnailURL: in.ThumbnailURL,
	})
	if err != nil {
		return nil, mapStoreErr(err, "", "list not found")
	}
	return item, nil
}

// UpdateItem patches an item of a list owned by userID
func (s *Service) UpdateItem(ctx context.Context, userID, itemID int64, in UpdateItemInput) (*models.Item, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	item, _, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	update := repository.ItemUpdate{
		Title:        in.Title,
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		ThumbnailURL: in.ThumbnailURL,
		IsCompleted:  in.IsCompleted,
	}
	if update.Empty() {
		return item, nil
	}

	updated, err := s.Items.Update(ctx, itemID, update)
	if err != nil {
		return nil, mapStoreErr(err, "", "item not found")
	}
	return updated, nil
}

// DeleteItem removes an item of a list owned by userID
func (s *Service) DeleteItem(ctx context.Context, userID, itemID int64) error {
	if _, _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	return mapStoreErr(s.Items.Delete(ctx, itemID), "", "item not found")
}

// CopyItem copies an item userID can see into one of userID's own lists.
// Only the content travels, social state stays with the source.
func (s *Service) CopyItem(ctx context.Context, userID, itemID int64, in CopyItemInput) (*models.Item, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	source, _, _, err := s.visibleItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedList(ctx, userID, in.TargetListID); err != nil {
		return nil, err
	}

	copied, err := s.Items.Create(ctx, &models.Item{
		ListID:       in.TargetListID,
		Title:        source.Title,
		Description:  source.Description,
		ImageURL:     source.ImageURL,
		ThumbnailURL: source.ThumbnailURL,
	})
	if err != nil {
		return nil, mapStoreErr(err, "", "list not found")
	}

	s.logger.WithFields(logrus.Fields{
		"source_item_id": itemID,
		"item_id":        copied.ID,
		"list_id":        in.TargetListID,
	}).Debug("Item copied")
	return copied, nil
}

// itemViews loads likes, comments, reservations and goals of items in batches
func (s *Service) itemViews(ctx context.Context, d visibility.Decision, viewer *int64, items []*models.Item) ([]*ItemView, error) {
	views := make([]*ItemView, 0, len(items))
	if len(items) == 0 {
		return views, nil
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	likes, err := s.Likes.GetByItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := s.Comments.GetByItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	reservations, err := s.Reservations.GetByItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	goals, err := s.Goals.GetByItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*ItemView, len(items))
	for _, it := range items {
		v := &ItemView{
			Item:             it,
			ReservationState: d.Reservation(reservations[it.ID]),
			Comments:         []*models.Comment{},
			Goal:             goals[it.ID],
		}
		byID[it.ID] = v
		views = append(views, v)
	}
	for _, l := range likes {
		v, ok := byID[l.ItemID]
		if !ok {
			continue
		}
		v.LikesCount++
		if viewer != nil && l.UserID == *viewer {
			v.LikedByMe = true
		}
	}
	for _, c := range comments {
		v, ok := byID[c.ItemID]
		if !ok {
			continue
		}
		if c.Owner != nil {
			ref := c.Owner.OwnerRef()
			c.Owner = &ref
		}
		v.Comments = append(v.Comments, c)
	}
	return views, nil
}
