package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
	"github.com/Kerhoff/listshare/internal/visibility"
)

// CreateListInput is the payload of a new list
type CreateListInput struct {
	Title        string              `json:"title" validate:"required,max=200"`
	Description  *string             `json:"description" validate:"omitempty,max=2000"`
	ListType     models.ListType     `json:"list_type" validate:"required,list_type"`
	PrivacyLevel models.PrivacyLevel `json:"privacy_level" validate:"omitempty,privacy_level"`
	ThemeName    string              `json:"theme_name" validate:"omitempty,max=50"`
}

// UpdateListInput patches a list. Absent fields are left unchanged.
type UpdateListInput struct {
	Title        *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string              `json:"description" validate:"omitempty,max=2000"`
	ListType     *models.ListType     `json:"list_type" validate:"omitempty,list_type"`
	PrivacyLevel *models.PrivacyLevel `json:"privacy_level" validate:"omitempty,privacy_level"`
	ThemeName    *string              `json:"theme_name" validate:"omitempty,min=1,max=50"`
}

// ListSummary is a list with its item count, used by listings and feeds
type ListSummary struct {
	*models.List
	ItemsCount int `json:"items_count"`
}

// ListView is a full list as seen by a viewer
type ListView struct {
	*models.List
	IsOwner bool        `json:"is_owner"`
	Items   []*ItemView `json:"items"`
}

// CreateList creates a list owned by ownerID. Lists are private unless a
// privacy level is given.
func (s *Service) CreateList(ctx context.Context, ownerID int64, in CreateListInput) (*models.List, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := Validate(in); err != nil {
		return nil, err
	}
	if in.PrivacyLevel == "" {
		in.PrivacyLevel = models.PrivacyPrivate
	}
	if in.ThemeName == "" {
		in.ThemeName = models.DefaultTheme
	}

	list, err := s.Lists.Create(ctx, &models.List{
		OwnerID:      ownerID,
		PublicKey:    uuid.New(),
		Title:        in.Title,
		Description:  in.Description,
		ListType:     in.ListType,
		PrivacyLevel: in.PrivacyLevel,
		ThemeName:    in.ThemeName,
	})
	if err != nil {
		return nil, mapStoreErr(err, "list already exists", "")
	}

	s.logger.WithFields(logrus.Fields{
		"list_id":  list.ID,
		"owner_id": ownerID,
		"privacy":  list.PrivacyLevel,
	}).Info("List created")
	return list, nil
}

// MyLists returns the lists of ownerID with their item counts
func (s *Service) MyLists(ctx context.Context, ownerID int64) ([]*ListSummary, error) {
	lists, err := s.Lists.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, lists)
}

// GetList returns a list with its items as viewer sees it
func (s *Service) GetList(ctx context.Context, viewer *int64, listID int64) (*ListView, error) {
	list, err := s.getList(ctx, listID)
	if err != nil {
		return nil, err
	}
	d, err := s.authorize(ctx, viewer, list)
	if err != nil {
		return nil, err
	}
	return s.listView(ctx, d, viewer, list)
}

// GetListByPublicKey resolves a share link. A private list behaves as if the
// link did not exist, other tiers follow the usual visibility rule.
func (s *Service) GetListByPublicKey(ctx context.Context, viewer *int64, key string) (*ListView, error) {
	parsed, err := uuid.Parse(key)
	if err != nil {
		return nil, apperr.NotFound("list not found")
	}
	list, err := s.Lists.GetByPublicKey(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, apperr.NotFound("list not found")
	}

	d, err := s.Visibility.CanView(ctx, viewer, list)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		owner, err := s.userSummary(ctx, list.OwnerID)
		if err != nil {
			return nil, err
		}
		return nil, d.HiddenErr(owner)
	}
	return s.listView(ctx, d, viewer, list)
}

// UpdateList patches a list owned by userID
func (s *Service) UpdateList(ctx context.Context, userID, listID int64, in UpdateListInput) (*models.List, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	list, err := s.ownedList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	update := repository.ListUpdate{
		Title:        in.Title,
		Description:  in.Description,
		ListType:     in.ListType,
		PrivacyLevel: in.PrivacyLevel,
		ThemeName:    in.ThemeName,
	}
	if update.Empty() {
		return list, nil
	}

	updated, err := s.Lists.Update(ctx, listID, update)
	if err != nil {
		return nil, mapStoreErr(err, "", "list not found")
	}
	return updated, nil
}

// DeleteList removes a list owned by userID with all of its items
func (s *Service) DeleteList(ctx context.Context, userID, listID int64) error {
	if _, err := s.ownedList(ctx, userID, listID); err != nil {
		return err
	}
	if err := s.Lists.Delete(ctx, listID); err != nil {
		return mapStoreErr(err, "", "list not found")
	}
	s.logger.WithFields(logrus.Fields{"list_id": listID, "owner_id": userID}).Info("List deleted")
	return nil
}

// PublicFeed returns the newest public lists
func (s *Service) PublicFeed(ctx context.Context, page repository.Page) ([]*ListSummary, error) {
	lists, err := s.Lists.GetPublic(ctx, page.Normalize())
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, lists)
}

// FriendsFeed returns the newest lists of userID's friends that userID may read
func (s *Service) FriendsFeed(ctx context.Context, userID int64, page repository.Page) ([]*ListSummary, error) {
	friendIDs, err := s.Friends.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return []*ListSummary{}, nil
	}

	lists, err := s.Lists.GetByOwners(ctx, friendIDs, visibility.VisibleLevels(true), page.Normalize())
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, lists)
}

// summarize attaches item counts to lists
func (s *Service) summarize(ctx context.Context, lists []*models.List) ([]*ListSummary, error) {
	summaries := make([]*ListSummary, 0, len(lists))
	if len(lists) == 0 {
		return summaries, nil
	}

	ids := make([]int64, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
	}
	counts, err := s.Items.CountByLists(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, l := range lists {
		if l.Owner != nil {
			ref := l.Owner.OwnerRef()
			l.Owner = &ref
		}
		summaries = append(summaries, &ListSummary{List: l, ItemsCount: counts[l.ID]})
	}
	return summaries, nil
}

// listView assembles the items of list for the viewer of d
func (s *Service) listView(ctx context.Context, d visibility.Decision, viewer *int64, list *models.List) (*ListView, error) {
	if list.Owner == nil {
		owner, err := s.userSummary(ctx, list.OwnerID)
		if err != nil {
			return nil, err
		}
		ref := owner.OwnerRef()
		list.Owner = &ref
	}

	items, err := s.Items.GetByList(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	views, err := s.itemViews(ctx, d, viewer, items)
	if err != nil {
		return nil, err
	}
	return &ListView{List: list, IsOwner: d.IsOwner, Items: views}, nil
}
