package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

type listRepository struct {
	db *db
}

func cloneList(l *models.List) *models.List {
	c := *l
	c.Owner = nil
	return &c
}

func listKey(l *models.List) (int64, int64) {
	return l.CreatedAt.UnixNano(), l.ID
}

func (r *listRepository) Create(_ context.Context, list *models.List) (*models.List, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[list.OwnerID]; !ok {
		return nil, fmt.Errorf("failed to create list: owner %d does not exist", list.OwnerID)
	}
	if list.PublicKey == uuid.Nil {
		list.PublicKey = uuid.New()
	}
	for _, other := range r.db.lists {
		if other.PublicKey == list.PublicKey {
			return nil, fmt.Errorf("failed to create list: %w", repository.ErrDuplicate)
		}
	}
	if list.ThemeName == "" {
		list.ThemeName = models.DefaultTheme
	}

	now := time.Now()
	list.ID = r.db.id()
	list.CreatedAt = now
	list.UpdatedAt = now
	r.db.lists[list.ID] = cloneList(list)
	return list, nil
}

func (r *listRepository) GetByID(_ context.Context, id int64) (*models.List, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if l, ok := r.db.lists[id]; ok {
		return cloneList(l), nil
	}
	return nil, nil
}

func (r *listRepository) GetByPublicKey(_ context.Context, key uuid.UUID) (*models.List, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, l := range r.db.lists {
		if l.PublicKey == key {
			return cloneList(l), nil
		}
	}
	return nil, nil
}

func (r *listRepository) GetByOwner(_ context.Context, ownerID int64) ([]*models.List, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var lists []*models.List
	for _, l := range r.db.lists {
		if l.OwnerID == ownerID {
			lists = append(lists, cloneList(l))
		}
	}
	sortNewestFirst(lists, listKey)
	return lists, nil
}

func (r *listRepository) GetPublic(_ context.Context, page repository.Page) ([]*models.List, error) {
	return r.withOwner(func(l *models.List) bool { return l.PrivacyLevel == models.PrivacyPublic }, page), nil
}

func (r *listRepository) GetByOwners(_ context.Context, ownerIDs []int64, levels []models.PrivacyLevel, page repository.Page) ([]*models.List, error) {
	return r.withOwner(func(l *models.List) bool {
		if !containsID(ownerIDs, l.OwnerID) {
			return false
		}
		for _, level := range levels {
			if l.PrivacyLevel == level {
				return true
			}
		}
		return false
	}, page), nil
}

func (r *listRepository) withOwner(match func(*models.List) bool, page repository.Page) []*models.List {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var lists []*models.List
	for _, l := range r.db.lists {
		if match(l) {
			c := cloneList(l)
			c.Owner = r.db.summary(l.OwnerID)
			lists = append(lists, c)
		}
	}
	sortNewestFirst(lists, listKey)
	return paginate(lists, page)
}

func (r *listRepository) Update(_ context.Context, id int64, update repository.ListUpdate) (*models.List, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	l, ok := r.db.lists[id]
	if !ok {
		return nil, fmt.Errorf("list %d: %w", id, repository.ErrNotFound)
	}
	if update.Title != nil {
		l.Title = *update.Title
	}
	if update.Description != nil {
		desc := *update.Description
		l.Description = &desc
	}
	if update.ListType != nil {
		l.ListType = *update.ListType
	}
	if update.PrivacyLevel != nil {
		l.PrivacyLevel = *update.PrivacyLevel
	}
	if update.ThemeName != nil {
		l.ThemeName = *update.ThemeName
	}
	l.UpdatedAt = time.Now()
	return cloneList(l), nil
}

func (r *listRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.lists[id]; !ok {
		return fmt.Errorf("list %d: %w", id, repository.ErrNotFound)
	}
	r.db.deleteList(id)
	return nil
}
