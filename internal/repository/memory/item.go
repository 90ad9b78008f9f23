package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

type itemRepository struct {
	db *db
}

func cloneItem(it *models.Item) *models.Item {
	c := *it
	return &c
}

func (r *itemRepository) Create(_ context.Context, item *models.Item) (*models.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.lists[item.ListID]; !ok {
		return nil, fmt.Errorf("failed to create item: list %d does not exist", item.ListID)
	}

	now := time.Now()
	item.ID = r.db.id()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.db.items[item.ID] = cloneItem(item)
	return item, nil
}

func (r *itemRepository) GetByID(_ context.Context, id int64) (*models.Item, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if it, ok := r.db.items[id]; ok {
		return cloneItem(it), nil
	}
	return nil, nil
}

func (r *itemRepository) GetByList(_ context.Context, listID int64) ([]*models.Item, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var items []*models.Item
	for _, it := range r.db.items {
		if it.ListID == listID {
			items = append(items, cloneItem(it))
		}
	}
	sortOldestFirst(items, func(it *models.Item) (int64, int64) { return it.CreatedAt.UnixNano(), it.ID })
	return items, nil
}

func (r *itemRepository) CountByLists(_ context.Context, listIDs []int64) (map[int64]int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[int64]int, len(listIDs))
	for _, it := range r.db.items {
		if containsID(listIDs, it.ListID) {
			counts[it.ListID]++
		}
	}
	return counts, nil
}

func (r *itemRepository) Update(_ context.Context, id int64, update repository.ItemUpdate) (*models.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	it, ok := r.db.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, repository.ErrNotFound)
	}
	if update.Title != nil {
		it.Title = *update.Title
	}
	if update.Description != nil {
		v := *update.Description
		it.Description = &v
	}
	if update.ImageURL != nil {
		v := *update.ImageURL
		it.ImageURL = &v
	}
	if update.ThumbnailURL != nil {
		v := *update.ThumbnailURL
		it.ThumbnailURL = &v
	}
	if update.IsCompleted != nil {
		it.IsCompleted = *update.IsCompleted
	}
	it.UpdatedAt = time.Now()
	return cloneItem(it), nil
}

func (r *itemRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.items[id]; !ok {
		return fmt.Errorf("item %d: %w", id, repository.ErrNotFound)
	}
	r.db.deleteItem(id)
	return nil
}
