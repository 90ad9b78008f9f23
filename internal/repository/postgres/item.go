package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

const itemColumns = `id, list_id, title, description, image_url, thumbnail_url, is_completed, created_at, updated_at`

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func itemDest(item *models.Item) []any {
	return []any{
		&item.ID,
		&item.ListID,
		&item.Title,
		&item.Description,
		&item.ImageURL,
		&item.ThumbnailURL,
		&item.IsCompleted,
		&item.CreatedAt,
		&item.UpdatedAt,
	}
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	query := `
		INSERT INTO items (list_id, title, description, image_url, thumbnail_url, is_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		item.ListID,
		item.Title,
		item.Description,
		item.ImageURL,
		item.ThumbnailURL,
		item.IsCompleted,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return nil, wrapWrite("create item", err)
	}

	return item, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item := &models.Item{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(itemDest(item)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item by ID: %w", err)
	}
	return item, nil
}

func (r *itemRepository) GetByList(ctx context.Context, listID int64) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE list_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item := &models.Item{}
		if err := rows.Scan(itemDest(item)...); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *itemRepository) CountByLists(ctx context.Context, listIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(listIDs))
	if len(listIDs) == 0 {
		return counts, nil
	}

	query := `SELECT list_id, COUNT(*) FROM items WHERE list_id = ANY($1) GROUP BY list_id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(listIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var listID int64
		var n int
		if err := rows.Scan(&listID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan item count: %w", err)
		}
		counts[listID] = n
	}
	return counts, rows.Err()
}

// itemUpdateMap returns the columns set by update
func itemUpdateMap(update repository.ItemUpdate) map[string]any {
	set := map[string]any{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.ImageURL != nil {
		set["image_url"] = *update.ImageURL
	}
	if update.ThumbnailURL != nil {
		set["thumbnail_url"] = *update.ThumbnailURL
	}
	if update.IsCompleted != nil {
		set["is_completed"] = *update.IsCompleted
	}
	return set
}

func (r *itemRepository) Update(ctx context.Context, id int64, update repository.ItemUpdate) (*models.Item, error) {
	set := itemUpdateMap(update)
	set["updated_at"] = time.Now()

	query, args, err := psql.Update("items").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + itemColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item update: %w", err)
	}

	item := &models.Item{}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(itemDest(item)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return item, nil
}

func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return expectAffected(result, "item", id)
}
