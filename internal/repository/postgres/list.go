package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

const listColumns = `id, owner_id, public_key, title, description, list_type, privacy_level, theme_name, created_at, updated_at`

var listColumnsQualified = []string{
	"l.id", "l.owner_id", "l.public_key", "l.title", "l.description", "l.list_type",
	"l.privacy_level", "l.theme_name", "l.created_at", "l.updated_at",
}

type listRepository struct {
	db *sql.DB
}

// NewListRepository creates a new list repository
func NewListRepository(db *sql.DB) repository.ListRepository {
	return &listRepository{db: db}
}

func listDest(list *models.List) []any {
	return []any{
		&list.ID,
		&list.OwnerID,
		&list.PublicKey,
		&list.Title,
		&list.Description,
		&list.ListType,
		&list.PrivacyLevel,
		&list.ThemeName,
		&list.CreatedAt,
		&list.UpdatedAt,
	}
}

func (r *listRepository) Create(ctx context.Context, list *models.List) (*models.List, error) {
	query := `
		INSERT INTO lists (owner_id, public_key, title, description, list_type, privacy_level, theme_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	list.CreatedAt = now
	list.UpdatedAt = now
	if list.PublicKey == uuid.Nil {
		list.PublicKey = uuid.New()
	}
	if list.ThemeName == "" {
		list.ThemeName = models.DefaultTheme
	}

	err := r.db.QueryRowContext(ctx, query,
		list.OwnerID,
		list.PublicKey,
		list.Title,
		list.Description,
		list.ListType,
		list.PrivacyLevel,
		list.ThemeName,
		list.CreatedAt,
		list.UpdatedAt,
	).Scan(&list.ID, &list.CreatedAt, &list.UpdatedAt)

	if err != nil {
		return nil, wrapWrite("create list", err)
	}

	return list, nil
}

func (r *listRepository) getOne(ctx context.Context, what, where string, arg any) (*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE ` + where

	list := &models.List{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(listDest(list)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get list by %s: %w", what, err)
	}
	return list, nil
}

func (r *listRepository) GetByID(ctx context.Context, id int64) (*models.List, error) {
	return r.getOne(ctx, "ID", "id = $1", id)
}

func (r *listRepository) GetByPublicKey(ctx context.Context, key uuid.UUID) (*models.List, error) {
	return r.getOne(ctx, "public key", "public_key = $1", key)
}

func (r *listRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists by owner: %w", err)
	}
	defer rows.Close()

	var lists []*models.List
	for rows.Next() {
		list := &models.List{}
		if err := rows.Scan(listDest(list)...); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

func (r *listRepository) GetPublic(ctx context.Context, page repository.Page) ([]*models.List, error) {
	return r.queryWithOwner(ctx, sq.Eq{"l.privacy_level": models.PrivacyPublic}, page)
}

func (r *listRepository) GetByOwners(ctx context.Context, ownerIDs []int64, levels []models.PrivacyLevel, page repository.Page) ([]*models.List, error) {
	if len(ownerIDs) == 0 || len(levels) == 0 {
		return nil, nil
	}
	names := make([]string, len(levels))
	for i, level := range levels {
		names[i] = string(level)
	}
	where := sq.And{
		sq.Expr("l.owner_id = ANY(?)", pq.Array(ownerIDs)),
		sq.Expr("l.privacy_level = ANY(?)", pq.Array(names)),
	}
	return r.queryWithOwner(ctx, where, page)
}

// queryWithOwner returns lists newest first with the owner summary joined in
func (r *listRepository) queryWithOwner(ctx context.Context, where sq.Sqlizer, page repository.Page) ([]*models.List, error) {
	page = page.Normalize()
	query, args, err := psql.
		Select(append(listColumnsQualified, "u.name", "u.email")...).
		From("lists l").
		Join("users u ON u.id = l.owner_id").
		Where(where).
		OrderBy("l.created_at DESC", "l.id DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	var lists []*models.List
	for rows.Next() {
		list := &models.List{}
		owner := &models.UserSummary{}
		if err := rows.Scan(append(listDest(list), &owner.Name, &owner.Email)...); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		owner.ID = list.OwnerID
		list.Owner = owner
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// listUpdateMap returns the columns set by update
func listUpdateMap(update repository.ListUpdate) map[string]any {
	set := map[string]any{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.ListType != nil {
		set["list_type"] = *update.ListType
	}
	if update.PrivacyLevel != nil {
		set["privacy_level"] = *update.PrivacyLevel
	}
	if update.ThemeName != nil {
		set["theme_name"] = *update.ThemeName
	}
	return set
}

func (r *listRepository) Update(ctx context.Context, id int64, update repository.ListUpdate) (*models.List, error) {
	set := listUpdateMap(update)
	set["updated_at"] = time.Now()

	query, args, err := psql.Update("lists").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + listColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list update: %w", err)
	}

	list := &models.List{}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(listDest(list)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("list %d: %w", id, repository.ErrNotFound)
		}
		return nil, wrapWrite("update list", err)
	}
	return list, nil
}

func (r *listRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return expectAffected(result, "list", id)
}
