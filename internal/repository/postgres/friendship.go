package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

const friendshipColumns = `id, requester_id, addressee_id, status, created_at, updated_at`

type friendshipRepository struct {
	db *sql.DB
}

// NewFriendshipRepository creates a new friendship repository
func NewFriendshipRepository(db *sql.DB) repository.FriendshipRepository {
	return &friendshipRepository{db: db}
}

func friendshipDest(f *models.Friendship) []any {
	return []any{&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt}
}

func (r *friendshipRepository) Create(ctx context.Context, friendship *models.Friendship) (*models.Friendship, error) {
	query := `
		INSERT INTO friendships (requester_id, addressee_id, user_low, user_high, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	friendship.CreatedAt = now
	friendship.UpdatedAt = now
	low, high := friendship.Pair()

	err := r.db.QueryRowContext(ctx, query,
		friendship.RequesterID,
		friendship.AddresseeID,
		low,
		high,
		friendship.Status,
		friendship.CreatedAt,
		friendship.UpdatedAt,
	).Scan(&friendship.ID, &friendship.CreatedAt, &friendship.UpdatedAt)

	if err != nil {
		return nil, wrapWrite("create friendship", err)
	}

	return friendship, nil
}

func (r *friendshipRepository) GetByID(ctx context.Context, id int64) (*models.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships WHERE id = $1`

	f := &models.Friendship{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(friendshipDest(f)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get friendship by ID: %w", err)
	}
	return f, nil
}

func (r *friendshipRepository) GetByPair(ctx context.Context, a, b int64) (*models.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships WHERE user_low = $1 AND user_high = $2`

	low, high := models.CanonicalPair(a, b)
	f := &models.Friendship{}
	if err := r.db.QueryRowContext(ctx, query, low, high).Scan(friendshipDest(f)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get friendship by pair: %w", err)
	}
	return f, nil
}

func (r *friendshipRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Friendship, error) {
	query := `
		SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
			ru.name, ru.email, au.name, au.email
		FROM friendships f
		JOIN users ru ON ru.id = f.requester_id
		JOIN users au ON au.id = f.addressee_id
		WHERE f.requester_id = $1 OR f.addressee_id = $1
		ORDER BY f.created_at DESC, f.id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friendships: %w", err)
	}
	defer rows.Close()

	var friendships []*models.Friendship
	for rows.Next() {
		f := &models.Friendship{
			Requester: &models.UserSummary{},
			Addressee: &models.UserSummary{},
		}
		dest := append(friendshipDest(f), &f.Requester.Name, &f.Requester.Email, &f.Addressee.Name, &f.Addressee.Email)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		f.Requester.ID = f.RequesterID
		f.Addressee.ID = f.AddresseeID
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

func (r *friendshipRepository) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
		FROM friendships
		WHERE status = $2 AND (requester_id = $1 OR addressee_id = $1)`

	rows, err := r.db.QueryContext(ctx, query, userID, models.FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to query friend ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *friendshipRepository) UpdateStatus(ctx context.Context, id int64, from, to models.FriendshipStatus) (*models.Friendship, error) {
	query := `
		UPDATE friendships SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + friendshipColumns

	f := &models.Friendship{}
	if err := r.db.QueryRowContext(ctx, query, id, from, to, time.Now()).Scan(friendshipDest(f)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("friendship %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update friendship: %w", err)
	}
	return f, nil
}

func (r *friendshipRepository) Delete(ctx context.Context, id int64, status models.FriendshipStatus) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = $1 AND status = $2`, id, status)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	return expectAffected(result, "friendship", id)
}
