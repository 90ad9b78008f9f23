package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

type friendshipRepository struct {
	db *db
}

func cloneFriendship(f *models.Friendship) *models.Friendship {
	c := *f
	c.Requester = nil
	c.Addressee = nil
	return &c
}

func (r *friendshipRepository) Create(_ context.Context, friendship *models.Friendship) (*models.Friendship, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	low, high := friendship.Pair()
	if low == high {
		return nil, fmt.Errorf("failed to create friendship: users must differ")
	}
	key := pairKey{low, high}
	if _, ok := r.db.pairs[key]; ok {
		return nil, fmt.Errorf("failed to create friendship: %w", repository.ErrDuplicate)
	}

	now := time.Now()
	friendship.ID = r.db.id()
	friendship.CreatedAt = now
	friendship.UpdatedAt = now
	r.db.friendships[friendship.ID] = cloneFriendship(friendship)
	r.db.pairs[key] = friendship.ID
	return friendship, nil
}

func (r *friendshipRepository) GetByID(_ context.Context, id int64) (*models.Friendship, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if f, ok := r.db.friendships[id]; ok {
		return cloneFriendship(f), nil
	}
	return nil, nil
}

func (r *friendshipRepository) GetByPair(_ context.Context, a, b int64) (*models.Friendship, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	low, high := models.CanonicalPair(a, b)
	if id, ok := r.db.pairs[pairKey{low, high}]; ok {
		return cloneFriendship(r.db.friendships[id]), nil
	}
	return nil, nil
}

func (r *friendshipRepository) ListByUser(_ context.Context, userID int64) ([]*models.Friendship, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var friendships []*models.Friendship
	for _, f := range r.db.friendships {
		if f.Involves(userID) {
			c := cloneFriendship(f)
			c.Requester = r.db.summary(f.RequesterID)
			c.Addressee = r.db.summary(f.AddresseeID)
			friendships = append(friendships, c)
		}
	}
	sortNewestFirst(friendships, func(f *models.Friendship) (int64, int64) { return f.CreatedAt.UnixNano(), f.ID })
	return friendships, nil
}

func (r *friendshipRepository) FriendIDs(_ context.Context, userID int64) ([]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var ids []int64
	for _, f := range r.db.friendships {
		if f.IsAccepted() && f.Involves(userID) {
			ids = append(ids, f.Other(userID))
		}
	}
	return ids, nil
}

func (r *friendshipRepository) UpdateStatus(_ context.Context, id int64, from, to models.FriendshipStatus) (*models.Friendship, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	f, ok := r.db.friendships[id]
	if !ok || f.Status != from {
		return nil, fmt.Errorf("%s friendship %d: %w", from, id, repository.ErrNotFound)
	}
	f.Status = to
	f.UpdatedAt = time.Now()
	return cloneFriendship(f), nil
}

func (r *friendshipRepository) Delete(_ context.Context, id int64, status models.FriendshipStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if f, ok := r.db.friendships[id]; !ok || f.Status != status {
		return fmt.Errorf("%s friendship %d: %w", status, id, repository.ErrNotFound)
	}
	r.db.deleteFriendship(id)
	return nil
}
