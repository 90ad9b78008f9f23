package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

type likeRepository struct {
	db *db
}

func (r *likeRepository) Create(_ context.Context, like *models.Like) (*models.Like, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := likeKey{like.ItemID, like.UserID}
	if _, ok := r.db.likes[key]; ok {
		return nil, fmt.Errorf("failed to create like: %w", repository.ErrDuplicate)
	}
	like.CreatedAt = time.Now()
	c := *like
	r.db.likes[key] = &c
	return like, nil
}

func (r *likeRepository) Delete(_ context.Context, itemID, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := likeKey{itemID, userID}
	if _, ok := r.db.likes[key]; !ok {
		return fmt.Errorf("like on item %d: %w", itemID, repository.ErrNotFound)
	}
	delete(r.db.likes, key)
	return nil
}

func (r *likeRepository) GetByItems(_ context.Context, itemIDs []int64) ([]*models.Like, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var likes []*models.Like
	for k, l := range r.db.likes {
		if containsID(itemIDs, k.itemID) {
			c := *l
			likes = append(likes, &c)
		}
	}
	sortOldestFirst(likes, func(l *models.Like) (int64, int64) { return l.CreatedAt.UnixNano(), l.UserID })
	return likes, nil
}

type commentRepository struct {
	db *db
}

func (r *commentRepository) Create(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.items[comment.ItemID]; !ok {
		return nil, fmt.Errorf("failed to create comment: item %d does not exist", comment.ItemID)
	}
	comment.ID = r.db.id()
	comment.CreatedAt = time.Now()
	c := *comment
	c.Owner = nil
	r.db.comments[comment.ID] = &c
	return comment, nil
}

func (r *commentRepository) GetByID(_ context.Context, id int64) (*models.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if c, ok := r.db.comments[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *commentRepository) GetByItems(_ context.Context, itemIDs []int64) ([]*models.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var comments []*models.Comment
	for _, c := range r.db.comments {
		if containsID(itemIDs, c.ItemID) {
			cp := *c
			owner := r.db.summary(c.OwnerID).OwnerRef()
			cp.Owner = &owner
			comments = append(comments, &cp)
		}
	}
	sortOldestFirst(comments, func(c *models.Comment) (int64, int64) { return c.CreatedAt.UnixNano(), c.ID })
	return comments, nil
}

func (r *commentRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.comments[id]; !ok {
		return fmt.Errorf("comment %d: %w", id, repository.ErrNotFound)
	}
	delete(r.db.comments, id)
	return nil
}

type reservationRepository struct {
	db *db
}

func (r *reservationRepository) Create(_ context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, other := range r.db.reservations {
		if other.ItemID == reservation.ItemID {
			return nil, fmt.Errorf("failed to create reservation: %w", repository.ErrDuplicate)
		}
	}
	reservation.ID = r.db.id()
	reservation.CreatedAt = time.Now()
	c := *reservation
	r.db.reservations[reservation.ID] = &c
	return reservation, nil
}

func (r *reservationRepository) GetByItem(_ context.Context, itemID int64) (*models.Reservation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, res := range r.db.reservations {
		if res.ItemID == itemID {
			c := *res
			return &c, nil
		}
	}
	return nil, nil
}

func (r *reservationRepository) GetByItems(_ context.Context, itemIDs []int64) (map[int64]*models.Reservation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	reservations := make(map[int64]*models.Reservation, len(itemIDs))
	for _, res := range r.db.reservations {
		if containsID(itemIDs, res.ItemID) {
			c := *res
			reservations[res.ItemID] = &c
		}
	}
	return reservations, nil
}

func (r *reservationRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.reservations[id]; !ok {
		return fmt.Errorf("reservation %d: %w", id, repository.ErrNotFound)
	}
	delete(r.db.reservations, id)
	return nil
}
