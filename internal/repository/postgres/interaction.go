package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

type likeRepository struct {
	db *sql.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *sql.DB) repository.LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) (*models.Like, error) {
	query := `INSERT INTO likes (item_id, user_id, created_at) VALUES ($1, $2, $3)`

	like.CreatedAt = time.Now()
	if _, err := r.db.ExecContext(ctx, query, like.ItemID, like.UserID, like.CreatedAt); err != nil {
		return nil, wrapWrite("create like", err)
	}
	return like, nil
}

func (r *likeRepository) Delete(ctx context.Context, itemID, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE item_id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return expectAffected(result, "like on item", itemID)
}

func (r *likeRepository) GetByItems(ctx context.Context, itemIDs []int64) ([]*models.Like, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	query := `SELECT item_id, user_id, created_at FROM likes WHERE item_id = ANY($1) ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}
	defer rows.Close()

	var likes []*models.Like
	for rows.Next() {
		l := &models.Like{}
		if err := rows.Scan(&l.ItemID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		likes = append(likes, l)
	}
	return likes, rows.Err()
}

type commentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	query := `INSERT INTO comments (item_id, owner_id, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	comment.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		comment.ItemID, comment.OwnerID, comment.Text, comment.CreatedAt,
	).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return nil, wrapWrite("create comment", err)
	}
	return comment, nil
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT id, item_id, owner_id, text, created_at FROM comments WHERE id = $1`

	c := &models.Comment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.ItemID, &c.OwnerID, &c.Text, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	return c, nil
}

func (r *commentRepository) GetByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	query := `SELECT c.id, c.item_id, c.owner_id, c.text, c.created_at, u.name
		FROM comments c JOIN users u ON u.id = c.owner_id
		WHERE c.item_id = ANY($1) ORDER BY c.created_at ASC, c.id ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{Owner: &models.UserSummary{}}
		if err := rows.Scan(&c.ID, &c.ItemID, &c.OwnerID, &c.Text, &c.CreatedAt, &c.Owner.Name); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.Owner.ID = c.OwnerID
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return expectAffected(result, "comment", id)
}

type reservationRepository struct {
	db *sql.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	query := `INSERT INTO reservations (item_id, reserver_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	reservation.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		reservation.ItemID, reservation.ReserverID, reservation.CreatedAt,
	).Scan(&reservation.ID, &reservation.CreatedAt)
	if err != nil {
		return nil, wrapWrite("create reservation", err)
	}
	return reservation, nil
}

func (r *reservationRepository) GetByItem(ctx context.Context, itemID int64) (*models.Reservation, error) {
	query := `SELECT id, item_id, reserver_id, created_at FROM reservations WHERE item_id = $1`

	res := &models.Reservation{}
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(&res.ID, &res.ItemID, &res.ReserverID, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reservation by item: %w", err)
	}
	return res, nil
}

func (r *reservationRepository) GetByItems(ctx context.Context, itemIDs []int64) (map[int64]*models.Reservation, error) {
	reservations := make(map[int64]*models.Reservation, len(itemIDs))
	if len(itemIDs) == 0 {
		return reservations, nil
	}

	query := `SELECT id, item_id, reserver_id, created_at FROM reservations WHERE item_id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		res := &models.Reservation{}
		if err := rows.Scan(&res.ID, &res.ItemID, &res.ReserverID, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations[res.ItemID] = res
	}
	return reservations, rows.Err()
}

func (r *reservationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	return expectAffected(result, "reservation", id)
}
