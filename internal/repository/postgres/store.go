package postgres

import (
	"database/sql"

	"github.com/Kerhoff/listshare/internal/repository"
)

// NewStore wires every Postgres repository onto db
func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		Users:         NewUserRepository(db),
		Lists:         NewListRepository(db),
		Items:         NewItemRepository(db),
		Likes:         NewLikeRepository(db),
		Comments:      NewCommentRepository(db),
		Reservations:  NewReservationRepository(db),
		Friendships:   NewFriendshipRepository(db),
		Notifications: NewNotificationRepository(db),
		Goals:         NewGoalRepository(db),
	}
}
