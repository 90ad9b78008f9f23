package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Kerhoff/listshare/internal/models"
)

var (
	// ErrDuplicate is returned when a write violates a uniqueness rule
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned by writes addressing a missing row
	ErrNotFound = errors.New("record not found")
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// ListRepository defines the interface for list data operations
type ListRepository interface {
	Create(ctx context.Context, list *models.List) (*models.List, error)
	GetByID(ctx context.Context, id int64) (*models.List, error)
	GetByPublicKey(ctx context.Context, key uuid.UUID) (*models.List, error)
	GetByOwner(ctx context.Context, ownerID int64) ([]*models.List, error)
	GetPublic(ctx context.Context, page Page) ([]*models.List, error)
	GetByOwners(ctx context.Context, ownerIDs []int64, levels []models.PrivacyLevel, page Page) ([]*models.List, error)
	Update(ctx context.Context, id int64, update ListUpdate) (*models.List, error)
	Delete(ctx context.Context, id int64) error
}

// ItemRepository defines the interface for item data operations
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	GetByList(ctx context.Context, listID int64) ([]*models.Item, error)
	CountByLists(ctx context.Context, listIDs []int64) (map[int64]int, error)
	Update(ctx context.Context, id int64, update ItemUpdate) (*models.Item, error)
	Delete(ctx context.Context, id int64) error
}

// LikeRepository defines the interface for like operations
type LikeRepository interface {
	Create(ctx context.Context, like *models.Like) (*models.Like, error)
	Delete(ctx context.Context, itemID, userID int64) error
	GetByItems(ctx context.Context, itemIDs []int64) ([]*models.Like, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	GetByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error)
	Delete(ctx context.Context, id int64) error
}

// ReservationRepository defines the interface for reservation operations
type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error)
	GetByItem(ctx context.Context, itemID int64) (*models.Reservation, error)
	GetByItems(ctx context.Context, itemIDs []int64) (map[int64]*models.Reservation, error)
	Delete(ctx context.Context, id int64) error
}

// FriendshipRepository defines the interface for friendship operations.
// Records are unique per unordered pair of users. UpdateStatus and Delete
// only touch a record still in the given status and return ErrNotFound
// otherwise.
type FriendshipRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) (*models.Friendship, error)
	GetByID(ctx context.Context, id int64) (*models.Friendship, error)
	GetByPair(ctx context.Context, a, b int64) (*models.Friendship, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Friendship, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	UpdateStatus(ctx context.Context, id int64, from, to models.FriendshipStatus) (*models.Friendship, error)
	Delete(ctx context.Context, id int64, status models.FriendshipStatus) error
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) (*models.Notification, error)
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID int64, page Page) ([]*models.Notification, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
	MarkRead(ctx context.Context, id int64) (bool, error)
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
}

// GoalRepository defines the interface for goal tracker operations
type GoalRepository interface {
	Create(ctx context.Context, tracker *models.GoalTracker) (*models.GoalTracker, error)
	GetByID(ctx context.Context, id int64) (*models.GoalTracker, error)
	GetByItems(ctx context.Context, itemIDs []int64) (map[int64]*models.GoalTracker, error)
	Update(ctx context.Context, id int64, update GoalUpdate) (*models.GoalTracker, error)
	LogProgress(ctx context.Context, trackerID int64, value float64) (*models.GoalTracker, error)
	GetLogs(ctx context.Context, trackerID int64) ([]*models.GoalLog, error)
}

// Page represents offset pagination
type Page struct {
	Offset int
	Limit  int
}

// DefaultPageLimit is used when a page does not carry a limit
const DefaultPageLimit = 50

// Normalize fills in the default limit and clamps negative values
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = DefaultPageLimit
	}
	return p
}

// ListUpdate holds the fields of a list to change. Nil fields are left as is.
type ListUpdate struct {
	Title        *string
	Description  *string
	ListType     *models.ListType
	PrivacyLevel *models.PrivacyLevel
	ThemeName    *string
}

// Empty returns true if nothing would change
func (u ListUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.ListType == nil && u.PrivacyLevel == nil && u.ThemeName == nil
}

// ItemUpdate holds the fields of an item to change. Nil fields are left as is.
type ItemUpdate struct {
	Title        *string
	Description  *string
	ImageURL     *string
	ThumbnailURL *string
	IsCompleted  *bool
}

// Empty returns true if nothing would change
func (u ItemUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.ImageURL == nil && u.ThumbnailURL == nil && u.IsCompleted == nil
}

// GoalUpdate holds the fields of a goal tracker to change. Nil fields are left as is.
type GoalUpdate struct {
	GoalType    *models.GoalType
	TargetValue *float64
	TargetCount *int
	Unit        *string
}

// Empty returns true if nothing would change
func (u GoalUpdate) Empty() bool {
	return u.GoalType == nil && u.TargetValue == nil && u.TargetCount == nil && u.Unit == nil
}

// Store aggregates the repositories of the entity store
type Store struct {
	Users         UserRepository
	Lists         ListRepository
	Items         ItemRepository
	Likes         LikeRepository
	Comments      CommentRepository
	Reservations  ReservationRepository
	Friendships   FriendshipRepository
	Notifications NotificationRepository
	Goals         GoalRepository
}
