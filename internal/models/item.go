package models

import "time"

// Item represents an entry of a list
type Item struct {
	ID           int64     `json:"id" db:"id"`
	ListID       int64     `json:"list_id" db:"list_id"`
	Title        string    `json:"title" db:"title"`
	Description  *string   `json:"description" db:"description"`
	ImageURL     *string   `json:"image_url" db:"image_url"`
	ThumbnailURL *string   `json:"thumbnail_url" db:"thumbnail_url"`
	IsCompleted  bool      `json:"is_completed" db:"is_completed"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Like marks that a user liked an item. The (item, user) pair is its identity.
type Like struct {
	ItemID    int64     `json:"item_id" db:"item_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Comment represents a comment on an item
type Comment struct {
	ID        int64        `json:"id" db:"id"`
	ItemID    int64        `json:"item_id" db:"item_id"`
	OwnerID   int64        `json:"owner_id" db:"owner_id"`
	Text      string       `json:"text" db:"text"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	Owner     *UserSummary `json:"owner,omitempty"`
}

// Reservation pairs a wishlist item with the user who is going to gift it
type Reservation struct {
	ID         int64     `json:"id" db:"id"`
	ItemID     int64     `json:"item_id" db:"item_id"`
	ReserverID int64     `json:"reserver_id" db:"reserver_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
