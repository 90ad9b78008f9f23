package models

import (
	"time"

	"github.com/google/uuid"
)

// ListType defines what kind of entries a list holds
type ListType string

const (
	ListTypeWishlist ListType = "wishlist"
	ListTypeTodo     ListType = "todo"
	ListTypeBooks    ListType = "books"
	ListTypeMovies   ListType = "movies"
)

// Valid returns true for a known list type
func (t ListType) Valid() bool {
	switch t {
	case ListTypeWishlist, ListTypeTodo, ListTypeBooks, ListTypeMovies:
		return true
	}
	return false
}

// PrivacyLevel is the visibility tier of a list. Tiers are ordered by the
// trust they require: public < friends_only < private.
type PrivacyLevel string

const (
	PrivacyPrivate     PrivacyLevel = "private"
	PrivacyFriendsOnly PrivacyLevel = "friends_only"
	PrivacyPublic      PrivacyLevel = "public"
)

// Valid returns true for a known privacy level
func (p PrivacyLevel) Valid() bool {
	switch p {
	case PrivacyPrivate, PrivacyFriendsOnly, PrivacyPublic:
		return true
	}
	return false
}

// Rank orders privacy levels by openness: private 0, friends_only 1, public 2.
func (p PrivacyLevel) Rank() int {
	switch p {
	case PrivacyPublic:
		return 2
	case PrivacyFriendsOnly:
		return 1
	default:
		return 0
	}
}

// DefaultTheme is applied when a list is created without a theme
const DefaultTheme = "default"

// List represents a user's list of items
type List struct {
	ID           int64        `json:"id" db:"id"`
	OwnerID      int64        `json:"owner_id" db:"owner_id"`
	PublicKey    uuid.UUID    `json:"public_url_key" db:"public_key"`
	Title        string       `json:"title" db:"title"`
	Description  *string      `json:"description" db:"description"`
	ListType     ListType     `json:"list_type" db:"list_type"`
	PrivacyLevel PrivacyLevel `json:"privacy_level" db:"privacy_level"`
	ThemeName    string       `json:"theme_name" db:"theme_name"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
	Owner        *UserSummary `json:"owner,omitempty"`
}

// IsOwnedBy returns true if userID owns the list
func (l *List) IsOwnedBy(userID int64) bool {
	return l.OwnerID == userID
}

// IsWishlist returns true if items of the list can be reserved
func (l *List) IsWishlist() bool {
	return l.ListType == ListTypeWishlist
}
