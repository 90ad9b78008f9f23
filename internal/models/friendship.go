package models

import "time"

// FriendshipStatus represents the state of a relationship between two users
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
)

// Friendship is the single record describing the relationship of a pair of
// users, whoever sent the request.
type Friendship struct {
	ID          int64            `json:"id" db:"id"`
	RequesterID int64            `json:"requester_id" db:"requester_id"`
	AddresseeID int64            `json:"addressee_id" db:"addressee_id"`
	Status      FriendshipStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
	Requester   *UserSummary     `json:"requester,omitempty"`
	Addressee   *UserSummary     `json:"addressee,omitempty"`
}

// CanonicalPair orders two user ids so that the smaller one comes first.
// Both directions of a relationship map to the same key.
func CanonicalPair(a, b int64) (low, high int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Pair returns the canonical pair of the friendship
func (f *Friendship) Pair() (low, high int64) {
	return CanonicalPair(f.RequesterID, f.AddresseeID)
}

// IsPending returns true if the request is still outstanding
func (f *Friendship) IsPending() bool {
	return f.Status == FriendshipPending
}

// IsAccepted returns true if both users are friends
func (f *Friendship) IsAccepted() bool {
	return f.Status == FriendshipAccepted
}

// Involves returns true if userID is the requester or the addressee
func (f *Friendship) Involves(userID int64) bool {
	return f.RequesterID == userID || f.AddresseeID == userID
}

// Other returns the counterpart of userID in the friendship
func (f *Friendship) Other(userID int64) int64 {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}
