// Package visibility decides who may read a list and what they see of it.
//
// The rule for a viewer V and a list L owned by O:
//
//	V == O                          allow, owner view
//	L is public                     allow
//	L is friends_only, V anonymous  deny, auth_required
//	L is friends_only, V not friend deny, not_friends
//	L is friends_only, V friend     allow
//	L is private                    deny, private
//
// Items, likes and comments inherit the decision of their list.
package visibility

import (
	"context"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/models"
)

// Reason explains a denial
type Reason string

const (
	ReasonAuthRequired Reason = "auth_required"
	ReasonNotFriends   Reason = "not_friends"
	ReasonPrivate      Reason = "private"
)

// FriendChecker answers whether two users are friends
type FriendChecker interface {
	AreFriends(ctx context.Context, a, b int64) (bool, error)
}

// Decision is the outcome of a visibility check
type Decision struct {
	Allowed bool
	IsOwner bool
	Reason  Reason
	viewer  *int64
}

// Err maps a denial onto the error taxonomy. The error carries the owner
// reference so clients can ask the viewer to log in or send a friend request.
func (d Decision) Err(owner models.UserSummary) error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonAuthRequired:
		return apperr.AuthRequired("login required to view this list").WithOwner(string(d.Reason), owner)
	case ReasonNotFriends:
		return apperr.Forbidden("only friends of the owner can view this list").WithOwner(string(d.Reason), owner)
	default:
		return apperr.Forbidden("this list is private").WithOwner(string(ReasonPrivate), owner)
	}
}

// HiddenErr is Err for lookups by share key, where a private list must look
// like it does not exist
func (d Decision) HiddenErr(owner models.UserSummary) error {
	if !d.Allowed && d.Reason == ReasonPrivate {
		return apperr.NotFound("list not found")
	}
	return d.Err(owner)
}

// ReservationState is what a viewer learns about an item's reservation
type ReservationState struct {
	Reserved     bool `json:"reserved"`
	ReservedByMe bool `json:"reserved_by_me"`
}

// Reservation redacts res for the viewer of the decision. The owner never
// learns whether an item is reserved and nobody learns who reserved it.
func (d Decision) Reservation(res *models.Reservation) ReservationState {
	if d.IsOwner || res == nil {
		return ReservationState{}
	}
	return ReservationState{
		Reserved:     true,
		ReservedByMe: d.viewer != nil && *d.viewer == res.ReserverID,
	}
}

// Engine evaluates visibility of lists
type Engine struct {
	friends FriendChecker
}

// NewEngine creates an Engine consulting friends
func NewEngine(friends FriendChecker) *Engine {
	return &Engine{friends: friends}
}

// CanView decides whether viewer may read list. A nil viewer is anonymous.
func (e *Engine) CanView(ctx context.Context, viewer *int64, list *models.List) (Decision, error) {
	return e.decide(ctx, viewer, list, nil)
}

// decide evaluates the rule, consulting known before asking the friend checker
func (e *Engine) decide(ctx context.Context, viewer *int64, list *models.List, known map[int64]bool) (Decision, error) {
	d := Decision{viewer: viewer}

	if viewer != nil && *viewer == list.OwnerID {
		d.Allowed = true
		d.IsOwner = true
		return d, nil
	}

	switch list.PrivacyLevel {
	case models.PrivacyPublic:
		d.Allowed = true
		return d, nil

	case models.PrivacyFriendsOnly:
		if viewer == nil {
			d.Reason = ReasonAuthRequired
			return d, nil
		}
		friends, ok := known[list.OwnerID]
		if !ok {
			var err error
			friends, err = e.friends.AreFriends(ctx, *viewer, list.OwnerID)
			if err != nil {
				return Decision{}, err
			}
			if known != nil {
				known[list.OwnerID] = friends
			}
		}
		if !friends {
			d.Reason = ReasonNotFriends
			return d, nil
		}
		d.Allowed = true
		return d, nil

	default:
		d.Reason = ReasonPrivate
		return d, nil
	}
}

// FilterVisible keeps the lists viewer may read, preserving order. The
// friendship of each owner is looked up at most once.
func (e *Engine) FilterVisible(ctx context.Context, viewer *int64, lists []*models.List) ([]*models.List, error) {
	known := make(map[int64]bool)
	visible := make([]*models.List, 0, len(lists))
	for _, l := range lists {
		d, err := e.decide(ctx, viewer, l, known)
		if err != nil {
			return nil, err
		}
		if d.Allowed {
			visible = append(visible, l)
		}
	}
	return visible, nil
}

// VisibleLevels returns the privacy levels of another user's lists that
// viewer may read, given whether they are friends
func VisibleLevels(friends bool) []models.PrivacyLevel {
	if friends {
		return []models.PrivacyLevel{models.PrivacyPublic, models.PrivacyFriendsOnly}
	}
	return []models.PrivacyLevel{models.PrivacyPublic}
}
