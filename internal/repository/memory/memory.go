// Package memory is an in-process entity store with the same uniqueness and
// cascade rules as the Postgres schema.
package memory

import (
	"sort"
	"sync"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

type likeKey struct {
	itemID int64
	userID int64
}

type pairKey struct {
	low  int64
	high int64
}

type db struct {
	mu     sync.RWMutex
	nextID int64

	users         map[int64]*models.User
	lists         map[int64]*models.List
	items         map[int64]*models.Item
	likes         map[likeKey]*models.Like
	comments      map[int64]*models.Comment
	reservations  map[int64]*models.Reservation
	friendships   map[int64]*models.Friendship
	notifications map[int64]*models.Notification
	goals         map[int64]*models.GoalTracker
	goalLogs      map[int64]*models.GoalLog

	pairs map[pairKey]int64
}

// NewStore creates an empty in-memory store
func NewStore() *repository.Store {
	d := &db{
		users:         make(map[int64]*models.User),
		lists:         make(map[int64]*models.List),
		items:         make(map[int64]*models.Item),
		likes:         make(map[likeKey]*models.Like),
		comments:      make(map[int64]*models.Comment),
		reservations:  make(map[int64]*models.Reservation),
		friendships:   make(map[int64]*models.Friendship),
		notifications: make(map[int64]*models.Notification),
		goals:         make(map[int64]*models.GoalTracker),
		goalLogs:      make(map[int64]*models.GoalLog),
		pairs:         make(map[pairKey]int64),
	}
	return &repository.Store{
		Users:         &userRepository{d},
		Lists:         &listRepository{d},
		Items:         &itemRepository{d},
		Likes:         &likeRepository{d},
		Comments:      &commentRepository{d},
		Reservations:  &reservationRepository{d},
		Friendships:   &friendshipRepository{d},
		Notifications: &notificationRepository{d},
		Goals:         &goalRepository{d},
	}
}

// id hands out a store wide sequence. Callers hold the write lock.
func (d *db) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *db) summary(userID int64) *models.UserSummary {
	if u, ok := d.users[userID]; ok {
		s := u.Summary()
		return &s
	}
	return &models.UserSummary{ID: userID}
}

// The delete helpers mirror ON DELETE CASCADE. Callers hold the write lock.

func (d *db) deleteUser(id int64) {
	for listID, l := range d.lists {
		if l.OwnerID == id {
			d.deleteList(listID)
		}
	}
	for k := range d.likes {
		if k.userID == id {
			delete(d.likes, k)
		}
	}
	for cid, c := range d.comments {
		if c.OwnerID == id {
			delete(d.comments, cid)
		}
	}
	for rid, r := range d.reservations {
		if r.ReserverID == id {
			delete(d.reservations, rid)
		}
	}
	for fid, f := range d.friendships {
		if f.Involves(id) {
			d.deleteFriendship(fid)
		}
	}
	for nid, n := range d.notifications {
		if n.RecipientID == id || n.SenderID == id {
			delete(d.notifications, nid)
		}
	}
	delete(d.users, id)
}

func (d *db) deleteList(id int64) {
	for itemID, it := range d.items {
		if it.ListID == id {
			d.deleteItem(itemID)
		}
	}
	delete(d.lists, id)
}

func (d *db) deleteItem(id int64) {
	for k := range d.likes {
		if k.itemID == id {
			delete(d.likes, k)
		}
	}
	for cid, c := range d.comments {
		if c.ItemID == id {
			delete(d.comments, cid)
		}
	}
	for rid, r := range d.reservations {
		if r.ItemID == id {
			delete(d.reservations, rid)
		}
	}
	for gid, g := range d.goals {
		if g.ItemID == id {
			for lid, l := range d.goalLogs {
				if l.TrackerID == gid {
					delete(d.goalLogs, lid)
				}
			}
			delete(d.goals, gid)
		}
	}
	// related_item_id is ON DELETE SET NULL
	for _, n := range d.notifications {
		if n.RelatedItemID != nil && *n.RelatedItemID == id {
			n.RelatedItemID = nil
		}
	}
	delete(d.items, id)
}

func (d *db) deleteFriendship(id int64) {
	if f, ok := d.friendships[id]; ok {
		low, high := f.Pair()
		delete(d.pairs, pairKey{low, high})
		delete(d.friendships, id)
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func paginate[T any](rows []T, page repository.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(rows) {
		return nil
	}
	end := page.Offset + page.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[page.Offset:end]
}

// sortNewestFirst orders by creation time then id, both descending
func sortNewestFirst[T any](rows []T, key func(T) (int64, int64)) {
	sort.Slice(rows, func(i, j int) bool {
		ti, ii := key(rows[i])
		tj, ij := key(rows[j])
		if ti != tj {
			return ti > tj
		}
		return ii > ij
	})
}

// sortOldestFirst orders by creation time then id, both ascending
func sortOldestFirst[T any](rows []T, key func(T) (int64, int64)) {
	sort.Slice(rows, func(i, j int) bool {
		ti, ii := key(rows[i])
		tj, ij := key(rows[j])
		if ti != tj {
			return ti < tj
		}
		return ii < ij
	})
}
