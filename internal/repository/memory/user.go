package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

type userRepository struct {
	db *db
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.TelegramChatID != nil {
		id := *u.TelegramChatID
		c.TelegramChatID = &id
	}
	return &c
}

// conflicts reports whether another user already holds a unique value of u
func (r *userRepository) conflicts(u *models.User) bool {
	for _, other := range r.db.users {
		if other.ID == u.ID {
			continue
		}
		if other.Name == u.Name || strings.EqualFold(other.Email, u.Email) {
			return true
		}
		if u.TelegramChatID != nil && other.TelegramChatID != nil && *u.TelegramChatID == *other.TelegramChatID {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.conflicts(user) {
		return nil, fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
	}

	now := time.Now()
	user.ID = r.db.id()
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now
	r.db.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r *userRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if u, ok := r.db.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *userRepository) GetByIDs(_ context.Context, ids []int64) (map[int64]*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := make(map[int64]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			users[id] = cloneUser(u)
		}
	}
	return users, nil
}

func (r *userRepository) find(match func(*models.User) bool) *models.User {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r *userRepository) GetByName(_ context.Context, name string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Name == name }), nil
}

func (r *userRepository) GetByTelegramChatID(_ context.Context, chatID int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.TelegramChatID != nil && *u.TelegramChatID == chatID }), nil
}

func (r *userRepository) Update(_ context.Context, user *models.User) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[user.ID]; !ok {
		return nil, fmt.Errorf("user %d: %w", user.ID, repository.ErrNotFound)
	}
	if r.conflicts(user) {
		return nil, fmt.Errorf("failed to update user: %w", repository.ErrDuplicate)
	}

	user.UpdatedAt = time.Now()
	r.db.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r *userRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
	}
	r.db.deleteUser(id)
	return nil
}
