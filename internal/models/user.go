package models

import "time"

// User represents a registered account
type User struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty" db:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// UserSummary is the public subset of a user embedded in other payloads
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Summary returns the public subset of the user
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// OwnerRef returns the identity a client needs to prompt for login or a
// friend request, without the email.
func (u UserSummary) OwnerRef() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name}
}

// HasTelegram returns true if the user linked a Telegram chat
func (u *User) HasTelegram() bool {
	return u.TelegramChatID != nil && *u.TelegramChatID != 0
}
