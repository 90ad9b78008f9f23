package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/auth"
	"github.com/Kerhoff/listshare/internal/models"
)

// RegisterInput is the payload of a registration
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput identifies a user by email or name
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// PasswordChange is the payload of a password change
type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

// EmailChange is the payload of an email change
type EmailChange struct {
	NewEmail string `json:"new_email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// AccountDeletion confirms an account deletion
type AccountDeletion struct {
	Password string `json:"password" validate:"required"`
}

// Profile is another user's public page as seen by a viewer
type Profile struct {
	User  models.UserSummary `json:"user"`
	Lists []*ListSummary     `json:"lists"`
}

// Register creates an account
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := Validate(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.Create(ctx, &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, mapStoreErr(err, "name or email already registered", "")
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID}).Info("User registered")
	return user, nil
}

// Login checks credentials and issues an access token. The username may be
// either the email or the name of the account.
func (s *Service) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	user, err := s.Users.GetByEmail(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		if user, err = s.Users.GetByName(ctx, in.Username); err != nil {
			return nil, err
		}
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, in.Password) {
		return nil, apperr.AuthRequired("incorrect username or password")
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("account is disabled")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to an active user
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Authenticate(token)
	if err != nil {
		return nil, apperr.AuthRequired("could not validate credentials")
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperr.AuthRequired("could not validate credentials")
	}
	return user, nil
}

// Me returns the account of userID
func (s *Service) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user %d not found", userID)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one
func (s *Service) ChangePassword(ctx context.Context, userID int64, in PasswordChange) error {
	if err := Validate(in); err != nil {
		return err
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, in.CurrentPassword) {
		return apperr.Invalid("incorrect current password")
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if _, err := s.Users.Update(ctx, user); err != nil {
		return mapStoreErr(err, "", "user not found")
	}
	s.logger.WithField("user_id", userID).Info("Password changed")
	return nil
}

// ChangeEmail replaces the email after checking the password
func (s *Service) ChangeEmail(ctx context.Context, userID int64, in EmailChange) (*models.User, error) {
	in.NewEmail = strings.TrimSpace(in.NewEmail)
	if err := Validate(in); err != nil {
		return nil, err
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		return nil, apperr.Invalid("incorrect password")
	}

	taken, err := s.Users.GetByEmail(ctx, in.NewEmail)
	if err != nil {
		return nil, err
	}
	if taken != nil && taken.ID != userID {
		return nil, apperr.Conflict("email already registered")
	}

	user.Email = in.NewEmail
	updated, err := s.Users.Update(ctx, user)
	if err != nil {
		return nil, mapStoreErr(err, "email already registered", "user not found")
	}
	return updated, nil
}

// DeleteAccount removes the account and everything it owns
func (s *Service) DeleteAccount(ctx context.Context, userID int64, in AccountDeletion) error {
	if err := Validate(in); err != nil {
		return err
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		return apperr.Forbidden("incorrect password")
	}
	if err := s.Users.Delete(ctx, userID); err != nil {
		return mapStoreErr(err, "", "user not found")
	}
	s.logger.WithField("user_id", userID).Info("Account deleted")
	return nil
}

// LinkTelegram attaches a Telegram chat to the account the token belongs to
func (s *Service) LinkTelegram(ctx context.Context, token string, chatID int64) (*models.User, error) {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	if other, err := s.Users.GetByTelegramChatID(ctx, chatID); err != nil {
		return nil, err
	} else if other != nil && other.ID != user.ID {
		// The chat moves to the new account
		other.TelegramChatID = nil
		if _, err := s.Users.Update(ctx, other); err != nil {
			return nil, mapStoreErr(err, "", "user not found")
		}
	}

	user.TelegramChatID = &chatID
	updated, err := s.Users.Update(ctx, user)
	if err != nil {
		return nil, mapStoreErr(err, "chat already linked", "user not found")
	}
	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "chat_id": chatID}).Info("Telegram chat linked")
	return updated, nil
}

// UserByTelegramChat returns the account linked to chatID, or nil
func (s *Service) UserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error) {
	return s.Users.GetByTelegramChatID(ctx, chatID)
}

// Profile returns userID's public identity and the lists viewer may see
func (s *Service) Profile(ctx context.Context, viewer *int64, userID int64) (*Profile, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user %d not found", userID)
	}

	lists, err := s.Lists.GetByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible, err := s.Visibility.FilterVisible(ctx, viewer, lists)
	if err != nil {
		return nil, err
	}
	summaries, err := s.summarize(ctx, visible)
	if err != nil {
		return nil, err
	}

	return &Profile{User: user.Summary().OwnerRef(), Lists: summaries}, nil
}
