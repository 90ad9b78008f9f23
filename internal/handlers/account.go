package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/notify"
	"github.com/Kerhoff/listshare/internal/repository"
	"github.com/Kerhoff/listshare/internal/service"
	"github.com/Kerhoff/listshare/internal/telegram"
)

// Accounts is the part of the service the chat commands use
type Accounts interface {
	LinkTelegram(ctx context.Context, token string, chatID int64) (*models.User, error)
	UserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error)
	MyLists(ctx context.Context, ownerID int64) ([]*service.ListSummary, error)
}

// Inbox lists a user's notifications
type Inbox interface {
	List(ctx context.Context, recipientID int64, page repository.Page) (*notify.Listing, error)
}

func reply(bot telegram.Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// linkedUser returns the account linked to the chat, replying with a hint
// when there is none
func linkedUser(ctx context.Context, accounts Accounts, bot telegram.Sender, chatID int64) (*models.User, error) {
	user, err := accounts.UserByTelegramChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("lookup linked user: %w", err)
	}
	if user == nil {
		return nil, reply(bot, chatID, "🔗 This chat is not linked yet. Use `/link <token>` first.")
	}
	return user, nil
}

// ---------------------------------------------------------------------------
// LinkHandler – /link <token>
// ---------------------------------------------------------------------------

// LinkHandler connects the chat to the account owning an access token
type LinkHandler struct {
	accounts Accounts
	logger   *logrus.Logger
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(accounts Accounts, logger *logrus.Logger) *LinkHandler {
	return &LinkHandler{accounts: accounts, logger: logger}
}

// Handle processes the /link command.
func (h *LinkHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if !message.Chat.IsPrivate() {
		return reply(bot, message.Chat.ID, "🔒 Please link your account in a private chat with me.")
	}
	if len(args) != 1 {
		return reply(bot, message.Chat.ID, "❌ Please provide your access token.\nUsage: `/link <token>`")
	}

	user, err := h.accounts.LinkTelegram(ctx, args[0], message.Chat.ID)
	if err != nil {
		if apperr.Is(err, apperr.KindAuthRequired) {
			return reply(bot, message.Chat.ID, "❌ That token is invalid or expired.")
		}
		return fmt.Errorf("link chat: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": user.ID,
	}).Info("Chat linked")

	return reply(bot, message.Chat.ID, fmt.Sprintf("✅ Linked to *%s*. Notifications will arrive here.", user.Name))
}

// ---------------------------------------------------------------------------
// UnreadHandler – /unread
// ---------------------------------------------------------------------------

// UnreadHandler shows the newest unread notifications of the linked account
type UnreadHandler struct {
	accounts Accounts
	inbox    Inbox
	logger   *logrus.Logger
}

// NewUnreadHandler creates a new UnreadHandler.
func NewUnreadHandler(accounts Accounts, inbox Inbox, logger *logrus.Logger) *UnreadHandler {
	return &UnreadHandler{accounts: accounts, inbox: inbox, logger: logger}
}

const unreadShown = 5

// Handle processes the /unread command.
func (h *UnreadHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, _ []string) error {
	user, err := linkedUser(ctx, h.accounts, bot, message.Chat.ID)
	if err != nil || user == nil {
		return err
	}

	listing, err := h.inbox.List(ctx, user.ID, repository.Page{Limit: 50})
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}
	if listing.UnreadCount == 0 {
		return reply(bot, message.Chat.ID, "📭 No unread notifications.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📬 *%d unread*\n\n", listing.UnreadCount)
	shown := 0
	for _, n := range listing.Notifications {
		if n.IsRead {
			continue
		}
		sb.WriteString(telegram.FormatNotification(n))
		sb.WriteString("\n")
		shown++
		if shown == unreadShown {
			break
		}
	}

	return reply(bot, message.Chat.ID, sb.String())
}

// ---------------------------------------------------------------------------
// ListsHandler – /lists
// ---------------------------------------------------------------------------

// ListsHandler shows the lists of the linked account
type ListsHandler struct {
	accounts Accounts
	logger   *logrus.Logger
}

// NewListsHandler creates a new ListsHandler.
func NewListsHandler(accounts Accounts, logger *logrus.Logger) *ListsHandler {
	return &ListsHandler{accounts: accounts, logger: logger}
}

var privacyIcons = map[models.PrivacyLevel]string{
	models.PrivacyPrivate:     "🔒",
	models.PrivacyFriendsOnly: "👥",
	models.PrivacyPublic:      "🌍",
}

// Handle processes the /lists command.
func (h *ListsHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, _ []string) error {
	user, err := linkedUser(ctx, h.accounts, bot, message.Chat.ID)
	if err != nil || user == nil {
		return err
	}

	lists, err := h.accounts.MyLists(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("my lists: %w", err)
	}
	if len(lists) == 0 {
		return reply(bot, message.Chat.ID, "📝 You have no lists yet.")
	}

	var sb strings.Builder
	sb.WriteString("📋 *Your lists*\n\n")
	for _, l := range lists {
		fmt.Fprintf(&sb, "%s *%s* (%s) - %d items\n", privacyIcons[l.PrivacyLevel], l.Title, l.ListType, l.ItemsCount)
	}
	return reply(bot, message.Chat.ID, sb.String())
}
