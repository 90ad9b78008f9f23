package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/notify"
)

// Deliver pushes a notification to the recipient's linked chat. Users
// without a linked chat are unreachable on this channel.
func (b *Bot) Deliver(ctx context.Context, env notify.Envelope) error {
	user, err := b.users.GetByID(ctx, env.RecipientID)
	if err != nil {
		return err
	}
	if user == nil || !user.HasTelegram() {
		return notify.ErrUnreachable
	}
	return b.SendMessage(*user.TelegramChatID, FormatNotification(env.Message))
}

// FormatNotification renders a notification as a chat message
func FormatNotification(n models.NotificationView) string {
	name := escapeMarkdown(n.Sender.Name)
	switch n.Type {
	case models.NotificationFriendRequest:
		return fmt.Sprintf("👋 *%s* sent you a friend request", name)
	case models.NotificationLike:
		return fmt.Sprintf("❤️ *%s* liked your item", name)
	case models.NotificationComment:
		return fmt.Sprintf("💬 *%s* commented on your item", name)
	default:
		return fmt.Sprintf("🔔 New notification from *%s*", name)
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
