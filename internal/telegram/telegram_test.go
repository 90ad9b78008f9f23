package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/notify"
	"github.com/Kerhoff/listshare/internal/repository/memory"
	"github.com/Kerhoff/listshare/pkg/logger"
)

type sent struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu  sync.Mutex
	out []sent
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.out = append(s.out, sent{chatID: msg.ChatID, text: msg.Text})
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) messages() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.out...)
}

func command(chatID int64, text, cmd string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID, Type: "private"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}},
	}
}

func TestDeliverRequiresLinkedChat(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sender := &fakeSender{}
	bot := &Bot{sender: sender, users: store.Users, logger: logger.Discard()}

	user, err := store.Users.Create(ctx, &models.User{Name: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	env := notify.Envelope{
		RecipientID: user.ID,
		Message: models.NotificationView{
			Type:   models.NotificationLike,
			Sender: models.UserSummary{ID: 9, Name: "bob_the_builder"},
		},
	}
	assert.ErrorIs(t, bot.Deliver(ctx, env), notify.ErrUnreachable)
	assert.ErrorIs(t, bot.Deliver(ctx, notify.Envelope{RecipientID: 404}), notify.ErrUnreachable)

	chat := int64(77)
	user.TelegramChatID = &chat
	_, err = store.Users.Update(ctx, user)
	require.NoError(t, err)

	require.NoError(t, bot.Deliver(ctx, env))
	out := sender.messages()
	require.Len(t, out, 1)
	assert.Equal(t, chat, out[0].chatID)
	assert.Contains(t, out[0].text, `bob\_the\_builder`)
	assert.Contains(t, out[0].text, "liked")
}

func TestFormatNotification(t *testing.T) {
	from := models.UserSummary{Name: "ana"}
	assert.Contains(t, FormatNotification(models.NotificationView{Type: models.NotificationFriendRequest, Sender: from}), "friend request")
	assert.Contains(t, FormatNotification(models.NotificationView{Type: models.NotificationComment, Sender: from}), "commented")
}

type handlerFunc func(ctx context.Context, bot Sender, message *tgbotapi.Message, args []string) error

func (f handlerFunc) Handle(ctx context.Context, bot Sender, message *tgbotapi.Message, args []string) error {
	return f(ctx, bot, message, args)
}

func TestRouter(t *testing.T) {
	router := NewRouter(logger.Discard())
	sender := &fakeSender{}

	var gotArgs []string
	router.RegisterCommand("echo", handlerFunc(func(_ context.Context, _ Sender, _ *tgbotapi.Message, args []string) error {
		gotArgs = args
		return nil
	}))
	router.RegisterCommand("fail", handlerFunc(func(context.Context, Sender, *tgbotapi.Message, []string) error {
		return errors.New("boom")
	}))

	router.HandleMessage(context.Background(), sender, command(1, "/echo a  b", "echo"))
	assert.Equal(t, []string{"a", "b"}, gotArgs)
	assert.Empty(t, sender.messages())

	router.HandleMessage(context.Background(), sender, command(1, "/fail", "fail"))
	router.HandleMessage(context.Background(), sender, command(1, "/nope", "nope"))
	router.HandleMessage(context.Background(), sender, &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1}})

	out := sender.messages()
	require.Len(t, out, 2)
	assert.Contains(t, out[0].text, "error occurred")
	assert.Contains(t, out[1].text, "Unknown command")
}
