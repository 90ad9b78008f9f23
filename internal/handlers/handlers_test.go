package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/listshare/internal/auth"
	"github.com/Kerhoff/listshare/internal/metrics"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/notify"
	"github.com/Kerhoff/listshare/internal/repository/memory"
	"github.com/Kerhoff/listshare/internal/service"
	"github.com/Kerhoff/listshare/pkg/logger"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.texts = append(s.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

type nopQueue struct{}

func (nopQueue) Enqueue(notify.Envelope) bool { return true }
func (nopQueue) Run(context.Context)          {}

func message(chatType, text string, cmdLen int) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 500, Type: chatType},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func TestLinkThenUnreadAndLists(t *testing.T) {
	ctx := context.Background()
	log := logger.Discard()
	store := memory.NewStore()
	tokens := auth.NewTokens("secret", time.Hour)
	svc := service.New(store, notify.NewFanout(store.Notifications, nopQueue{}, metrics.New(), log), tokens, log)

	alice, err := svc.Register(ctx, service.RegisterInput{Name: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	bob, err := svc.Register(ctx, service.RegisterInput{Name: "bob", Email: "bob@example.com", Password: "secret1"})
	require.NoError(t, err)

	bot := &fakeSender{}
	link := NewLinkHandler(svc, log)
	unread := NewUnreadHandler(svc, svc.Inbox, log)
	lists := NewListsHandler(svc, log)

	require.NoError(t, unread.Handle(ctx, bot, message("private", "/unread", 7), nil))
	assert.Contains(t, bot.last(), "not linked")

	require.NoError(t, link.Handle(ctx, bot, message("group", "/link x", 5), []string{"x"}))
	assert.Contains(t, bot.last(), "private chat")

	require.NoError(t, link.Handle(ctx, bot, message("private", "/link bad", 5), []string{"bad"}))
	assert.Contains(t, bot.last(), "invalid")

	token, err := tokens.Issue(alice.ID)
	require.NoError(t, err)
	require.NoError(t, link.Handle(ctx, bot, message("private", "/link "+token, 5), []string{token}))
	assert.Contains(t, bot.last(), "alice")

	linked, err := svc.UserByTelegramChat(ctx, 500)
	require.NoError(t, err)
	require.NotNil(t, linked)
	assert.Equal(t, alice.ID, linked.ID)

	require.NoError(t, unread.Handle(ctx, bot, message("private", "/unread", 7), nil))
	assert.Contains(t, bot.last(), "No unread")

	_, err = svc.Friends.SendRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, unread.Handle(ctx, bot, message("private", "/unread", 7), nil))
	assert.Contains(t, bot.last(), "1 unread")
	assert.Contains(t, bot.last(), "friend request")

	_, err = svc.CreateList(ctx, alice.ID, service.CreateListInput{Title: "Gifts", ListType: models.ListTypeWishlist})
	require.NoError(t, err)
	require.NoError(t, lists.Handle(ctx, bot, message("private", "/lists", 6), nil))
	assert.Contains(t, bot.last(), "Gifts")
	assert.Contains(t, bot.last(), "0 items")
}
