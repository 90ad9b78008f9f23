package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/auth"
	"github.com/Kerhoff/listshare/internal/metrics"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/notify"
	"github.com/Kerhoff/listshare/internal/repository"
	"github.com/Kerhoff/listshare/internal/repository/memory"
	"github.com/Kerhoff/listshare/pkg/logger"
)

type captureQueue struct {
	mu   sync.Mutex
	envs []notify.Envelope
}

func (q *captureQueue) Enqueue(env notify.Envelope) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.envs = append(q.envs, env)
	return true
}

func (q *captureQueue) Run(context.Context) {}

func (q *captureQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.envs)
}

type env struct {
	svc   *Service
	queue *captureQueue
	ctx   context.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	queue := &captureQueue{}
	log := logger.Discard()
	fanout := notify.NewFanout(store.Notifications, queue, metrics.New(), log)
	return &env{
		svc:   New(store, fanout, auth.NewTokens("test-secret", time.Hour), log),
		queue: queue,
		ctx:   context.Background(),
	}
}

func (e *env) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.svc.Register(e.ctx, RegisterInput{Name: name, Email: name + "@example.com", Password: "secret1"})
	require.NoError(t, err)
	return u
}

func (e *env) list(t *testing.T, owner *models.User, kind models.ListType, privacy models.PrivacyLevel) *models.List {
	t.Helper()
	l, err := e.svc.CreateList(e.ctx, owner.ID, CreateListInput{Title: "list", ListType: kind, PrivacyLevel: privacy})
	require.NoError(t, err)
	return l
}

func (e *env) item(t *testing.T, owner *models.User, list *models.List) *models.Item {
	t.Helper()
	it, err := e.svc.CreateItem(e.ctx, owner.ID, list.ID, CreateItemInput{Title: "thing"})
	require.NoError(t, err)
	return it
}

func (e *env) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	f, err := e.svc.Friends.SendRequest(e.ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = e.svc.Friends.Accept(e.ctx, f.ID, b.ID)
	require.NoError(t, err)
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), err.Error())
}

func ptr[T any](v T) *T { return &v }

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "alice")
	assert.True(t, u.IsActive)

	_, err := e.svc.Register(e.ctx, RegisterInput{Name: "alice", Email: "other@example.com", Password: "secret1"})
	requireKind(t, err, apperr.KindConflict)
	_, err = e.svc.Register(e.ctx, RegisterInput{Name: "x", Email: "bad", Password: "1"})
	requireKind(t, err, apperr.KindInvalid)

	for _, username := range []string{"alice", "alice@example.com"} {
		tok, err := e.svc.Login(e.ctx, LoginInput{Username: username, Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "bearer", tok.TokenType)

		me, err := e.svc.Authenticate(e.ctx, tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, u.ID, me.ID)
	}

	_, err = e.svc.Login(e.ctx, LoginInput{Username: "alice", Password: "wrong"})
	requireKind(t, err, apperr.KindAuthRequired)
	_, err = e.svc.Authenticate(e.ctx, "garbage")
	requireKind(t, err, apperr.KindAuthRequired)
}

func TestAccountSettings(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	e.user(t, "bob")

	err := e.svc.ChangePassword(e.ctx, alice.ID, PasswordChange{CurrentPassword: "nope", NewPassword: "secret2"})
	requireKind(t, err, apperr.KindInvalid)
	require.NoError(t, e.svc.ChangePassword(e.ctx, alice.ID, PasswordChange{CurrentPassword: "secret1", NewPassword: "secret2"}))
	_, err = e.svc.Login(e.ctx, LoginInput{Username: "alice", Password: "secret2"})
	require.NoError(t, err)

	_, err = e.svc.ChangeEmail(e.ctx, alice.ID, EmailChange{NewEmail: "bob@example.com", Password: "secret2"})
	requireKind(t, err, apperr.KindConflict)
	_, err = e.svc.ChangeEmail(e.ctx, alice.ID, EmailChange{NewEmail: "new@example.com", Password: "wrong"})
	requireKind(t, err, apperr.KindInvalid)
	updated, err := e.svc.ChangeEmail(e.ctx, alice.ID, EmailChange{NewEmail: "new@example.com", Password: "secret2"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)

	err = e.svc.DeleteAccount(e.ctx, alice.ID, AccountDeletion{Password: "wrong"})
	requireKind(t, err, apperr.KindForbidden)
	require.NoError(t, e.svc.DeleteAccount(e.ctx, alice.ID, AccountDeletion{Password: "secret2"}))
	_, err = e.svc.Me(e.ctx, alice.ID)
	requireKind(t, err, apperr.KindNotFound)
}

func TestLinkTelegramMovesChat(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	tokA, err := e.svc.tokens.Issue(alice.ID)
	require.NoError(t, err)
	tokB, err := e.svc.tokens.Issue(bob.ID)
	require.NoError(t, err)

	_, err = e.svc.LinkTelegram(e.ctx, tokA, 42)
	require.NoError(t, err)
	_, err = e.svc.LinkTelegram(e.ctx, tokB, 42)
	require.NoError(t, err)

	linked, err := e.svc.UserByTelegramChat(e.ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, linked.ID)

	_, err = e.svc.LinkTelegram(e.ctx, "bad", 7)
	requireKind(t, err, apperr.KindAuthRequired)
}

func TestListDefaultsAndOwnership(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	l, err := e.svc.CreateList(e.ctx, alice.ID, CreateListInput{Title: " Books ", ListType: models.ListTypeBooks})
	require.NoError(t, err)
	assert.Equal(t, models.PrivacyPrivate, l.PrivacyLevel)
	assert.Equal(t, models.DefaultTheme, l.ThemeName)
	assert.Equal(t, "Books", l.Title)

	_, err = e.svc.CreateList(e.ctx, alice.ID, CreateListInput{Title: "x", ListType: "recipes"})
	requireKind(t, err, apperr.KindInvalid)

	_, err = e.svc.UpdateList(e.ctx, bob.ID, l.ID, UpdateListInput{Title: ptr("mine")})
	requireKind(t, err, apperr.KindForbidden)
	updated, err := e.svc.UpdateList(e.ctx, alice.ID, l.ID, UpdateListInput{PrivacyLevel: ptr(models.PrivacyPublic)})
	require.NoError(t, err)
	assert.Equal(t, models.PrivacyPublic, updated.PrivacyLevel)
	assert.Equal(t, "Books", updated.Title)

	requireKind(t, e.svc.DeleteList(e.ctx, bob.ID, l.ID), apperr.KindForbidden)
	require.NoError(t, e.svc.DeleteList(e.ctx, alice.ID, l.ID))
	_, err = e.svc.GetList(e.ctx, &alice.ID, l.ID)
	requireKind(t, err, apperr.KindNotFound)
}

func TestGetListVisibility(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	carol := e.user(t, "carol")
	e.befriend(t, alice, bob)

	l := e.list(t, alice, models.ListTypeTodo, models.PrivacyFriendsOnly)
	e.item(t, alice, l)

	view, err := e.svc.GetList(e.ctx, &bob.ID, l.ID)
	require.NoError(t, err)
	assert.False(t, view.IsOwner)
	assert.Len(t, view.Items, 1)
	require.NotNil(t, view.Owner)
	assert.Empty(t, view.Owner.Email)

	_, err = e.svc.GetList(e.ctx, &carol.ID, l.ID)
	requireKind(t, err, apperr.KindForbidden)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "not_friends", ae.Reason)
	assert.Equal(t, alice.ID, ae.Owner.ID)

	_, err = e.svc.GetList(e.ctx, nil, l.ID)
	requireKind(t, err, apperr.KindAuthRequired)

	view, err = e.svc.GetList(e.ctx, &alice.ID, l.ID)
	require.NoError(t, err)
	assert.True(t, view.IsOwner)
}

func TestShareKeyLookup(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	l := e.list(t, alice, models.ListTypeWishlist, models.PrivacyPublic)
	e.item(t, alice, l)
	key := l.PublicKey.String()

	view, err := e.svc.GetListByPublicKey(e.ctx, nil, key)
	require.NoError(t, err)
	assert.Equal(t, l.ID, view.ID)

	_, err = e.svc.UpdateList(e.ctx, alice.ID, l.ID, UpdateListInput{PrivacyLevel: ptr(models.PrivacyFriendsOnly)})
	require.NoError(t, err)
	_, err = e.svc.GetListByPublicKey(e.ctx, nil, key)
	requireKind(t, err, apperr.KindAuthRequired)
	ae, _ := apperr.As(err)
	require.NotNil(t, ae.Owner)
	assert.Equal(t, "alice", ae.Owner.Name)
	_, err = e.svc.GetListByPublicKey(e.ctx, &bob.ID, key)
	requireKind(t, err, apperr.KindForbidden)

	e.befriend(t, alice, bob)
	view, err = e.svc.GetListByPublicKey(e.ctx, &bob.ID, key)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	_, err = e.svc.UpdateList(e.ctx, alice.ID, l.ID, UpdateListInput{PrivacyLevel: ptr(models.PrivacyPrivate)})
	require.NoError(t, err)
	_, err = e.svc.GetListByPublicKey(e.ctx, &bob.ID, key)
	requireKind(t, err, apperr.KindNotFound)
	_, err = e.svc.GetListByPublicKey(e.ctx, &alice.ID, key)
	require.NoError(t, err)

	_, err = e.svc.GetListByPublicKey(e.ctx, nil, "not-a-uuid")
	requireKind(t, err, apperr.KindNotFound)
}

func TestReservationRules(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	carol := e.user(t, "carol")

	wishlist := e.list(t, alice, models.ListTypeWishlist, models.PrivacyPublic)
	gift := e.item(t, alice, wishlist)
	todo := e.list(t, alice, models.ListTypeTodo, models.PrivacyPublic)
	chore := e.item(t, alice, todo)

	_, err := e.svc.Reserve(e.ctx, bob.ID, chore.ID)
	requireKind(t, err, apperr.KindInvalid)
	_, err = e.svc.Reserve(e.ctx, alice.ID, gift.ID)
	requireKind(t, err, apperr.KindForbidden)

	_, err = e.svc.Reserve(e.ctx, bob.ID, gift.ID)
	require.NoError(t, err)
	_, err = e.svc.Reserve(e.ctx, carol.ID, gift.ID)
	requireKind(t, err, apperr.KindConflict)

	stateFor := func(viewer int64) (bool, bool) {
		view, err := e.svc.GetList(e.ctx, &viewer, wishlist.ID)
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		return view.Items[0].Reserved, view.Items[0].ReservedByMe
	}
	reserved, mine := stateFor(alice.ID)
	assert.False(t, reserved, "owner must not learn about reservations")
	assert.False(t, mine)
	reserved, mine = stateFor(bob.ID)
	assert.True(t, reserved)
	assert.True(t, mine)
	reserved, mine = stateFor(carol.ID)
	assert.True(t, reserved)
	assert.False(t, mine)

	requireKind(t, e.svc.Unreserve(e.ctx, carol.ID, gift.ID), apperr.KindForbidden)
	require.NoError(t, e.svc.Unreserve(e.ctx, bob.ID, gift.ID))
	requireKind(t, e.svc.Unreserve(e.ctx, bob.ID, gift.ID), apperr.KindNotFound)
}

func TestLikesAndCommentsNotifyOwner(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	l := e.list(t, alice, models.ListTypeMovies, models.PrivacyPublic)
	it := e.item(t, alice, l)

	_, err := e.svc.Like(e.ctx, bob.ID, it.ID)
	require.NoError(t, err)
	_, err = e.svc.Like(e.ctx, bob.ID, it.ID)
	requireKind(t, err, apperr.KindConflict)
	_, err = e.svc.Like(e.ctx, alice.ID, it.ID)
	require.NoError(t, err)

	c, err := e.svc.Comment(e.ctx, bob.ID, it.ID, CommentInput{Text: "  great  "})
	require.NoError(t, err)
	assert.Equal(t, "great", c.Text)

	// the owner's own like notifies nobody
	listing, err := e.svc.Inbox.List(e.ctx, alice.ID, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, listing.UnreadCount)
	assert.Equal(t, 2, e.queue.count())

	view, err := e.svc.GetList(e.ctx, &bob.ID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Items[0].LikesCount)
	assert.True(t, view.Items[0].LikedByMe)
	require.Len(t, view.Items[0].Comments, 1)
	assert.Empty(t, view.Items[0].Comments[0].Owner.Email)

	requireKind(t, e.svc.DeleteComment(e.ctx, alice.ID, c.ID), apperr.KindForbidden)
	require.NoError(t, e.svc.DeleteComment(e.ctx, bob.ID, c.ID))

	_, err = e.svc.Unlike(e.ctx, bob.ID, it.ID)
	require.NoError(t, err)
	_, err = e.svc.Unlike(e.ctx, bob.ID, it.ID)
	requireKind(t, err, apperr.KindNotFound)
}

func TestInteractionsFollowVisibility(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	l := e.list(t, alice, models.ListTypeWishlist, models.PrivacyPrivate)
	it := e.item(t, alice, l)

	_, err := e.svc.Like(e.ctx, bob.ID, it.ID)
	requireKind(t, err, apperr.KindForbidden)
	_, err = e.svc.Comment(e.ctx, bob.ID, it.ID, CommentInput{Text: "hi"})
	requireKind(t, err, apperr.KindForbidden)
	_, err = e.svc.Reserve(e.ctx, bob.ID, it.ID)
	requireKind(t, err, apperr.KindForbidden)
	assert.Zero(t, e.queue.count())
}

func TestCopyItem(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	src := e.list(t, alice, models.ListTypeBooks, models.PrivacyPublic)
	it, err := e.svc.CreateItem(e.ctx, alice.ID, src.ID, CreateItemInput{Title: "Dune", Description: ptr("spice")})
	require.NoError(t, err)
	hidden := e.item(t, alice, e.list(t, alice, models.ListTypeBooks, models.PrivacyPrivate))
	mine := e.list(t, bob, models.ListTypeBooks, models.PrivacyPrivate)

	copied, err := e.svc.CopyItem(e.ctx, bob.ID, it.ID, CopyItemInput{TargetListID: mine.ID})
	require.NoError(t, err)
	assert.Equal(t, mine.ID, copied.ListID)
	assert.Equal(t, "Dune", copied.Title)
	assert.Equal(t, "spice", *copied.Description)
	assert.NotEqual(t, it.ID, copied.ID)

	_, err = e.svc.CopyItem(e.ctx, bob.ID, it.ID, CopyItemInput{TargetListID: src.ID})
	requireKind(t, err, apperr.KindForbidden)
	_, err = e.svc.CopyItem(e.ctx, bob.ID, hidden.ID, CopyItemInput{TargetListID: mine.ID})
	requireKind(t, err, apperr.KindForbidden)
	_, err = e.svc.CopyItem(e.ctx, bob.ID, it.ID, CopyItemInput{})
	requireKind(t, err, apperr.KindInvalid)
}

func TestFeeds(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	carol := e.user(t, "carol")
	e.befriend(t, alice, bob)

	pub := e.list(t, alice, models.ListTypeTodo, models.PrivacyPublic)
	e.item(t, alice, pub)
	e.item(t, alice, pub)
	friends := e.list(t, alice, models.ListTypeTodo, models.PrivacyFriendsOnly)
	e.list(t, alice, models.ListTypeTodo, models.PrivacyPrivate)
	e.list(t, carol, models.ListTypeTodo, models.PrivacyPublic)

	feed, err := e.svc.FriendsFeed(e.ctx, bob.ID, repository.Page{})
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, friends.ID, feed[0].ID)
	assert.Equal(t, pub.ID, feed[1].ID)
	assert.Equal(t, 2, feed[1].ItemsCount)

	feed, err = e.svc.FriendsFeed(e.ctx, carol.ID, repository.Page{})
	require.NoError(t, err)
	assert.Empty(t, feed)

	public, err := e.svc.PublicFeed(e.ctx, repository.Page{Limit: 1})
	require.NoError(t, err)
	require.Len(t, public, 1)
	require.NotNil(t, public[0].Owner)
	assert.Equal(t, carol.ID, public[0].Owner.ID)
	assert.Empty(t, public[0].Owner.Email)
}

func TestProfileShowsVisibleLists(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	carol := e.user(t, "carol")
	e.befriend(t, alice, bob)

	e.list(t, alice, models.ListTypeTodo, models.PrivacyPublic)
	e.list(t, alice, models.ListTypeTodo, models.PrivacyFriendsOnly)
	e.list(t, alice, models.ListTypeTodo, models.PrivacyPrivate)

	cases := []struct {
		name   string
		viewer *int64
		want   int
	}{
		{"anonymous", nil, 1},
		{"stranger", &carol.ID, 1},
		{"friend", &bob.ID, 2},
		{"owner", &alice.ID, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := e.svc.Profile(e.ctx, tc.viewer, alice.ID)
			require.NoError(t, err)
			assert.Len(t, p.Lists, tc.want)
			assert.Empty(t, p.User.Email)
		})
	}

	_, err := e.svc.Profile(e.ctx, nil, 999)
	requireKind(t, err, apperr.KindNotFound)
}

func TestGoalProgressCompletesItem(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	l := e.list(t, alice, models.ListTypeTodo, models.PrivacyPublic)
	it := e.item(t, alice, l)

	_, err := e.svc.CreateGoal(e.ctx, bob.ID, it.ID, GoalInput{GoalType: models.GoalTypeCumulative, TargetValue: ptr(10.0)})
	requireKind(t, err, apperr.KindForbidden)
	goal, err := e.svc.CreateGoal(e.ctx, alice.ID, it.ID, GoalInput{GoalType: models.GoalTypeCumulative, TargetValue: ptr(10.0), Unit: ptr("km")})
	require.NoError(t, err)
	_, err = e.svc.CreateGoal(e.ctx, alice.ID, it.ID, GoalInput{GoalType: models.GoalTypeCheckIn, TargetCount: ptr(3)})
	requireKind(t, err, apperr.KindConflict)

	p, err := e.svc.LogGoal(e.ctx, alice.ID, goal.ID, GoalLogInput{Value: -5})
	require.NoError(t, err)
	assert.Zero(t, p.CurrentValue)

	p, err = e.svc.LogGoal(e.ctx, alice.ID, goal.ID, GoalLogInput{Value: 6})
	require.NoError(t, err)
	assert.False(t, p.Reached)

	_, err = e.svc.LogGoal(e.ctx, bob.ID, goal.ID, GoalLogInput{Value: 6})
	requireKind(t, err, apperr.KindForbidden)

	p, err = e.svc.LogGoal(e.ctx, alice.ID, goal.ID, GoalLogInput{Value: 4})
	require.NoError(t, err)
	assert.True(t, p.Reached)
	assert.True(t, p.ItemCompleted)

	view, err := e.svc.GetList(e.ctx, &alice.ID, l.ID)
	require.NoError(t, err)
	assert.True(t, view.Items[0].IsCompleted)
	require.NotNil(t, view.Items[0].Goal)
	assert.Equal(t, 10.0, view.Items[0].Goal.CurrentValue)

	logs, err := e.svc.GoalLogs(e.ctx, alice.ID, goal.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 3)

	updated, err := e.svc.UpdateGoal(e.ctx, alice.ID, goal.ID, UpdateGoalInput{TargetValue: ptr(20.0)})
	require.NoError(t, err)
	assert.Equal(t, 20.0, *updated.TargetValue)
}
