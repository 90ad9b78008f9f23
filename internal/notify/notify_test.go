package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/metrics"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
	"github.com/Kerhoff/listshare/internal/repository/memory"
	"github.com/Kerhoff/listshare/pkg/logger"
)

type recordingQueue struct {
	mu   sync.Mutex
	envs []Envelope
	full bool
}

func (q *recordingQueue) Enqueue(env Envelope) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.envs = append(q.envs, env)
	return true
}

func (q *recordingQueue) Run(context.Context) {}

func (q *recordingQueue) sent() []Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Envelope(nil), q.envs...)
}

type fixture struct {
	store   *repository.Store
	queue   *recordingQueue
	metrics *metrics.Metrics
	fanout  *Fanout
	inbox   *Inbox
	alice   *models.User
	bob     *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	queue := &recordingQueue{}
	m := metrics.New()

	alice, err := store.Users.Create(ctx, &models.User{Name: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := store.Users.Create(ctx, &models.User{Name: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	return &fixture{
		store:   store,
		queue:   queue,
		metrics: m,
		fanout:  NewFanout(store.Notifications, queue, m, logger.Discard()),
		inbox:   NewInbox(store.Notifications),
		alice:   alice,
		bob:     bob,
	}
}

func TestNotifySelfIsNoop(t *testing.T) {
	f := newFixture(t)

	n, err := f.fanout.Notify(context.Background(), f.alice.ID, f.alice.ID, models.NotificationLike, nil)
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, f.queue.sent())

	count, err := f.inbox.UnreadCount(context.Background(), f.alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotifyPersistsAndEnqueues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	list, err := f.store.Lists.Create(ctx, &models.List{OwnerID: f.alice.ID, Title: "Gifts", ListType: models.ListTypeWishlist})
	require.NoError(t, err)
	item, err := f.store.Items.Create(ctx, &models.Item{ListID: list.ID, Title: "Lamp"})
	require.NoError(t, err)

	n, err := f.fanout.Notify(ctx, f.alice.ID, f.bob.ID, models.NotificationLike, &item.ID)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.False(t, n.IsRead)

	sent := f.queue.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, f.alice.ID, sent[0].RecipientID)
	msg := sent[0].Message
	assert.Equal(t, n.ID, msg.ID)
	assert.Equal(t, models.NotificationLike, msg.Type)
	assert.Equal(t, "bob", msg.Sender.Name)
	assert.Equal(t, "bob@example.com", msg.Sender.Email)
	require.NotNil(t, msg.RelatedListID)
	assert.Equal(t, list.ID, *msg.RelatedListID)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotificationsCreated.WithLabelValues("like")))
}

func TestNotifySurvivesFullQueue(t *testing.T) {
	f := newFixture(t)
	f.queue.full = true

	n, err := f.fanout.Notify(context.Background(), f.alice.ID, f.bob.ID, models.NotificationFriendRequest, nil)
	require.NoError(t, err)
	require.NotNil(t, n)

	count, err := f.inbox.UnreadCount(context.Background(), f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInboxMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.fanout.Notify(ctx, f.alice.ID, f.bob.ID, models.NotificationComment, nil)
	require.NoError(t, err)
	_, err = f.fanout.Notify(ctx, f.alice.ID, f.bob.ID, models.NotificationLike, nil)
	require.NoError(t, err)

	listing, err := f.inbox.List(ctx, f.alice.ID, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, listing.UnreadCount)
	require.Len(t, listing.Notifications, 2)
	assert.Equal(t, models.NotificationLike, listing.Notifications[0].Type)

	changed, err := f.inbox.MarkRead(ctx, f.alice.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.inbox.MarkRead(ctx, f.alice.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	count, err := f.inbox.UnreadCount(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = f.inbox.MarkRead(ctx, f.bob.ID, first.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.inbox.MarkRead(ctx, f.alice.ID, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	n, err := f.inbox.MarkAllRead(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestWorkerQueueDelivers(t *testing.T) {
	m := metrics.New()
	got := make(chan Envelope, 1)
	q := NewWorkerQueue(DelivererFunc(func(_ context.Context, env Envelope) error {
		got <- env
		return nil
	}), 2, 4, m, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	require.True(t, q.Enqueue(Envelope{RecipientID: 5}))

	select {
	case env := <-got:
		assert.EqualValues(t, 5, env.RecipientID)
	case <-time.After(time.Second):
		t.Fatal("envelope was not delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queue did not stop")
	}
}

func TestWorkerQueueDropsWhenFull(t *testing.T) {
	m := metrics.New()
	q := NewWorkerQueue(DelivererFunc(func(context.Context, Envelope) error { return nil }), 1, 1, m, logger.Discard())

	assert.True(t, q.Enqueue(Envelope{RecipientID: 1}))
	assert.False(t, q.Enqueue(Envelope{RecipientID: 2}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushDropped))
}

func TestMultiDelivererIsolatesFailures(t *testing.T) {
	m := metrics.New()
	d := NewMultiDeliverer(m, logger.Discard())

	var reached bool
	d.Add("broken", DelivererFunc(func(context.Context, Envelope) error { return errors.New("boom") }))
	d.Add("offline", DelivererFunc(func(context.Context, Envelope) error { return ErrUnreachable }))
	d.Add("ok", DelivererFunc(func(context.Context, Envelope) error {
		reached = true
		return nil
	}))

	err := d.Deliver(context.Background(), Envelope{RecipientID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.NotContains(t, err.Error(), "offline")
	assert.True(t, reached)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushDelivered.WithLabelValues("broken", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushDelivered.WithLabelValues("offline", "unreachable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushDelivered.WithLabelValues("ok", "ok")))
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := decodeEnvelope("{not json")
	assert.Error(t, err)

	payload, err := encodeEnvelope(Envelope{RecipientID: 3, Message: models.NotificationView{ID: 9, Type: models.NotificationComment}})
	require.NoError(t, err)
	env, err := decodeEnvelope(payload)
	require.NoError(t, err)
	assert.EqualValues(t, 9, env.Message.ID)
}

func TestRedisQueueDropsWhenOutboxFull(t *testing.T) {
	m := metrics.New()
	q := NewRedisQueue(nil, "test", nil, nil, 1, 1, m, logger.Discard())

	assert.True(t, q.Enqueue(Envelope{RecipientID: 1}))
	assert.False(t, q.Enqueue(Envelope{RecipientID: 2}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushDropped))
}

type countingDeliverer struct {
	mu    sync.Mutex
	count int
}

func (d *countingDeliverer) Deliver(context.Context, Envelope) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	return nil
}

func (d *countingDeliverer) delivered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func newRedisClient(t *testing.T, addr string) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: addr, Protocol: 2})
	t.Cleanup(func() { client.Close() })
	return client
}

func runQueue(t *testing.T, q Queue) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRedisQueueDeliversDirectOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	m := metrics.New()

	var live, direct [2]countingDeliverer
	queues := make([]*RedisQueue, 2)
	for i := range queues {
		queues[i] = NewRedisQueue(newRedisClient(t, mr.Addr()), "pushes", &live[i], &direct[i], 2, 8, m, logger.Discard())
		runQueue(t, queues[i])
	}
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("pushes")["pushes"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.True(t, queues[0].Enqueue(Envelope{RecipientID: 4, Message: models.NotificationView{ID: 1}}))

	require.Eventually(t, func() bool {
		return live[0].delivered() == 1 && live[1].delivered() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, direct[0].delivered())
	assert.Equal(t, 0, direct[1].delivered())
}

func TestRedisQueueResubscribesAfterOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.Close()

	m := metrics.New()
	var live, direct countingDeliverer
	q := NewRedisQueue(newRedisClient(t, mr.Addr()), "pushes", &live, &direct, 1, 8, m, logger.Discard())
	q.retryMin = 10 * time.Millisecond
	q.retryMax = 50 * time.Millisecond
	runQueue(t, q)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, mr.Restart())
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("pushes")["pushes"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.True(t, q.Enqueue(Envelope{RecipientID: 4}))
	require.Eventually(t, func() bool {
		return live.delivered() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, direct.delivered())
}
