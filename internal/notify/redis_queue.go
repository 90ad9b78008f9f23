package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/metrics"
)

// RedisQueue fans envelopes out to every instance through a Redis pub/sub
// channel. Each instance delivers to its own live connections, so a push
// reaches the user whichever instance holds their socket. Transports that do
// not depend on the instance, like Telegram, are delivered once by the
// publishing instance.
type RedisQueue struct {
	client    *redis.Client
	channel   string
	outbox    chan Envelope
	workers   int
	broadcast Deliverer
	direct    Deliverer
	metrics   *metrics.Metrics
	logger    *logrus.Logger

	retryMin time.Duration
	retryMax time.Duration
}

// NewRedisQueue creates a queue publishing on channel. broadcast runs on every
// subscribed instance, direct only on the instance that enqueued the
// envelope. direct may be nil.
func NewRedisQueue(client *redis.Client, channel string, broadcast, direct Deliverer, workers, buffer int, m *metrics.Metrics, logger *logrus.Logger) *RedisQueue {
	if workers < 1 {
		workers = 1
	}
	return &RedisQueue{
		client:    client,
		channel:   channel,
		outbox:    make(chan Envelope, buffer),
		workers:   workers,
		broadcast: broadcast,
		direct:    direct,
		metrics:   m,
		logger:    logger,
		retryMin:  time.Second,
		retryMax:  30 * time.Second,
	}
}

func (q *RedisQueue) Enqueue(env Envelope) bool {
	select {
	case q.outbox <- env:
		return true
	default:
		q.metrics.PushDropped.Inc()
		q.logger.WithField("recipient_id", env.RecipientID).Warn("Push outbox full, dropping notification push")
		return false
	}
}

// Run publishes the outbox and delivers incoming envelopes until ctx is
// cancelled. A failed subscription is retried with backoff; publishing
// carries on meanwhile.
func (q *RedisQueue) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.publishLoop(ctx)
		}()
	}

	if sub := q.subscribe(ctx); sub != nil {
		defer sub.Close()
		incoming := sub.Channel()
		for i := 0; i < q.workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q.deliverLoop(ctx, incoming)
			}()
		}
	}
	wg.Wait()

	q.logger.Info("Redis push queue stopped")
}

// subscribe blocks until the channel subscription is confirmed. It returns
// nil once ctx is cancelled.
func (q *RedisQueue) subscribe(ctx context.Context) *redis.PubSub {
	wait := q.retryMin
	for {
		sub := q.client.Subscribe(ctx, q.channel)
		_, err := sub.Receive(ctx)
		if err == nil {
			q.logger.Infof("Redis push queue subscribed to %s", q.channel)
			return sub
		}
		sub.Close()

		if ctx.Err() != nil {
			return nil
		}
		q.logger.WithError(err).WithField("retry_in", wait).Error("Failed to subscribe to push channel")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		wait *= 2
		if wait > q.retryMax {
			wait = q.retryMax
		}
	}
}

func (q *RedisQueue) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-q.outbox:
			if q.direct != nil {
				deliver(ctx, q.direct, env, q.logger)
			}

			payload, err := encodeEnvelope(env)
			if err != nil {
				q.logger.WithError(err).Error("Failed to encode push")
				continue
			}
			if err := q.client.Publish(ctx, q.channel, payload).Err(); err != nil {
				q.metrics.PushDropped.Inc()
				q.logger.WithError(err).Warn("Failed to publish push")
			}
		}
	}
}

func (q *RedisQueue) deliverLoop(ctx context.Context, incoming <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-incoming:
			if !ok {
				return
			}
			env, err := decodeEnvelope(msg.Payload)
			if err != nil {
				q.logger.WithError(err).Warn("Discarding malformed push")
				continue
			}
			deliver(ctx, q.broadcast, env, q.logger)
		}
	}
}

func encodeEnvelope(env Envelope) (string, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeEnvelope(payload string) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal([]byte(payload), &env)
	return env, err
}

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
