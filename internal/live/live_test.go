package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/listshare/internal/metrics"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/notify"
	"github.com/Kerhoff/listshare/pkg/logger"
)

type fakePeer struct {
	mu     sync.Mutex
	got    [][]byte
	closed bool
	full   bool
}

func (p *fakePeer) Send(payload []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.full || p.closed {
		return false
	}
	p.got = append(p.got, payload)
	return true
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakePeer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func TestHubLastConnectWins(t *testing.T) {
	m := metrics.New()
	hub := NewHub(m, logger.Discard())
	first, second := &fakePeer{}, &fakePeer{}

	hub.Register(1, first)
	hub.Register(1, second)

	assert.True(t, first.isClosed())
	assert.False(t, second.isClosed())
	assert.Equal(t, 1, hub.Connected())

	// the replaced peer going away must not drop the new one
	assert.False(t, hub.Unregister(1, first))
	assert.True(t, hub.IsConnected(1))

	require.NoError(t, hub.Send(1, []byte("hi")))
	assert.Len(t, second.got, 1)
	assert.Empty(t, first.got)

	assert.True(t, hub.Unregister(1, second))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LiveConnections))
}

func TestHubDeliver(t *testing.T) {
	hub := NewHub(metrics.New(), logger.Discard())

	err := hub.Deliver(context.Background(), notify.Envelope{RecipientID: 9})
	assert.ErrorIs(t, err, notify.ErrUnreachable)

	peer := &fakePeer{}
	hub.Register(9, peer)
	itemID := int64(4)
	err = hub.Deliver(context.Background(), notify.Envelope{
		RecipientID: 9,
		Message: models.NotificationView{
			ID:            3,
			Type:          models.NotificationLike,
			Sender:        models.UserSummary{ID: 2, Name: "bo", Email: "bo@example.com"},
			RelatedItemID: &itemID,
		},
	})
	require.NoError(t, err)
	require.Len(t, peer.got, 1)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(peer.got[0], &payload))
	assert.Equal(t, "like", payload["type"])
	assert.Equal(t, false, payload["is_read"])
	assert.Equal(t, "bo", payload["sender"].(map[string]any)["name"])
	assert.EqualValues(t, 4, payload["related_item_id"])
	assert.NotContains(t, payload, "related_list_id")

	peer.full = true
	err = hub.Deliver(context.Background(), notify.Envelope{RecipientID: 9})
	assert.True(t, errors.Is(err, ErrSlowPeer))
}

func TestHubCloseAll(t *testing.T) {
	hub := NewHub(metrics.New(), logger.Discard())
	a, b := &fakePeer{}, &fakePeer{}
	hub.Register(1, a)
	hub.Register(2, b)

	hub.CloseAll()
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
	assert.Zero(t, hub.Connected())
}

type tokenAuth map[string]int64

func (a tokenAuth) Authenticate(token string) (int64, error) {
	if id, ok := a[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

func newServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub(metrics.New(), logger.Discard())
	srv := httptest.NewServer(NewHandler(hub, tokenAuth{"good": 7}, logger.Discard()))
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHandlerRejectsBadToken(t *testing.T) {
	srv, hub := newServer(t)

	conn := dial(t, srv, "forged")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	assert.Zero(t, hub.Connected())
}

func TestHandlerDeliversToLatestConnection(t *testing.T) {
	srv, hub := newServer(t)

	first := dial(t, srv, "good")
	require.Eventually(t, func() bool { return hub.IsConnected(7) }, time.Second, 10*time.Millisecond)

	second := dial(t, srv, "good")

	// the first connection is closed by the server once replaced
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := first.ReadMessage()
	require.Error(t, err)

	require.Eventually(t, func() bool {
		return hub.Send(7, []byte(`{"id":1}`)) == nil
	}, time.Second, 10*time.Millisecond)

	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := second.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(msg))
}
