package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-escrow/internal/service"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func dial(t *testing.T, hub *Hub, userID int64, admin bool) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, hub, userID, admin).Run()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHub_DeliversToAddressedUsersAndAdmins(t *testing.T) {
	hub := startHub(t)
	user := dial(t, hub, 7, false)
	admin := dial(t, hub, 1, true)
	require.Eventually(t, func() bool {
		return hub.Connected(7) == 1 && hub.ConnectedAdmins() == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Notify(context.Background(), service.Event{
		Type:    service.EventRequestResolved,
		UserIDs: []int64{7},
		Amount:  decimal.RequireFromString("40"),
	})

	got := readEvent(t, user)
	assert.Equal(t, "request_resolved", got["type"])
	got = readEvent(t, admin)
	assert.Equal(t, "request_resolved", got["type"])
}

func TestHub_SkipsOtherUsers(t *testing.T) {
	hub := startHub(t)
	other := dial(t, hub, 8, false)
	require.Eventually(t, func() bool { return hub.Connected(8) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Notify(context.Background(), service.Event{Type: service.EventOrderCreated, UserIDs: []int64{7}})
	hub.Notify(context.Background(), service.Event{Type: service.EventOrderCompleted, UserIDs: []int64{8}})

	got := readEvent(t, other)
	assert.Equal(t, "order_completed", got["type"])
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, 9, false)
	require.Eventually(t, func() bool { return hub.Connected(9) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connected(9) == 0 }, 2*time.Second, 10*time.Millisecond)
}
