package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stock" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubFiltersByKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = Upgrade(w, r, hub, r.URL.Query()["sku"]...)
	}))
	defer srv.Close()

	all := dial(t, srv, "")
	only := dial(t, srv, "?sku=SKU-2")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.PublishJSON("SKU-1", map[string]interface{}{"sku": "SKU-1", "newStock": 1}))
	require.NoError(t, hub.PublishJSON("SKU-2", map[string]interface{}{"sku": "SKU-2", "newStock": 2}))

	_ = all.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, first, err := all.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"sku":"SKU-1","newStock":1}`, string(first))
	_, second, err := all.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"sku":"SKU-2","newStock":2}`, string(second))

	_ = only.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := only.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"sku":"SKU-2","newStock":2}`, string(msg))
}

func TestHubDisconnectsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = Upgrade(w, r, hub)
	}))
	defer srv.Close()

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, hub.ClientCount())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
