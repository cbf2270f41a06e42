package solana

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

// wsServer upgrades each connection and hands it to the given handler.
func wsServer(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWatchAccountDeliversUpdates(t *testing.T) {
	endpoint := wsServer(t, func(conn *websocket.Conn) {
		for {
			var req wsRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Method != "accountSubscribe" {
				continue
			}
			conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0", "id": req.ID, "result": 23,
			})
			conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "accountNotification",
				"params": map[string]interface{}{
					"subscription": 23,
					"result": map[string]interface{}{
						"context": map[string]interface{}{"slot": 42},
						"value": map[string]interface{}{
							"lamports": 5,
							"data":     []string{"aGVsbG8=", "base64"},
						},
					},
				},
			})
		}
	})

	c, err := NewWSClient(context.Background(), endpoint, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WatchAccount(context.Background(), "watchedKey"))

	select {
	case update := <-c.Updates():
		assert.Equal(t, "watchedKey", update.Pubkey)
		assert.Equal(t, []byte("hello"), update.Data)
		assert.Equal(t, uint64(5), update.Lamports)
		assert.Equal(t, int64(42), update.Slot)
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered")
	}
}

func TestCloseUnblocksPendingSubscribe(t *testing.T) {
	// The server never confirms, leaving the subscription pending.
	endpoint := wsServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c, err := NewWSClient(context.Background(), endpoint, nil)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.WatchAccount(context.Background(), "someKey")
	}()

	// Let the subscribe request go out before shutting down.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, c.Close())

	select {
	case err := <-errCh:
		// A pending subscription must fail on shutdown, never report
		// subscription ID 0 as success.
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe did not unblock")
	}
}
