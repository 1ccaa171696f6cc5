package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastsToClients(t *testing.T) {
	hub, url := startHub(t)

	a := dial(t, url)
	b := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	ev := Event{
		Topic:     "listing.transcripts",
		Key:       "42",
		Payload:   json.RawMessage(`{"eventType":"listing.voice.transcribed","text":"bonjour"}`),
		Timestamp: 1700000000000,
	}
	require.True(t, hub.Publish(ev))

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, ev.Topic, got.Topic)
		assert.Equal(t, ev.Key, got.Key)
		assert.JSONEq(t, string(ev.Payload), string(got.Payload))
	}
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishDropsWhenFull(t *testing.T) {
	hub := NewHub() // not running, so nothing drains the queue

	for i := 0; i < cap(hub.broadcast); i++ {
		require.True(t, hub.Publish(Event{Topic: "t"}))
	}
	assert.False(t, hub.Publish(Event{Topic: "t"}))
}
