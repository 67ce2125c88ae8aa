package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-postgen-be/internal/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, rdb *redis.Client) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(rdb, logger.NewNop())
	go hub.Run(ctx)
	select {
	case <-hub.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("hub never became ready")
	}
	return hub
}

func watch(t *testing.T, hub *Hub, sessionID string, buffer int) *Client {
	t.Helper()
	before := hub.Watchers(sessionID)
	client := &Client{Hub: hub, SessionID: sessionID, Send: make(chan []byte, buffer)}
	hub.register <- client
	require.Eventually(t, func() bool { return hub.Watchers(sessionID) == before+1 }, time.Second, 5*time.Millisecond)
	return client
}

func receive(t *testing.T, client *Client) map[string]interface{} {
	t.Helper()
	select {
	case data, ok := <-client.Send:
		require.True(t, ok, "send channel closed")
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestSendDeliversOnlyToSessionWatchers(t *testing.T) {
	hub := startHub(t, nil)
	crab := watch(t, hub, "crab", 4)
	lobster := watch(t, hub, "lobster", 4)

	hub.Send("crab", map[string]string{"type": "pass-start", "pass": "outline"})

	msg := receive(t, crab)
	assert.Equal(t, "generation", msg["type"])
	assert.Equal(t, "outline", msg["data"].(map[string]interface{})["pass"])
	assert.Len(t, lobster.Send, 0)
}

func TestSlowWatcherIsDropped(t *testing.T) {
	hub := startHub(t, nil)
	client := watch(t, hub, "s1", 1)

	hub.Send("s1", "first")
	hub.Send("s1", "second")

	receive(t, client)
	_, ok := <-client.Send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Watchers("s1"))
}

func TestSendCrossesInstancesThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	a := startHub(t, rdb)
	b := startHub(t, rdb)
	local := watch(t, a, "s1", 4)
	remote := watch(t, b, "s1", 4)

	a.Send("s1", map[string]string{"type": "pass-chunk", "text": "Cua"})

	assert.Equal(t, "generation", receive(t, remote)["type"])
	assert.Equal(t, "generation", receive(t, local)["type"])

	// the publishing instance ignores its own echo
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, local.Send, 0)
}
