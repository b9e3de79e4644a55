package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() Event {
	return Event{
		ID:           uuid.New(),
		InvocationID: uuid.New(),
		Topic:        "funds_withdrawn",
		Sequence:     7,
		Timestamp:    1700000000,
		Payload:      json.RawMessage(`{"token":"TYC","to":"GDEST","amount":"5"}`),
	}
}

func TestMultiSinkFansOutAndJoinsErrors(t *testing.T) {
	var got []string
	boom := errors.New("boom")

	m := MultiSink{
		SinkFunc(func(ctx context.Context, ev Event) error { got = append(got, "a"); return nil }),
		nil,
		SinkFunc(func(ctx context.Context, ev Event) error { got = append(got, "b"); return boom }),
		LogSink{},
	}

	err := m.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestHubBroadcastsToSubscribers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws/events", HandleWS(hub, ""))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	ev := sampleEvent()
	require.NoError(t, hub.Publish(context.Background(), ev))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var out Event
	require.NoError(t, json.Unmarshal(msg, &out))
	assert.Equal(t, ev.ID, out.ID)
	assert.Equal(t, ev.Topic, out.Topic)
	assert.JSONEq(t, string(ev.Payload), string(out.Payload))

	conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws/events", HandleWS(hub, "https://tycoon.example"))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	_, _, err := websocket.DefaultDialer.Dial(url, map[string][]string{"Origin": {"https://evil.example"}})
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Len())
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisSinkIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: db})
	defer client.Close()

	ctx := context.Background()
	stream := "tycoon:test:" + uuid.NewString()
	defer client.Del(ctx, stream)

	sub := client.Subscribe(ctx, Channel("funds_withdrawn"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	sink := NewRedisSink(client, stream)
	ev := sampleEvent()
	require.NoError(t, sink.Publish(ctx, ev))

	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ev.ID.String(), entries[0].Values["id"])
	assert.Equal(t, "7", entries[0].Values["sequence"])

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var out Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &out))
	assert.Equal(t, ev.ID, out.ID)
}
