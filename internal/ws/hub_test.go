package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"queue-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	t.Cleanup(server.Close)
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func testSnapshot(number int) *models.Snapshot {
	return &models.Snapshot{
		Tokens: []models.Token{
			{ID: "t1", Number: number, Status: models.StatusWaiting},
		},
		State:        models.SystemState{NextTokenNumber: number + 1},
		WaitingCount: 1,
		GeneratedAt:  time.Now(),
	}
}

func TestHubBroadcastsSnapshotToAllSubscribers(t *testing.T) {
	hub, server := newHubServer(t)

	first := dial(t, server)
	second := dial(t, server)

	// Give the register messages time to land
	time.Sleep(50 * time.Millisecond)

	hub.PublishSnapshot(testSnapshot(7))

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var envelope struct {
			Type string           `json:"type"`
			Data *models.Snapshot `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &envelope))
		assert.Equal(t, "snapshot", envelope.Type)
		require.NotNil(t, envelope.Data)
		assert.Equal(t, 7, envelope.Data.Tokens[0].Number)
		assert.Equal(t, 8, envelope.Data.State.NextTokenNumber)
	}
}

func TestHubPushesFullStateEachTime(t *testing.T) {
	hub, server := newHubServer(t)
	conn := dial(t, server)
	time.Sleep(50 * time.Millisecond)

	hub.PublishSnapshot(testSnapshot(1))
	hub.PublishSnapshot(testSnapshot(2))

	var last *models.Snapshot
	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var envelope struct {
			Data *models.Snapshot `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &envelope))
		last = envelope.Data
	}

	// The later push fully describes the state; nothing needs merging
	require.NotNil(t, last)
	assert.Equal(t, 2, last.Tokens[0].Number)
	assert.Equal(t, 3, last.State.NextTokenNumber)
}

func TestHubSurvivesSubscriberDisconnect(t *testing.T) {
	hub, server := newHubServer(t)

	gone := dial(t, server)
	stays := dial(t, server)
	time.Sleep(50 * time.Millisecond)

	gone.Close()
	time.Sleep(50 * time.Millisecond)

	hub.PublishSnapshot(testSnapshot(3))

	stays.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := stays.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"snapshot"`)
}

func TestHubStopsOnContextCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	defer server.Close()

	conn := dial(t, server)
	time.Sleep(50 * time.Millisecond)

	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop after context cancel")
	}

	// Shutdown closes the subscriber's connection
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
