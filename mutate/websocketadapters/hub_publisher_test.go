package websocketadapters_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilimnik/refine/mutate"
	"github.com/kilimnik/refine/mutate/websocketadapters"
)

// givenConnectedHub spins up a WebSocket endpoint whose accepted connections
// attach to the hub, and returns the hub plus a connected client side.
func givenConnectedHub(t *testing.T) (*websocketadapters.HubPublisher, *ws.Conn) {
	t.Helper()

	hub := websocketadapters.NewHubPublisher()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn)
	}))
	t.Cleanup(server.Close)

	wsURL := strings.Replace(server.URL, "http://", "ws://", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	client, _, err := ws.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(ws.StatusNormalClosure, "") })

	require.Eventually(t, func() bool {
		return hub.ConnectionCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	return hub, client
}

func Test_HubPublisher_BroadcastsLiveEvents(t *testing.T) {
	hub, client := givenConnectedHub(t)

	event := mutate.BuildLiveEvent("posts", mutate.LiveEventUpdated, []mutate.RecordID{"1", "2"})

	err := hub.Publish(context.Background(), event)
	require.NoError(t, err)

	readCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgType, payload, err := client.Read(readCtx)
	require.NoError(t, err)
	assert.Equal(t, ws.MessageText, msgType)

	var received mutate.LiveEvent
	require.NoError(t, jsoniter.ConfigFastest.Unmarshal(payload, &received))

	assert.Equal(t, event.ID, received.ID)
	assert.Equal(t, "resources/posts", received.Channel)
	assert.Equal(t, mutate.LiveEventUpdated, received.Type)
	assert.Equal(t, []mutate.RecordID{"1", "2"}, received.Payload.IDs)
}

func Test_HubPublisher_DetachStopsDelivery(t *testing.T) {
	hub := websocketadapters.NewHubPublisher()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			return
		}
		id := hub.Attach(conn)
		hub.Detach(id)
	}))
	t.Cleanup(server.Close)

	wsURL := strings.Replace(server.URL, "http://", "ws://", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, _, err := ws.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(ws.StatusNormalClosure, "") })

	require.Eventually(t, func() bool {
		return hub.ConnectionCount() == 0
	}, 5*time.Second, 10*time.Millisecond)

	event := mutate.BuildLiveEvent("posts", mutate.LiveEventUpdated, []mutate.RecordID{"1"})
	assert.NoError(t, hub.Publish(context.Background(), event), "publishing to an empty hub succeeds")
}

func Test_HubPublisher_PublishAfterCloseFails(t *testing.T) {
	hub, _ := givenConnectedHub(t)

	require.NoError(t, hub.Close())
	assert.Zero(t, hub.ConnectionCount())

	event := mutate.BuildLiveEvent("posts", mutate.LiveEventUpdated, []mutate.RecordID{"1"})
	err := hub.Publish(context.Background(), event)

	assert.ErrorIs(t, err, websocketadapters.ErrPublisherClosed)
}

func Test_HubPublisher_CloseIsIdempotentlyRejected(t *testing.T) {
	hub := websocketadapters.NewHubPublisher()

	require.NoError(t, hub.Close())
	assert.ErrorIs(t, hub.Close(), websocketadapters.ErrPublisherClosed)
}

func Test_HubPublisher_AttachAfterCloseRejectsConnection(t *testing.T) {
	hub := websocketadapters.NewHubPublisher()
	require.NoError(t, hub.Close())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			return
		}
		id := hub.Attach(conn)
		assert.Empty(t, id)
	}))
	t.Cleanup(server.Close)

	wsURL := strings.Replace(server.URL, "http://", "ws://", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, _, err := ws.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(ws.StatusNormalClosure, "") })

	assert.Zero(t, hub.ConnectionCount())
}
