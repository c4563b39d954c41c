package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastHookSubscribe(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	defer cancel()
	event := RecordEvent{Collection: CollectionApps, RecordID: 3, Reason: ReasonUpdate}
	require.NoError(t, hook.RecordChanged(context.Background(), event))

	select {
	case e := <-ch:
		assert.Equal(t, CollectionApps, e.Collection)
		assert.Equal(t, 3, e.RecordID)
	default:
		t.Fatalf("expected event to be delivered")
	}
}

func TestBroadcastHookDropsWhenSubscriberIsFull(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, hook.RecordChanged(context.Background(), RecordEvent{RecordID: i}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBroadcastHookCancelClosesChannel(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	require.Equal(t, 1, hook.Subscribers())

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hook.Subscribers())
}

func TestBroadcastHookServeWebSocket(t *testing.T) {
	hook := NewBroadcastHook()
	server := httptest.NewServer(http.HandlerFunc(hook.ServeWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hook.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hook.RecordChanged(context.Background(), RecordEvent{
		Collection: CollectionComments,
		RecordID:   9,
		Reason:     ReasonCreate,
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got RecordEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, CollectionComments, got.Collection)
	assert.Equal(t, 9, got.RecordID)
	assert.Equal(t, ReasonCreate, got.Reason)
}

func TestBroadcastHookServeSSE(t *testing.T) {
	hook := NewBroadcastHook()
	server := httptest.NewServer(http.HandlerFunc(hook.ServeSSE))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hook.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hook.RecordChanged(context.Background(), RecordEvent{Collection: CollectionLogs, Reason: ReasonDelete}))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: delete\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var got RecordEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &got))
	assert.Equal(t, CollectionLogs, got.Collection)
}

func TestMultiRefreshHookRunsEveryHook(t *testing.T) {
	var calls []string
	first := RefreshHookFunc(func(context.Context, RecordEvent) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	second := RefreshHookFunc(func(context.Context, RecordEvent) error {
		calls = append(calls, "second")
		return nil
	})

	err := MultiRefreshHook{first, nil, second}.RecordChanged(context.Background(), RecordEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"first", "second"}, calls)
}
