package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) Envelope {
	t.Helper()
	select {
	case raw, ok := <-ch:
		require.True(t, ok, "send channel closed")
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Envelope{}
}

func TestHub_SendToUser_AllSessions(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	phone := NewClient(hub, nil, 7)
	laptop := NewClient(hub, nil, 7)
	other := NewClient(hub, nil, 8)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)

	assert.Eventually(t, func() bool { return hub.IsUserOnline(7) && hub.IsUserOnline(8) }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.SendToUser(7, "notification", map[string]string{"title": "Order ready"}))

	for _, c := range []*Client{phone, laptop} {
		env := receive(t, c.Send)
		assert.Equal(t, "notification", env.Type)
	}

	select {
	case <-other.Send:
		t.Fatal("other user must not receive the message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	first := NewClient(hub, nil, 3)
	second := NewClient(hub, nil, 3)
	hub.Register(first)
	hub.Register(second)
	assert.Eventually(t, func() bool { return hub.IsUserOnline(3) }, time.Second, 10*time.Millisecond)

	hub.Unregister(first)
	_, open := <-first.Send
	assert.False(t, open)
	assert.True(t, hub.IsUserOnline(3))

	hub.Unregister(second)
	assert.Eventually(t, func() bool { return !hub.IsUserOnline(3) }, time.Second, 10*time.Millisecond)
}

func TestHub_Stop_ClosesSessions(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil, 1)
	hub.Register(client)
	assert.Eventually(t, func() bool { return hub.IsUserOnline(1) }, time.Second, 10*time.Millisecond)

	hub.Stop()
	hub.Stop()

	select {
	case _, open := <-client.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("session not closed on stop")
	}
}

func TestHub_HandleClientMessage_Ping(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, 1)

	hub.HandleClientMessage(client, []byte(`{"type":"ping"}`))
	assert.Equal(t, "pong", receive(t, client.Send).Type)

	hub.HandleClientMessage(client, []byte(`not json`))
	assert.Len(t, client.Send, 0)
}

func TestHub_HandleClientMessage_RateLimit(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, 1)

	for i := 0; i < maxMessagesPerSecond+5; i++ {
		hub.HandleClientMessage(client, []byte(`{"type":"ping"}`))
	}
	assert.Len(t, client.Send, maxMessagesPerSecond)
}
