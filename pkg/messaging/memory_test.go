package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "notifications")
	require.NoError(t, err)

	msg := &Message{ID: "1", Type: "notification.created", Payload: []byte(`{"title":"hi"}`)}
	require.NoError(t, b.Publish(ctx, "notifications", msg))
	require.NoError(t, b.Publish(ctx, "other", &Message{ID: "2"}))

	select {
	case got := <-ch:
		assert.Equal(t, "1", got.ID)
		assert.JSONEq(t, `{"title":"hi"}`, string(got.Payload))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestMemoryBroker_Closed(t *testing.T) {
	b := NewMemoryBroker()
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	err := b.Publish(context.Background(), "notifications", &Message{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = b.Subscribe(context.Background(), "notifications")
	assert.ErrorIs(t, err, ErrClosed)
}
