package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundTrip(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Publish(ctx, Message{Type: "chat", Body: []byte(`{"content":"hi"}`)}))
	require.NoError(t, q.Publish(ctx, Message{Type: "chat", Body: []byte(`{"content":"again"}`)}))

	out, err := q.Consume(ctx)
	require.NoError(t, err)

	first := <-out
	assert.Equal(t, "chat", first.Type)
	assert.JSONEq(t, `{"content":"hi"}`, string(first.Body))
	assert.JSONEq(t, `{"content":"again"}`, string((<-out).Body))

	cancel()
	select {
	case _, open := <-out:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestInMemoryPublishHonoursContext(t *testing.T) {
	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Message{Type: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "b"}), context.DeadlineExceeded)
}
