package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSub_PublishSubscribe(t *testing.T) {
	ps := NewPubSub(8)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "notify:user:7")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "notify:user:7", `{"type":"guild_invitation_created"}`))

	select {
	case msg := <-ch:
		assert.Equal(t, "notify:user:7", msg.Channel)
		assert.Contains(t, msg.Payload, "guild_invitation_created")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPubSub_NoCrossChannelDelivery(t *testing.T) {
	ps := NewPubSub(8)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "notify:user:1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "notify:user:2", "other"))

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPubSub_UnsubscribeClosesChannel(t *testing.T) {
	ps := NewPubSub(8)
	ch, cancel, err := ps.Subscribe(context.Background(), "c")
	require.NoError(t, err)
	cancel()

	_, open := <-ch
	assert.False(t, open)
}
