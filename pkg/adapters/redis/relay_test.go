package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/weave"
	"github.com/aretw0/weave/pkg/adapters/redis"
	"github.com/aretw0/weave/pkg/domain"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *backend.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func next(t *testing.T, ch <-chan domain.Notification) domain.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "listener closed")
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	return domain.Notification{}
}

func TestRelay_PublishesNotifications(t *testing.T) {
	client := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received, err := redis.Listen(ctx, client, "test:events")
	require.NoError(t, err)

	ws := weave.New()
	defer ws.Close()

	relay := redis.NewRelay(client, redis.WithChannel("test:events"))
	require.NoError(t, relay.Start(ctx, ws))
	assert.Error(t, relay.Start(ctx, ws), "a relay starts once")

	require.NoError(t, ws.AddOperator(domain.OperatorPredicate{OperatorID: "op1", OperatorType: "ScanSource"}, domain.Point{}))
	require.NoError(t, ws.AddOperator(domain.OperatorPredicate{OperatorID: "op2", OperatorType: "Sink"}, domain.Point{}))
	require.NoError(t, ws.AddLink(domain.OperatorLink{
		LinkID: "l1",
		Source: domain.OperatorPort{OperatorID: "op1", PortID: "out0"},
		Target: domain.OperatorPort{OperatorID: "op2", PortID: "in0"},
	}))
	relay.Close()

	n := next(t, received)
	assert.Equal(t, domain.EventOperatorAdded, n.Type)
	require.NotNil(t, n.Operator)
	assert.Equal(t, "op1", n.Operator.OperatorID)

	assert.Equal(t, domain.EventOperatorAdded, next(t, received).Type)

	n = next(t, received)
	assert.Equal(t, domain.EventLinkAdded, n.Type)
	require.NotNil(t, n.Link)
	assert.Equal(t, "l1", n.Link.LinkID)
}

func TestRelay_CloseDetaches(t *testing.T) {
	client := setup(t)
	ws := weave.New()
	defer ws.Close()

	relay := redis.NewRelay(client)
	assert.Equal(t, redis.DefaultChannel, relay.Channel())
	require.NoError(t, relay.Start(context.Background(), ws))
	relay.Close()
	relay.Close()

	// Mutations after Close must not panic on the closed queue.
	require.NoError(t, ws.AddOperator(domain.OperatorPredicate{OperatorID: "op1", OperatorType: "T"}, domain.Point{}))
	assert.ErrorIs(t, relay.Start(context.Background(), ws), redis.ErrRelayClosed)
}

func TestRelay_CloseWithoutStart(t *testing.T) {
	relay := redis.NewRelay(setup(t))
	relay.Close()
}
