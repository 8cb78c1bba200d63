package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/SivanLevi100/storefront/internal/domain/outbox"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBus_FansOutToEverySubscriber(t *testing.T) {
	bus := NewBus(nil)
	var wg sync.WaitGroup
	var calls atomic.Int32
	handler := func(ctx context.Context, e domoutbox.Event) error {
		defer wg.Done()
		assert.Equal(t, "order.placed", e.EventName())
		assert.NotNil(t, logctx.From(ctx))
		calls.Add(1)
		return nil
	}
	bus.Subscribe("order.placed", handler)
	bus.Subscribe("order.placed", handler)
	bus.Subscribe("order.deleted", func(context.Context, domoutbox.Event) error {
		t.Error("unexpected delivery")
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	wg.Add(2)
	require.NoError(t, bus.Publish(ctx, testEvent{name: "order.placed"}))
	wg.Wait()

	assert.Equal(t, int32(2), calls.Load())
	require.NoError(t, bus.Stop(ctx))
}

func TestBus_HandlerFailuresAreContained(t *testing.T) {
	bus := NewBus(nil)
	delivered := make(chan struct{}, 3)
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		delivered <- struct{}{}
		panic("boom")
	})
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		delivered <- struct{}{}
		return errors.New("failed")
	})

	ctx := context.Background()
	bus.Start(ctx)
	require.NoError(t, bus.Publish(ctx, testEvent{name: "e"}))
	require.NoError(t, bus.Publish(ctx, testEvent{name: "unsubscribed"}))
	require.NoError(t, bus.Stop(ctx))

	assert.Len(t, delivered, 2)
}

func TestBus_StopDrainsQueue(t *testing.T) {
	bus := NewBus(nil, WithQueueSize(16))
	var calls atomic.Int32
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		time.Sleep(time.Millisecond)
		calls.Add(1)
		return nil
	})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(ctx, testEvent{name: "e"}))
	}
	bus.Start(ctx)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Equal(t, int32(10), calls.Load())

	assert.ErrorIs(t, bus.Publish(ctx, testEvent{name: "e"}), ErrBusClosed)
}

func TestBus_PublishRespectsContextWhenFull(t *testing.T) {
	bus := NewBus(nil, WithQueueSize(1))
	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, testEvent{name: "e"}))

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := bus.Publish(short, testEvent{name: "e"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, bus.Publish(ctx, nil))
}
