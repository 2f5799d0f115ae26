package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	domoutbox "github.com/Zhima-Mochi/minishop-pos/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability/zaplogger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pinged struct{ n int }

func (pinged) EventName() string { return "test.pinged" }

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(nil)
	var seen []string
	bus.Subscribe("test.pinged", func(_ context.Context, e domoutbox.Event) error {
		seen = append(seen, "first")
		assert.Equal(t, 7, e.(pinged).n)
		return nil
	})
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		seen = append(seen, "second")
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), pinged{n: 7}))
	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestBus_IsolatesFailingHandlers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	bus := NewBus(zaplogger.New(zap.New(core)))
	reached := false
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		panic("kaboom")
	})
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		return errors.New("handler failed")
	})
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		reached = true
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), pinged{}))
	assert.True(t, reached)
	assert.Equal(t, 1, logs.FilterMessage("event_handler_panic").Len())
	assert.Equal(t, 1, logs.FilterMessage("event_handler_error").Len())
}

func TestBus_NoSubscriberAndNilEvent(t *testing.T) {
	bus := NewBus(nil)
	assert.NoError(t, bus.Publish(context.Background(), pinged{}))
	assert.NoError(t, bus.Publish(context.Background(), nil))
}

func TestBus_CanceledContext(t *testing.T) {
	bus := NewBus(nil)
	called := false
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		called = true
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.Publish(ctx, pinged{}), context.Canceled)
	assert.False(t, called)
}
