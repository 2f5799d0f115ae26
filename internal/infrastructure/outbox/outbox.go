package outbox

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	domoutbox "github.com/Zhima-Mochi/minishop-pos/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability/logctx"
)

const componentOutbox = "outbox"

// Bus delivers events to subscribers on the publishing goroutine, in
// subscription order. It is not durable: events are published after the
// unit of work commits and are lost if the process exits first.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]domoutbox.Handler
	log  observability.Logger
}

func NewBus(logger observability.Logger) *Bus {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Bus{
		subs: make(map[string][]domoutbox.Handler),
		log:  logger.With(observability.F("component", componentOutbox)),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

// Publish runs every handler for the event. Handler errors and panics are
// logged and do not reach the publisher; only a canceled context does.
func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	logger := logctx.FromOr(ctx, b.log).With(
		observability.F("event", name),
		observability.F("event_id", uuid.NewString()),
	)
	if len(handlers) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return nil
	}

	failed := 0
	for _, h := range handlers {
		if err := b.dispatch(ctx, logger, h, e); err != nil {
			failed++
			logger.Warn("event_handler_error", observability.F("error", err))
		}
	}

	logger.Debug("event_fanned_out",
		observability.F("handlers", len(handlers)),
		observability.F("failed", failed),
	)
	return nil
}

func (b *Bus) dispatch(ctx context.Context, logger observability.Logger, h domoutbox.Handler, e domoutbox.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event_handler_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
			err = nil
		}
	}()
	return h(logctx.With(ctx, logger), e)
}
