package terminal

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
	"github.com/Zhima-Mochi/minishop-pos/internal/observability/logctx"
)

// screens wraps every screen with:
// - a span named screen.<name>
// - a screen-scoped logger on the context (session_id, screen, trace ids)
// - terminal_screens_total / terminal_screen_duration_seconds
// - one screen_done entry when the screen returns
type screens struct {
	sessionID string
	tracer    observability.Tracer
	log       observability.Logger
	requests  observability.Counter
	duration  observability.Histogram
}

func newScreens(tel observability.Observability, log observability.Logger) *screens {
	return &screens{
		sessionID: uuid.NewString(),
		tracer:    tel.Tracer(),
		log:       log,
		requests:  tel.Metrics().Counter(observability.MScreenRequests),
		duration:  tel.Metrics().Histogram(observability.MScreenDuration),
	}
}

func (s *screens) run(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "screen."+name,
		attribute.String("screen", name),
		attribute.String("session.id", s.sessionID),
	)
	defer span.End()

	fields := []observability.Field{
		observability.F("session_id", s.sessionID),
		observability.F("screen", name),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	logger := logctx.FromOr(ctx, s.log).With(fields...)
	ctx = logctx.With(ctx, logger)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("screen_panic", observability.F("panic", r))
			span.SetStatus(codes.Error, "panic")
			s.requests.Add(1, observability.L("screen", name), observability.L("outcome", "panic"))
			panic(r)
		}

		outcome := "success"
		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			outcome = "aborted"
		default:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		elapsed := time.Since(start)
		s.requests.Add(1, observability.L("screen", name), observability.L("outcome", outcome))
		s.duration.Bind(observability.L("screen", name)).Observe(elapsed.Seconds())

		done := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("latency_ms", elapsed.Milliseconds()),
		}
		if outcome == "error" {
			logger.Error("screen_done", append(done, observability.F("error", err))...)
			return
		}
		logger.Info("screen_done", done...)
	}()

	return fn(ctx)
}
