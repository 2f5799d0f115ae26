package oteltrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestTracer_StartReturnsSpan(t *testing.T) {
	tr := NewWithProvider(noop.NewTracerProvider(), "pos-test")

	ctx, span := tr.Start(context.Background(), "UC.ProcessPayment", attribute.String("order.id", "ORD-1"))
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
	assert.False(t, span.IsRecording())
}
