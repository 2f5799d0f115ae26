package observability

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-pos/internal/infrastructure/observability/prometrics"
	obs "github.com/Zhima-Mochi/minishop-pos/internal/observability"
	"github.com/stretchr/testify/assert"
)

func TestNew_FillsMissingPartsWithNop(t *testing.T) {
	p := New(nil, nil, nil)

	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Logger())
	assert.NotNil(t, p.Metrics())
	assert.NotPanics(t, func() {
		_, span := p.Tracer().Start(context.Background(), "UC.Noop")
		span.End()
		p.Metrics().Counter(obs.MUsecaseRequests).Add(1)
	})
}

func TestNew_KeepsSuppliedMetrics(t *testing.T) {
	reg := prometrics.New("pos")
	p := New(nil, nil, reg)
	assert.Same(t, reg, p.Metrics())
}
