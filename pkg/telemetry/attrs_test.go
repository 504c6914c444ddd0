package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestMergeKeepsExistingValues(t *testing.T) {
	base := EmptySpanAttributes().WithPhase("batch").WithExtraAttribute("tests", 1)
	base.Merge(EmptySpanAttributes().
		WithPhase("walk").
		WithSeedName("seed-3").
		WithExtraAttribute("tests", 2).
		WithExtraAttribute("failed", true))

	attrs := base.Attributes()
	assert.Contains(t, attrs, attribute.String("fuzz.phase", "batch"))
	assert.Contains(t, attrs, attribute.String("fuzz.seed.name", "seed-3"))
	assert.Contains(t, attrs, attribute.Int("tests", 1))
	assert.Contains(t, attrs, attribute.Bool("failed", true))
}

func TestFromContextFallsBackToDummy(t *testing.T) {
	_, ok := FromContext(context.Background()).(*DummyTracer)
	assert.True(t, ok)

	var factory *TracerFactory
	tracer := factory.NewTracer(context.Background(), "x")
	ctx := WithTracer(context.Background(), tracer)
	assert.Same(t, tracer, FromContext(ctx))
}
