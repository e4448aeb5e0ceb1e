package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledTracerProducesNoIDs(t *testing.T) {
	tr := NewTracer(false)
	ctx, end := tr.StartSpan(context.Background(), "op")
	defer end()

	traceID, spanID := ExtractIDs(ctx)
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}

func TestEnabledTracerAllocatesDistinctIDs(t *testing.T) {
	tr := NewTracer(true)
	ctx1, end1 := tr.StartSpan(context.Background(), "op1")
	defer end1()
	ctx2, end2 := tr.StartSpan(context.Background(), "op2")
	defer end2()

	trace1, span1 := ExtractIDs(ctx1)
	trace2, span2 := ExtractIDs(ctx2)
	assert.NotEmpty(t, trace1)
	assert.NotEmpty(t, span1)
	assert.NotEqual(t, trace1, trace2, "expected distinct spans to get distinct trace IDs")
	assert.NotEqual(t, span1, span2, "expected distinct spans to get distinct span IDs")
}

func TestExtractIDsOnBareContextReturnsEmpty(t *testing.T) {
	traceID, spanID := ExtractIDs(context.Background())
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}

func TestExtractIDsOnNilContextReturnsEmpty(t *testing.T) {
	traceID, spanID := ExtractIDs(nil)
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}
