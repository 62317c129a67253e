package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_NoEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "park-reviews", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestMetrics_RecordOnNoopProvider(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordRequestMetric(ctx, "GET", "/api/v1/reviews/{id}", 200, 5*time.Millisecond)
		m.RecordToggle(ctx, "liked")
		m.RecordReconciled(ctx, 3)
		m.RecordImagesAttached(ctx, 2)
	})
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordToggle(context.Background(), "liked")
		m.RecordReconciled(context.Background(), 1)
	})
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span")
	defer span.End()

	assert.NotNil(t, ctx)
	RecordError(span, nil)
}
