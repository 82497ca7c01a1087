package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		ctx := SetTraceID(context.Background())
		traceID := GetTraceID(ctx)
		require.NotEmpty(t, traceID)
		assert.Len(t, traceID, 32)
	})

	t.Run("distinct per call", func(t *testing.T) {
		t.Parallel()

		first := GetTraceID(SetTraceID(context.Background()))
		second := GetTraceID(SetTraceID(context.Background()))
		assert.NotEqual(t, first, second)
	})

	t.Run("missing trace ID", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "", GetTraceID(context.Background()))
	})
}

func TestFallbackTraceID(t *testing.T) {
	t.Parallel()

	id := fallbackTraceID()
	assert.Len(t, id, 32)
	assert.NotEqual(t, fallbackTraceID(), "")
}
