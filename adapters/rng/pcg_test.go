package rng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draw(t *testing.T, name string, seed, index uint64) []uint64 {
	t.Helper()
	r, err := NewPCGAdapter().Stream(context.Background(), name, seed, index)
	require.NoError(t, err)
	out := make([]uint64, 8)
	for i := range out {
		out[i] = r.Uint64()
	}
	return out
}

func TestStream_Deterministic(t *testing.T) {
	assert.Equal(t, draw(t, "generate", 42, 7), draw(t, "generate", 42, 7))
}

func TestStream_KeysAreIndependent(t *testing.T) {
	base := draw(t, "generate", 42, 7)

	assert.NotEqual(t, base, draw(t, "generate", 42, 8), "index must change the stream")
	assert.NotEqual(t, base, draw(t, "generate", 43, 7), "seed must change the stream")
	assert.NotEqual(t, base, draw(t, "test", 42, 7), "name must change the stream")
}

func TestStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPCGAdapter().Stream(ctx, "generate", 1, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
