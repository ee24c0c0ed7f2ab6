package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilStoreAlwaysLoads(t *testing.T) {
	var s *Store
	ctx := context.Background()

	calls := 0
	var out string
	for i := 0; i < 2; i++ {
		require.NoError(t, s.Remember(ctx, "k", time.Minute, &out, func() error {
			calls++
			out = "loaded"
			return nil
		}))
	}

	assert.Equal(t, 2, calls)
	assert.Equal(t, "loaded", out)
	assert.NoError(t, s.Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, s.Del(ctx, "k"))
}

func TestStoreWithoutClientIsDisabled(t *testing.T) {
	s := NewStore(nil, "p:")
	var out int
	assert.False(t, s.Get(context.Background(), "k", &out))
}
