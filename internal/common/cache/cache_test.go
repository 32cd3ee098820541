package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCacheFallsThroughToSetter(t *testing.T) {
	var c *CacheService
	calls := 0

	var got []string
	for i := 0; i < 2; i++ {
		err := c.GetOrSet(context.Background(), KeyActiveChannels, &got, time.Minute, func() (interface{}, error) {
			calls++
			return []string{"@a", "@b"}, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"@a", "@b"}, got)
	assert.Equal(t, 2, calls)
	assert.NoError(t, c.InvalidateChannels(context.Background()))
}

func TestGetOrSetPropagatesSetterError(t *testing.T) {
	var c *CacheService
	boom := errors.New("boom")

	var got int
	err := c.GetOrSet(context.Background(), "k", &got, time.Minute, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}
