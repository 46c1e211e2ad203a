package redis

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(Config{
		URL:          "redis://:pw@localhost:6380/2",
		MaxRetries:   4,
		RetryBackoff: 20 * time.Millisecond,
		PoolSize:     7,
		MinIdleConns: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 4, opts.MaxRetries)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 2, opts.MinIdleConns)
}

func TestParseOptions_InvalidURL(t *testing.T) {
	_, err := ParseOptions(Config{URL: "http://localhost"})
	assert.Error(t, err)
}

func TestNewRedisBroker_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := NewRedisBroker(ctx, Config{URL: "redis://127.0.0.1:1/0", MaxRetries: -1}, nil, zerolog.Nop())
	assert.Error(t, err)
}
