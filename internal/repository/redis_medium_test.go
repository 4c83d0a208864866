package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-builder/pkg/storage"
)

func TestRedisMediumUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	medium := NewRedisMedium(client, "tt:", nil)
	defer medium.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := medium.Get(ctx, "college-timetable-maker")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrKeyNotFound)
	assert.Contains(t, err.Error(), "tt:college-timetable-maker")

	err = medium.Set(ctx, "college-timetable-maker", []byte(`[]`))
	require.Error(t, err)
}

func TestRedisMediumCloseWithoutClient(t *testing.T) {
	assert.NoError(t, (&RedisMedium{}).Close())
}

func TestMemoryMediumCopiesValues(t *testing.T) {
	m := NewMemoryMedium()
	ctx := context.Background()
	value := []byte(`[]`)
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}
