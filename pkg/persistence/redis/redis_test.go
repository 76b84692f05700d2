package redis_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/dukex/flowcook/pkg/persistence"
	"github.com/dukex/flowcook/pkg/persistence/persistencetest"
	"github.com/dukex/flowcook/pkg/persistence/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// The tests flush the selected database; point REDIS_URL at a scratch instance.
func newPersistence(t *testing.T) persistence.Persistence {
	t.Helper()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()

	opts, err := goredis.ParseURL(redisURL)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	require.NoError(t, client.FlushDB(ctx).Err())

	p := redis.NewPersistenceWithClient(client, slog.Default())

	t.Cleanup(func() {
		_ = client.FlushDB(ctx).Err()
		_ = p.Close(ctx)
	})

	return p
}

func TestPersistence(t *testing.T) {
	persistencetest.Run(t, newPersistence)
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	_, err := redis.NewPersistence(context.Background(), slog.Default(), "not-a-url")
	require.Error(t, err)
}
