package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository/redis"
)

func startRedis(t *testing.T) *redislib.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redislib.NewClient(&redislib.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSessionRepository(t *testing.T) {
	client := startRedis(t)
	repo := redis.NewSessionRepository(client, time.Minute)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	session := &domain.Session{ID: "s1", UserID: "alice", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, repo.Save(ctx, session))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.True(t, got.ExpiresAt.Equal(session.ExpiresAt))

	ttl, err := client.TTL(ctx, "taskboard:session:s1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepositoryRejectsIncompleteSession(t *testing.T) {
	repo := redis.NewSessionRepository(nil, time.Minute)
	err := repo.Save(context.Background(), &domain.Session{ID: "s1"})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
