package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) RefreshTokenKey(userID, sessionID string) string {
	return fmt.Sprintf("sess:%s:%s", userID, sessionID)
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerGenerateAndRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	token, err := manager.Generate(ctx, "user-1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, token, store.data["sess:user-1:sess-1"])

	_, _, err = manager.Rotate(ctx, "user-1", "sess-1", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken))

	_, _, err = manager.Rotate(ctx, "user-2", "sess-1", token)
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken), "another user's id must not unlock the session")

	newID, newToken, err := manager.Rotate(ctx, "user-1", "sess-1", token)
	require.NoError(t, err)
	assert.NotEqual(t, "sess-1", newID)
	assert.NotEqual(t, token, newToken)
	_, exists := store.data["sess:user-1:sess-1"]
	assert.False(t, exists, "old session left behind")
	assert.Equal(t, newToken, store.data["sess:user-1:"+newID])

	_, _, err = manager.Rotate(ctx, "user-1", "sess-1", token)
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken), "rotated token must not be reusable")
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	_, err := manager.Generate(ctx, "user-1", "sess-1")
	require.NoError(t, err)

	ok, err := manager.HasSession(ctx, "user-1", "sess-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, manager.Revoke(ctx, "user-1", "sess-1"))

	ok, err = manager.HasSession(ctx, "user-1", "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerRequiresIdentifiers(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	_, err := manager.Generate(ctx, "", "sess")
	assert.Error(t, err)
	assert.Error(t, manager.Revoke(ctx, "user", " "))
	_, _, err = manager.Rotate(ctx, "user", "", "token")
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken))
}
