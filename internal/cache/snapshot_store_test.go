package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "currentTest:abc", SnapshotKey("abc"))
}

func TestSnapshotStore_Save(t *testing.T) {
	ctx := context.Background()
	cache := new(MockCacheService)
	test := &models.TestInstance{IsTestReady: true}
	cache.On("Set", ctx, "currentTest:s1", test, time.Hour).Return(nil)

	store := NewSnapshotStore(cache, time.Hour)
	require.NoError(t, store.Save(ctx, "s1", test))

	cache.AssertExpectations(t)
}

func TestSnapshotStore_SaveNilClears(t *testing.T) {
	ctx := context.Background()
	cache := new(MockCacheService)
	cache.On("Delete", ctx, "currentTest:s1").Return(nil)

	require.NoError(t, NewSnapshotStore(cache, 0).Save(ctx, "s1", nil))
	cache.AssertExpectations(t)
}

func TestSnapshotStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		cache := new(MockCacheService)
		cache.On("Get", ctx, "currentTest:s1", mock.AnythingOfType("*models.TestInstance")).
			Run(func(args mock.Arguments) {
				dest := args.Get(2).(*models.TestInstance)
				dest.IsTestReady = true
				dest.CurrentSection = 2
			}).
			Return(nil)

		test, err := NewSnapshotStore(cache, 0).Load(ctx, "s1")
		require.NoError(t, err)
		require.NotNil(t, test)
		assert.Equal(t, 2, test.CurrentSection)
		assert.Equal(t, models.TestInProgress, test.State())
	})

	t.Run("miss", func(t *testing.T) {
		cache := new(MockCacheService)
		cache.On("Get", ctx, "currentTest:s1", mock.Anything).Return(ErrCacheMiss)

		test, err := NewSnapshotStore(cache, 0).Load(ctx, "s1")
		require.NoError(t, err)
		assert.Nil(t, test)
	})

	t.Run("failure", func(t *testing.T) {
		cache := new(MockCacheService)
		cache.On("Get", ctx, "currentTest:s1", mock.Anything).Return(errors.New("connection reset"))

		_, err := NewSnapshotStore(cache, 0).Load(ctx, "s1")
		assert.Error(t, err)
	})
}
