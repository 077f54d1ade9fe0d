package cached

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-prep-service/internal/cache"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

type MockExerciseRepository struct {
	mock.Mock
}

func (m *MockExerciseRepository) List(ctx context.Context, exerciseType models.ExerciseType, part models.ExercisePart) ([]*models.Exercise, error) {
	args := m.Called(ctx, exerciseType, part)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Exercise), args.Error(1)
}

func (m *MockExerciseRepository) Get(ctx context.Context, id string) (*models.Exercise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exercise), args.Error(1)
}

func (m *MockExerciseRepository) Put(ctx context.Context, exercise *models.Exercise) error {
	args := m.Called(ctx, exercise)
	return args.Error(0)
}

func (m *MockExerciseRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockExerciseRepository) Search(ctx context.Context, filters repositories.ExerciseFilters) ([]*models.Exercise, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Exercise), args.Get(1).(int64), args.Error(2)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return m.Called(ctx, key, dest).Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheService) DeletePattern(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGet_MissLoadsAndStores(t *testing.T) {
	ctx := context.Background()
	next := new(MockExerciseRepository)
	c := new(MockCacheService)
	ex := &models.Exercise{ID: "reading-part1-1"}

	c.On("Get", ctx, "exercise:reading-part1-1", mock.Anything).Return(cache.ErrCacheMiss)
	next.On("Get", ctx, "reading-part1-1").Return(ex, nil)
	c.On("Set", ctx, "exercise:reading-part1-1", ex, time.Minute).Return(nil)

	repo := NewExerciseRepository(next, c, time.Minute, quietLogger())
	got, err := repo.Get(ctx, "reading-part1-1")

	require.NoError(t, err)
	assert.Same(t, ex, got)
	next.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestGet_Hit(t *testing.T) {
	ctx := context.Background()
	next := new(MockExerciseRepository)
	c := new(MockCacheService)
	c.On("Get", ctx, "exercise:x", mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(2).(*models.Exercise).Title = "cached"
		}).
		Return(nil)

	got, err := NewExerciseRepository(next, c, time.Minute, quietLogger()).Get(ctx, "x")

	require.NoError(t, err)
	assert.Equal(t, "cached", got.Title)
	next.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestGet_AbsentIsNotCached(t *testing.T) {
	ctx := context.Background()
	next := new(MockExerciseRepository)
	c := new(MockCacheService)
	c.On("Get", ctx, "exercise:gone", mock.Anything).Return(errors.New("redis down"))
	next.On("Get", ctx, "gone").Return(nil, nil)

	got, err := NewExerciseRepository(next, c, time.Minute, quietLogger()).Get(ctx, "gone")

	require.NoError(t, err)
	assert.Nil(t, got)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestList_ReadThrough(t *testing.T) {
	ctx := context.Background()
	next := new(MockExerciseRepository)
	c := new(MockCacheService)
	list := []*models.Exercise{{ID: "grammar-part2-1"}}

	c.On("Get", ctx, "exercises:grammar:part2", mock.Anything).Return(cache.ErrCacheMiss)
	next.On("List", ctx, models.ExerciseGrammar, models.Part2).Return(list, nil)
	c.On("Set", ctx, "exercises:grammar:part2", list, time.Minute).Return(errors.New("redis down"))

	got, err := NewExerciseRepository(next, c, time.Minute, quietLogger()).List(ctx, models.ExerciseGrammar, models.Part2)

	require.NoError(t, err)
	assert.Equal(t, list, got)
}

func TestPutAndDelete_Invalidate(t *testing.T) {
	ctx := context.Background()
	next := new(MockExerciseRepository)
	c := new(MockCacheService)
	ex := &models.Exercise{ID: "writing-part1-1"}

	next.On("Put", ctx, ex).Return(nil)
	next.On("Delete", ctx, "writing-part1-1").Return(true, nil).Once()
	next.On("Delete", ctx, "missing").Return(false, nil).Once()
	c.On("Delete", ctx, "exercise:writing-part1-1").Return(nil)
	c.On("DeletePattern", ctx, "exercises:*").Return(nil)

	repo := NewExerciseRepository(next, c, time.Minute, quietLogger())
	require.NoError(t, repo.Put(ctx, ex))

	deleted, err := repo.Delete(ctx, "writing-part1-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, deleted)

	c.AssertNumberOfCalls(t, "Delete", 2)
	c.AssertNumberOfCalls(t, "DeletePattern", 2)
}
