package cached

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/cache"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

const listKeyPattern = "exercises:*"

func exerciseKey(id string) string {
	return "exercise:" + id
}

func listKey(exerciseType models.ExerciseType, part models.ExercisePart) string {
	return fmt.Sprintf("exercises:%s:%s", exerciseType, part)
}

// ExerciseRepository is a read-through cache in front of another exercise
// repository. Cache failures are logged and never fail a read.
type ExerciseRepository struct {
	next   repositories.ExerciseRepository
	cache  cache.CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewExerciseRepository(next repositories.ExerciseRepository, c cache.CacheService, ttl time.Duration, logger *slog.Logger) repositories.ExerciseRepository {
	return &ExerciseRepository{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *ExerciseRepository) List(ctx context.Context, exerciseType models.ExerciseType, part models.ExercisePart) ([]*models.Exercise, error) {
	key := listKey(exerciseType, part)

	var exercises []*models.Exercise
	if r.lookup(ctx, key, &exercises) {
		return exercises, nil
	}

	exercises, err := r.next.List(ctx, exerciseType, part)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, exercises)
	return exercises, nil
}

func (r *ExerciseRepository) Get(ctx context.Context, id string) (*models.Exercise, error) {
	key := exerciseKey(id)

	var exercise models.Exercise
	if r.lookup(ctx, key, &exercise) {
		return &exercise, nil
	}

	found, err := r.next.Get(ctx, id)
	if err != nil || found == nil {
		return found, err
	}
	r.store(ctx, key, found)
	return found, nil
}

func (r *ExerciseRepository) Put(ctx context.Context, exercise *models.Exercise) error {
	if err := r.next.Put(ctx, exercise); err != nil {
		return err
	}
	r.invalidate(ctx, exercise.ID)
	return nil
}

func (r *ExerciseRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.next.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		r.invalidate(ctx, id)
	}
	return deleted, nil
}

// Search is not cached; admin listings must see writes immediately.
func (r *ExerciseRepository) Search(ctx context.Context, filters repositories.ExerciseFilters) ([]*models.Exercise, int64, error) {
	return r.next.Search(ctx, filters)
}

func (r *ExerciseRepository) lookup(ctx context.Context, key string, dest interface{}) bool {
	err := r.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Exercise cache read failed", "key", key, "error", err)
	}
	return false
}

func (r *ExerciseRepository) store(ctx context.Context, key string, value interface{}) {
	if err := r.cache.Set(ctx, key, value, r.ttl); err != nil {
		r.logger.Warn("Exercise cache write failed", "key", key, "error", err)
	}
}

// invalidate drops the record and every list, since an update may move an
// exercise to another type or part.
func (r *ExerciseRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, exerciseKey(id)); err != nil {
		r.logger.Warn("Exercise cache invalidation failed", "exercise_id", id, "error", err)
	}
	if err := r.cache.DeletePattern(ctx, listKeyPattern); err != nil {
		r.logger.Warn("Exercise list cache invalidation failed", "error", err)
	}
}
