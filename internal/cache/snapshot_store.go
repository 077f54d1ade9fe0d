package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

const snapshotKeyPrefix = "currentTest:"

// SnapshotKey is the storage key of the test snapshot of a session.
func SnapshotKey(sessionID string) string {
	return snapshotKeyPrefix + sessionID
}

// SnapshotStore keeps test snapshots in the cache under SnapshotKey.
type SnapshotStore struct {
	cache CacheService
	ttl   time.Duration
}

func NewSnapshotStore(cache CacheService, ttl time.Duration) repositories.SnapshotStore {
	return &SnapshotStore{cache: cache, ttl: ttl}
}

func (s *SnapshotStore) Save(ctx context.Context, sessionID string, test *models.TestInstance) error {
	if test == nil {
		return s.Clear(ctx, sessionID)
	}
	if err := s.cache.Set(ctx, SnapshotKey(sessionID), test, s.ttl); err != nil {
		return fmt.Errorf("failed to save test snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (*models.TestInstance, error) {
	var test models.TestInstance
	if err := s.cache.Get(ctx, SnapshotKey(sessionID), &test); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load test snapshot: %w", err)
	}
	return &test, nil
}

func (s *SnapshotStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, SnapshotKey(sessionID)); err != nil {
		return fmt.Errorf("failed to clear test snapshot: %w", err)
	}
	return nil
}
