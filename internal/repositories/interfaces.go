package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type ExerciseFilters struct {
	Type      *models.ExerciseType `json:"type"`
	Part      *models.ExercisePart `json:"part"`
	Query     string               `json:"query"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "id", "title", "created_at", "updated_at"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

// ===== REPOSITORIES =====

// ExerciseRepository is the exercise store. Get returns nil, nil for an unknown
// ID; Delete reports whether a record was removed.
type ExerciseRepository interface {
	List(ctx context.Context, exerciseType models.ExerciseType, part models.ExercisePart) ([]*models.Exercise, error)
	Get(ctx context.Context, id string) (*models.Exercise, error)
	Put(ctx context.Context, exercise *models.Exercise) error
	Delete(ctx context.Context, id string) (bool, error)

	// Admin listing
	Search(ctx context.Context, filters ExerciseFilters) ([]*models.Exercise, int64, error)
}

// SnapshotStore persists the test instance of a session for resume. Load returns
// nil, nil when nothing is stored.
type SnapshotStore interface {
	Save(ctx context.Context, sessionID string, test *models.TestInstance) error
	Load(ctx context.Context, sessionID string) (*models.TestInstance, error)
	Clear(ctx context.Context, sessionID string) error
}
