package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExercisePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewExercisePostgreSQL(db *gorm.DB) repositories.ExerciseRepository {
	return &ExercisePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (e *ExercisePostgreSQL) List(ctx context.Context, exerciseType models.ExerciseType, part models.ExercisePart) ([]*models.Exercise, error) {
	var exercises []*models.Exercise
	if err := e.db.WithContext(ctx).
		Where("type = ? AND part = ?", exerciseType, part).
		Order("id ASC").
		Find(&exercises).Error; err != nil {
		return nil, err
	}

	return exercises, nil
}

func (e *ExercisePostgreSQL) Get(ctx context.Context, id string) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := e.db.WithContext(ctx).First(&exercise, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &exercise, nil
}

// Put inserts the exercise or replaces every authored field of an existing one.
func (e *ExercisePostgreSQL) Put(ctx context.Context, exercise *models.Exercise) error {
	return e.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"type", "part", "title", "description", "time_limit_minutes", "content", "updated_at",
			}),
		}).
		Create(exercise).Error
}

func (e *ExercisePostgreSQL) Delete(ctx context.Context, id string) (bool, error) {
	result := e.db.WithContext(ctx).Delete(&models.Exercise{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Search performs filtered, paginated listing with optional text search on
// title and description
func (e *ExercisePostgreSQL) Search(ctx context.Context, filters repositories.ExerciseFilters) ([]*models.Exercise, int64, error) {
	db := e.db.WithContext(ctx).Model(&models.Exercise{})

	if filters.Query != "" {
		searchQuery := fmt.Sprintf("%%%s%%", filters.Query)
		db = db.Where("title ILIKE ? OR description ILIKE ?", searchQuery, searchQuery)
	}
	if filters.Type != nil {
		db = db.Where("type = ?", *filters.Type)
	}
	if filters.Part != nil {
		db = db.Where("part = ?", *filters.Part)
	}

	// Count total
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = e.helpers.ApplyPaginationAndSort(db, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		"id", "title", "created_at", "updated_at")

	var exercises []*models.Exercise
	if err := db.Find(&exercises).Error; err != nil {
		return nil, 0, err
	}

	return exercises, total, nil
}
