package models

import (
	"time"

	"gorm.io/datatypes"
)

type ExerciseType string

const (
	ExerciseReading   ExerciseType = "reading"
	ExerciseListening ExerciseType = "listening"
	ExerciseGrammar   ExerciseType = "grammar"
	ExerciseWriting   ExerciseType = "writing"
)

type ExercisePart string

const (
	Part1 ExercisePart = "part1"
	Part2 ExercisePart = "part2"
	Part3 ExercisePart = "part3"
)

// Exercise is one authored exercise record. Content holds the type/part specific
// payload as JSON; use DecodePayload to get the typed variant.
type Exercise struct {
	ID               string         `json:"id" gorm:"primaryKey;size:100" validate:"required,max=100,exercise_id"`
	Type             ExerciseType   `json:"type" gorm:"not null;size:20;index:idx_exercises_type_part" validate:"required,exercise_type"`
	Part             ExercisePart   `json:"part" gorm:"not null;size:10;index:idx_exercises_type_part" validate:"required,exercise_part"`
	Title            string         `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description      string         `json:"description" gorm:"type:text" validate:"max=2000"`
	TimeLimitMinutes int            `json:"time_limit_minutes" gorm:"not null" validate:"required,min=1,max=180"`
	Content          datatypes.JSON `json:"content" gorm:"type:jsonb" validate:"required"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Exercise) TableName() string {
	return "exercises"
}

// ExerciseSummary is the slice of an exercise kept inside a test pool.
type ExerciseSummary struct {
	ID    string       `json:"id"`
	Type  ExerciseType `json:"type"`
	Part  ExercisePart `json:"part"`
	Title string       `json:"title"`
}

func (e *Exercise) Summary() ExerciseSummary {
	return ExerciseSummary{
		ID:    e.ID,
		Type:  e.Type,
		Part:  e.Part,
		Title: e.Title,
	}
}

// TimeLimit returns the exercise countdown as a duration.
func (e *Exercise) TimeLimit() time.Duration {
	return time.Duration(e.TimeLimitMinutes) * time.Minute
}

func ValidExerciseTypes() []ExerciseType {
	return []ExerciseType{ExerciseReading, ExerciseListening, ExerciseGrammar, ExerciseWriting}
}

func ValidExerciseParts() []ExercisePart {
	return []ExercisePart{Part1, Part2, Part3}
}
