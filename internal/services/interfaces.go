package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"github.com/SAP-F-2025/exam-prep-service/internal/scoring"
)

// ExerciseService serves the exercise bank: browsing, authoring and practice scoring.
type ExerciseService interface {
	Get(ctx context.Context, session *models.Session, id string) (*ExerciseResponse, error)
	List(ctx context.Context, session *models.Session, filters repositories.ExerciseFilters) (*ExerciseListResponse, error)
	Put(ctx context.Context, session *models.Session, exercise *models.Exercise) error
	Delete(ctx context.Context, session *models.Session, id string) error

	// Practice mode
	ScorePractice(ctx context.Context, session *models.Session, id string, answers models.Submission) (*scoring.Result, error)
}

// TestService drives one full test per session: assembly, navigation, answering
// and the final results.
type TestService interface {
	Generate(ctx context.Context, session *models.Session) (*TestResponse, error)
	Start(ctx context.Context, session *models.Session) (*TestResponse, error)
	Advance(ctx context.Context, session *models.Session) (*TestResponse, error)
	Retreat(ctx context.Context, session *models.Session) (*TestResponse, error)
	JumpTo(ctx context.Context, session *models.Session, cursor models.Cursor) (*TestResponse, error)
	Finish(ctx context.Context, session *models.Session) (*TestResults, error)
	Reset(ctx context.Context, session *models.Session) (*TestResponse, error)
	Current(ctx context.Context, session *models.Session) (*TestResponse, error)

	// Current exercise
	CurrentExercise(ctx context.Context, session *models.Session) (*AttemptResponse, error)
	SubmitAnswers(ctx context.Context, session *models.Session, req *AnswersRequest) (*AttemptResponse, error)
	SetWritingChoice(ctx context.Context, session *models.Session, choice int) (*TestResponse, error)

	Results(ctx context.Context, session *models.Session) (*TestResults, error)
}

// TestEventService publishes the lifecycle of tests and exercises.
type TestEventService interface {
	NotifyTestGenerated(ctx context.Context, session *models.Session, test *models.TestInstance, emptyParts []models.PartRef) error
	NotifyTestStarted(ctx context.Context, session *models.Session, test *models.TestInstance, startedAt time.Time) error
	NotifyTestCompleted(ctx context.Context, session *models.Session, results *TestResults) error
	NotifyTestReset(ctx context.Context, session *models.Session, prior models.TestState, resetAt time.Time) error
	NotifyExerciseSubmitted(ctx context.Context, session *models.Session, result scoring.Result, timedOut, practice bool) error
}

// ExportService renders finished test results as a spreadsheet.
type ExportService interface {
	ExportResults(ctx context.Context, results *TestResults) ([]byte, error)
}
