package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

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

type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, sessionID string, test *models.TestInstance) error {
	args := m.Called(ctx, sessionID, test)
	return args.Error(0)
}

func (m *MockSnapshotStore) Load(ctx context.Context, sessionID string) (*models.TestInstance, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TestInstance), args.Error(1)
}

func (m *MockSnapshotStore) Clear(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// ===== FIXTURES =====

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func studentSession() *models.Session {
	return &models.Session{ID: "session-1", UserID: "user-1", Role: models.RoleStudent}
}

func grammarExercise(id string) *models.Exercise {
	return &models.Exercise{
		ID:               id,
		Type:             models.ExerciseGrammar,
		Part:             models.Part1,
		Title:            "Artikel im Akkusativ",
		TimeLimitMinutes: 10,
		Content: datatypes.JSON(`{
			"segments": [
				{"kind": "text", "content": "Ich sehe "},
				{"kind": "blank"},
				{"kind": "text", "content": " Hund."}
			],
			"blanks": [{"options": ["der", "den", "dem"], "correct_option": 1}]
		}`),
	}
}

func writingExercise(id string, part models.ExercisePart) *models.Exercise {
	return &models.Exercise{
		ID:               id,
		Type:             models.ExerciseWriting,
		Part:             part,
		Title:            "Beschwerde an das Hotel",
		TimeLimitMinutes: 30,
		Content: datatypes.JSON(`{
			"prompt": "Schreiben Sie eine Beschwerde.",
			"evaluation_criteria": ["Formeller Ton", "Klare Struktur"]
		}`),
	}
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
