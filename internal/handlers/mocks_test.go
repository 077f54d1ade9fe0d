package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"github.com/SAP-F-2025/exam-prep-service/internal/scoring"
	"github.com/SAP-F-2025/exam-prep-service/internal/services"
	"github.com/SAP-F-2025/exam-prep-service/internal/utils"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

type MockExerciseService struct {
	mock.Mock
}

func (m *MockExerciseService) Get(ctx context.Context, session *models.Session, id string) (*services.ExerciseResponse, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExerciseResponse), args.Error(1)
}

func (m *MockExerciseService) List(ctx context.Context, session *models.Session, filters repositories.ExerciseFilters) (*services.ExerciseListResponse, error) {
	args := m.Called(ctx, session, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExerciseListResponse), args.Error(1)
}

func (m *MockExerciseService) Put(ctx context.Context, session *models.Session, exercise *models.Exercise) error {
	args := m.Called(ctx, session, exercise)
	return args.Error(0)
}

func (m *MockExerciseService) Delete(ctx context.Context, session *models.Session, id string) error {
	args := m.Called(ctx, session, id)
	return args.Error(0)
}

func (m *MockExerciseService) ScorePractice(ctx context.Context, session *models.Session, id string, answers models.Submission) (*scoring.Result, error) {
	args := m.Called(ctx, session, id, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scoring.Result), args.Error(1)
}

type MockTestService struct {
	mock.Mock
}

func (m *MockTestService) testResponse(args mock.Arguments) (*services.TestResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TestResponse), args.Error(1)
}

func (m *MockTestService) attemptResponse(args mock.Arguments) (*services.AttemptResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AttemptResponse), args.Error(1)
}

func (m *MockTestService) results(args mock.Arguments) (*services.TestResults, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TestResults), args.Error(1)
}

func (m *MockTestService) Generate(ctx context.Context, session *models.Session) (*services.TestResponse, error) {
	return m.testResponse(m.Called(ctx, session))
}

func (m *MockTestService) Start(ctx context.Context, session *models.Session) (*services.TestResponse, error) {
	return m.testResponse(m.Called(ctx, session))
}

func (m *MockTestService) Advance(ctx context.Context, session *models.Session) (*services.TestResponse, error) {
	return m.testResponse(m.Called(ctx, session))
}

func (m *MockTestService) Retreat(ctx context.Context, session *models.Session) (*services.TestResponse, error) {
	return m.testResponse(m.Called(ctx, session))
}

func (m *MockTestService) JumpTo(ctx context.Context, session *models.Session, cursor models.Cursor) (*services.TestResponse, error) {
	return m.testResponse(m.Called(ctx, session, cursor))
}

func (m *MockTestService) Finish(ctx context.Context, session *models.Session) (*services.TestResults, error) {
	return m.results(m.Called(ctx, session))
}

func (m *MockTestService) Reset(ctx context.Context, session *models.Session) (*services.TestResponse, error) {
	return m.testResponse(m.Called(ctx, session))
}

func (m *MockTestService) Current(ctx context.Context, session *models.Session) (*services.TestResponse, error) {
	return m.testResponse(m.Called(ctx, session))
}

func (m *MockTestService) CurrentExercise(ctx context.Context, session *models.Session) (*services.AttemptResponse, error) {
	return m.attemptResponse(m.Called(ctx, session))
}

func (m *MockTestService) SubmitAnswers(ctx context.Context, session *models.Session, req *services.AnswersRequest) (*services.AttemptResponse, error) {
	return m.attemptResponse(m.Called(ctx, session, req))
}

func (m *MockTestService) SetWritingChoice(ctx context.Context, session *models.Session, choice int) (*services.TestResponse, error) {
	return m.testResponse(m.Called(ctx, session, choice))
}

func (m *MockTestService) Results(ctx context.Context, session *models.Session) (*services.TestResults, error) {
	return m.results(m.Called(ctx, session))
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportResults(ctx context.Context, results *services.TestResults) ([]byte, error) {
	args := m.Called(ctx, results)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// ===== FIXTURES =====

type routerFixture struct {
	router    *gin.Engine
	exercises *MockExerciseService
	tests     *MockTestService
	export    *MockExportService
}

func newRouterFixture() *routerFixture {
	gin.SetMode(gin.TestMode)

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	f := &routerFixture{
		exercises: &MockExerciseService{},
		tests:     &MockTestService{},
		export:    &MockExportService{},
	}
	hm := NewHandlerManager(f.exercises, f.tests, f.export, validator.New(), logger)
	f.router = NewRouter(hm, logger)
	return f
}

// sessionWith matches the session the middleware built from the headers
func sessionWith(id string, role models.UserRole) interface{} {
	return mock.MatchedBy(func(s *models.Session) bool {
		return s != nil && s.ID == id && s.Role == role
	})
}
