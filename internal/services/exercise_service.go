package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/assembly"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"github.com/SAP-F-2025/exam-prep-service/internal/runtime"
	"github.com/SAP-F-2025/exam-prep-service/internal/scoring"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

type exerciseService struct {
	repo      repositories.ExerciseRepository
	validator *validator.Validator
	events    TestEventService
	demo      assembly.AllowList
	log       *ServiceLogger
	now       func() time.Time
}

func NewExerciseService(
	repo repositories.ExerciseRepository,
	validator *validator.Validator,
	events TestEventService,
	demo assembly.AllowList,
	logger *slog.Logger,
) ExerciseService {
	return &exerciseService{
		repo:      repo,
		validator: validator,
		events:    events,
		demo:      demo,
		log:       NewServiceLogger(logger, LogConfig{Service: "exam-prep-service", Component: "exercise"}),
		now:       time.Now,
	}
}

// ===== READ OPERATIONS =====

func (s *exerciseService) Get(ctx context.Context, session *models.Session, id string) (*ExerciseResponse, error) {
	ex, payload, err := s.load(ctx, session, id)
	if err != nil {
		return nil, err
	}
	return newExerciseResponse(ex, payload, session.CanSeeAnswerKeys()), nil
}

func (s *exerciseService) List(ctx context.Context, session *models.Session, filters repositories.ExerciseFilters) (*ExerciseListResponse, error) {
	if filters.Type != nil && !validType(*filters.Type) {
		return nil, fmt.Errorf("%w: unknown exercise type %q", ErrBadRequest, *filters.Type)
	}
	if filters.Part != nil && !validPart(*filters.Part) {
		return nil, fmt.Errorf("%w: unknown exercise part %q", ErrBadRequest, *filters.Part)
	}

	exercises, total, err := s.repo.Search(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}

	resp := &ExerciseListResponse{
		Exercises: make([]models.ExerciseSummary, 0, len(exercises)),
		Total:     total,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}
	for _, ex := range exercises {
		if session.IsDemo && !s.demo.Allows(ex.ID) {
			continue
		}
		resp.Exercises = append(resp.Exercises, ex.Summary())
	}
	if session.IsDemo {
		resp.Total = int64(len(resp.Exercises))
	}
	return resp, nil
}

// ===== WRITE OPERATIONS =====

func (s *exerciseService) Put(ctx context.Context, session *models.Session, exercise *models.Exercise) (err error) {
	op := s.log.WithOperation(ctx, "put_exercise", session.ID, session.UserID)
	defer func() { op.LogResult(exercise.ID, "exercise", err) }()

	if !session.CanEditExercises() {
		return NewPermissionError(session.UserID, exercise.ID, "exercise", "edit", "moderator or admin role required")
	}
	if err := s.validator.Validate(exercise); err != nil {
		if errs := validator.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}

	if err := s.repo.Put(ctx, exercise); err != nil {
		return fmt.Errorf("failed to save exercise: %w", err)
	}

	op.LogAudit(AuditEventUpdate, exercise.ID, "exercise")
	return nil
}

func (s *exerciseService) Delete(ctx context.Context, session *models.Session, id string) (err error) {
	op := s.log.WithOperation(ctx, "delete_exercise", session.ID, session.UserID)
	defer func() { op.LogResult(id, "exercise", err) }()

	if !session.CanRemoveExercises() {
		return NewPermissionError(session.UserID, id, "exercise", "delete", "moderator or admin role required")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete exercise: %w", err)
	}
	if !deleted {
		return ErrExerciseNotFound
	}

	op.LogAudit(AuditEventDelete, id, "exercise")
	return nil
}

// ===== PRACTICE =====

// ScorePractice scores a standalone attempt at one exercise and reveals the key.
func (s *exerciseService) ScorePractice(ctx context.Context, session *models.Session, id string, answers models.Submission) (*scoring.Result, error) {
	ex, _, err := s.load(ctx, session, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rt, err := runtime.New(ex, now)
	if err != nil {
		return nil, err
	}
	outcome, err := rt.Submit(answers, now)
	if err != nil {
		return nil, err
	}

	if err := s.events.NotifyExerciseSubmitted(ctx, session, outcome.Result, false, true); err != nil {
		s.log.Logger().Warn("Failed to publish exercise submitted event", "exercise_id", id, "error", err)
	}

	result := outcome.Result
	return &result, nil
}

// load fetches the exercise and decodes its payload, honoring the demo allow list.
func (s *exerciseService) load(ctx context.Context, session *models.Session, id string) (*models.Exercise, models.Payload, error) {
	if session.IsDemo && !s.demo.Allows(id) {
		return nil, nil, ErrDemoRestricted
	}

	ex, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	if ex == nil {
		return nil, nil, ErrExerciseNotFound
	}

	payload, err := ex.DecodePayload()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode exercise %s: %w", id, err)
	}
	return ex, payload, nil
}

func validType(t models.ExerciseType) bool {
	for _, v := range models.ValidExerciseTypes() {
		if v == t {
			return true
		}
	}
	return false
}

func validPart(part models.ExercisePart) bool {
	for _, p := range models.ValidExerciseParts() {
		if p == part {
			return true
		}
	}
	return false
}
