package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/events"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/scoring"
)

type testEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewTestEventService(eventPublisher events.EventPublisher, logger *slog.Logger) TestEventService {
	return &testEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// ===== TEST LIFECYCLE =====

func (s *testEventService) NotifyTestGenerated(ctx context.Context, session *models.Session, test *models.TestInstance, emptyParts []models.PartRef) error {
	s.logger.Info("Publishing test generated event",
		"session_id", session.ID,
		"empty_parts", len(emptyParts))

	event := events.NewTestEvent(events.EventTestGenerated, session.ID, events.TestGeneratedEvent{
		UserID:              session.UserID,
		SelectedExerciseIDs: test.SelectedIDs(),
		AllPartsReady:       len(emptyParts) == 0,
		EmptyParts:          emptyParts,
		IsDemo:              session.IsDemo,
	})

	return s.eventPublisher.PublishTestEvent(ctx, event)
}

func (s *testEventService) NotifyTestStarted(ctx context.Context, session *models.Session, test *models.TestInstance, startedAt time.Time) error {
	s.logger.Info("Publishing test started event", "session_id", session.ID)

	event := events.NewTestEvent(events.EventTestStarted, session.ID, events.TestStartedEvent{
		UserID:      session.UserID,
		ExerciseIDs: test.SelectedIDs(),
		StartedAt:   startedAt,
	})

	return s.eventPublisher.PublishTestEvent(ctx, event)
}

func (s *testEventService) NotifyTestCompleted(ctx context.Context, session *models.Session, results *TestResults) error {
	s.logger.Info("Publishing test completed event",
		"session_id", session.ID,
		"percentage", results.Percentage)

	scores := make([]events.ExerciseScore, 0, len(results.Exercises))
	for _, ex := range results.Exercises {
		if ex.Unavailable {
			continue
		}
		scores = append(scores, exerciseScore(ex.Result, ex.TimedOut))
	}

	event := events.NewTestEvent(events.EventTestCompleted, session.ID, events.TestCompletedEvent{
		UserID:            session.UserID,
		CompletedAt:       results.CompletedAt,
		Exercises:         scores,
		Correct:           results.Correct,
		Total:             results.Total,
		OverallPercentage: results.Percentage,
	})

	return s.eventPublisher.PublishTestEvent(ctx, event)
}

func (s *testEventService) NotifyTestReset(ctx context.Context, session *models.Session, prior models.TestState, resetAt time.Time) error {
	s.logger.Info("Publishing test reset event",
		"session_id", session.ID,
		"prior_state", prior)

	event := events.NewTestEvent(events.EventTestReset, session.ID, events.TestResetEvent{
		UserID:     session.UserID,
		PriorState: string(prior),
		ResetAt:    resetAt,
	})

	return s.eventPublisher.PublishTestEvent(ctx, event)
}

// ===== EXERCISE =====

func (s *testEventService) NotifyExerciseSubmitted(ctx context.Context, session *models.Session, result scoring.Result, timedOut, practice bool) error {
	s.logger.Info("Publishing exercise submitted event",
		"session_id", session.ID,
		"exercise_id", result.ExerciseID,
		"timed_out", timedOut,
		"practice", practice)

	event := events.NewTestEvent(events.EventExerciseSubmitted, session.ID, events.ExerciseSubmittedEvent{
		UserID:   session.UserID,
		Score:    exerciseScore(result, timedOut),
		Practice: practice,
	})

	return s.eventPublisher.PublishTestEvent(ctx, event)
}

func exerciseScore(result scoring.Result, timedOut bool) events.ExerciseScore {
	return events.ExerciseScore{
		ExerciseID: result.ExerciseID,
		Kind:       result.Kind,
		Correct:    result.Correct,
		Total:      result.Total,
		Percentage: result.Percentage,
		AutoScored: result.AutoScored,
		TimedOut:   timedOut,
	}
}
