package services

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-prep-service/internal/assembly"
	"github.com/SAP-F-2025/exam-prep-service/internal/events"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/runtime"
)

func testLayout() []models.Section {
	return []models.Section{
		{
			Type:  models.ExerciseGrammar,
			Title: "Grammar",
			Parts: []models.Part{{Part: models.Part1, Title: "Teil 1"}},
		},
		{
			Type:  models.ExerciseWriting,
			Title: "Writing",
			Parts: []models.Part{{
				Part:    models.Part1,
				Title:   "Teil 1",
				Sources: []models.ExercisePart{models.Part1, models.Part2},
			}},
		},
	}
}

type testServiceFixture struct {
	service   TestService
	repo      *MockExerciseRepository
	snapshots *MockSnapshotStore
	publisher *events.MockEventPublisher
	clock     *fakeClock
}

func newTestServiceFixture(t *testing.T) *testServiceFixture {
	t.Helper()

	logger := discardLogger()
	repo := &MockExerciseRepository{}
	snapshots := &MockSnapshotStore{}
	publisher := events.NewMockEventPublisher(logger)
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}

	grammar := grammarExercise("grammar-part1-1")
	writing1 := writingExercise("writing-part1-1", models.Part1)
	writing2 := writingExercise("writing-part2-1", models.Part2)

	repo.On("List", mock.Anything, models.ExerciseGrammar, models.Part1).Return([]*models.Exercise{grammar}, nil).Maybe()
	repo.On("List", mock.Anything, models.ExerciseWriting, models.Part1).Return([]*models.Exercise{writing1}, nil).Maybe()
	repo.On("List", mock.Anything, models.ExerciseWriting, models.Part2).Return([]*models.Exercise{writing2}, nil).Maybe()
	repo.On("Get", mock.Anything, grammar.ID).Return(grammar, nil).Maybe()
	repo.On("Get", mock.Anything, writing1.ID).Return(writing1, nil).Maybe()
	repo.On("Get", mock.Anything, writing2.ID).Return(writing2, nil).Maybe()

	snapshots.On("Load", mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	snapshots.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	snapshots.On("Clear", mock.Anything, mock.Anything).Return(nil).Maybe()

	engine := assembly.NewEngine(repo,
		assembly.WithRand(rand.New(rand.NewPCG(7, 11))),
		assembly.WithLogger(logger))

	service := NewTestService(engine, repo, snapshots, NewTestEventService(publisher, logger), logger,
		TestServiceConfig{
			Layout:        testLayout(),
			DemoAllowList: assembly.NewAllowList("grammar-part1-1", "writing-part1-1"),
		},
		WithClock(clock.Now))

	return &testServiceFixture{
		service:   service,
		repo:      repo,
		snapshots: snapshots,
		publisher: publisher,
		clock:     clock,
	}
}

func TestTestService_FullRun(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	session := studentSession()

	generated, err := f.service.Generate(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, models.TestNotStarted, generated.State)
	assert.True(t, generated.AllPartsReady)
	assert.Empty(t, generated.EmptyParts)
	assert.Len(t, generated.Sections[1].Parts[0].ExercisePool, 2)

	started, err := f.service.Start(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, models.TestInProgress, started.State)
	require.NotNil(t, started.Current)
	assert.Equal(t, models.ExerciseGrammar, started.Current.Type)
	f.snapshots.AssertCalled(t, "Save", mock.Anything, session.ID, mock.Anything)

	attempt, err := f.service.CurrentExercise(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "grammar-part1-1", attempt.Exercise.ID)
	assert.False(t, attempt.Exercise.AnswerKeys)
	payload, ok := attempt.Exercise.Content.(*models.BlankSelectionPayload)
	require.True(t, ok)
	assert.Nil(t, payload.Blanks[0].CorrectOption, "answer key must stay hidden during the test")
	require.NotNil(t, attempt.RemainingSeconds)
	assert.Equal(t, 600, *attempt.RemainingSeconds)

	submitted, err := f.service.SubmitAnswers(ctx, session, &AnswersRequest{
		Answers: models.Submission{"blank-0": models.OptionAnswer(1)},
		Submit:  true,
	})
	require.NoError(t, err)
	assert.True(t, submitted.Submitted)
	require.NotNil(t, submitted.Result)
	assert.False(t, submitted.Result.Revealed)
	assert.Zero(t, submitted.Result.Correct)

	moved, err := f.service.Advance(ctx, session)
	require.NoError(t, err)
	require.NotNil(t, moved.Moved)
	assert.True(t, *moved.Moved)
	assert.Equal(t, models.Cursor{Section: 1, Part: 0}, moved.Cursor)

	_, err = f.service.SubmitAnswers(ctx, session, &AnswersRequest{Submit: true})
	assert.ErrorIs(t, err, ErrWritingChoiceRequired)

	_, err = f.service.SetWritingChoice(ctx, session, 2)
	require.NoError(t, err)

	_, err = f.service.SubmitAnswers(ctx, session, &AnswersRequest{
		Answers: models.Submission{models.WritingResponseSlot: models.TextAnswer("Sehr geehrte Damen und Herren, ich beschwere mich.")},
		Submit:  true,
	})
	require.NoError(t, err)

	results, err := f.service.Finish(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1, results.Correct)
	assert.Equal(t, 1, results.Total)
	assert.Equal(t, 100, results.Percentage)
	require.Len(t, results.Exercises, 2)
	assert.True(t, results.Exercises[0].Result.Revealed)
	assert.False(t, results.Exercises[1].Result.AutoScored)
	require.NotNil(t, results.WritingChoice)
	assert.Equal(t, 2, *results.WritingChoice)

	again, err := f.service.Results(ctx, session)
	require.NoError(t, err)
	assert.Same(t, results, again)

	assert.Equal(t, []events.EventType{
		events.EventTestGenerated,
		events.EventTestStarted,
		events.EventExerciseSubmitted,
		events.EventExerciseSubmitted,
		events.EventTestCompleted,
	}, f.publisher.EventTypes())
}

func TestTestService_GenerateOnlyBeforeStart(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	session := studentSession()

	_, err := f.service.Generate(ctx, session)
	require.NoError(t, err)
	_, err = f.service.Generate(ctx, session)
	require.NoError(t, err, "regenerating before start is allowed")

	_, err = f.service.Start(ctx, session)
	require.NoError(t, err)

	_, err = f.service.Generate(ctx, session)
	assert.ErrorIs(t, err, ErrTestAlreadyStarted)
	assert.True(t, IsConflict(err))
}

func TestTestService_StartRefusedWithEmptyPool(t *testing.T) {
	logger := discardLogger()
	repo := &MockExerciseRepository{}
	snapshots := &MockSnapshotStore{}
	repo.On("List", mock.Anything, models.ExerciseGrammar, models.Part1).Return([]*models.Exercise{grammarExercise("grammar-part1-1")}, nil)
	repo.On("List", mock.Anything, models.ExerciseWriting, mock.Anything).Return([]*models.Exercise{}, nil)
	snapshots.On("Load", mock.Anything, mock.Anything).Return(nil, nil)

	service := NewTestService(assembly.NewEngine(repo), repo, snapshots,
		NewTestEventService(events.NewMockEventPublisher(logger), logger), logger,
		TestServiceConfig{Layout: testLayout()})

	session := studentSession()
	resp, err := service.Generate(context.Background(), session)
	require.NoError(t, err)
	assert.False(t, resp.AllPartsReady)
	require.Len(t, resp.EmptyParts, 1)
	assert.Equal(t, models.ExerciseWriting, resp.EmptyParts[0].Type)

	_, err = service.Start(context.Background(), session)
	assert.ErrorIs(t, err, ErrTestNotReady)
	assert.True(t, IsConflict(err))

	var rule *BusinessRuleError
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "all_parts_selected", rule.Rule)
	assert.Len(t, rule.Context["missing_parts"], 1)
	snapshots.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestTestService_Countdown(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	session := studentSession()

	_, err := f.service.Generate(ctx, session)
	require.NoError(t, err)
	_, err = f.service.Start(ctx, session)
	require.NoError(t, err)
	_, err = f.service.CurrentExercise(ctx, session)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.service.SubmitAnswers(ctx, session, &AnswersRequest{
		Answers: models.Submission{"blank-0": models.OptionAnswer(0)},
	})
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	attempt, err := f.service.CurrentExercise(ctx, session)
	require.NoError(t, err)
	assert.True(t, attempt.Submitted)
	assert.True(t, attempt.TimedOut)
	assert.Equal(t, 0, *attempt.RemainingSeconds)
	assert.Equal(t, models.OptionAnswer(0), attempt.Answers["blank-0"])

	_, err = f.service.SubmitAnswers(ctx, session, &AnswersRequest{Submit: true})
	assert.ErrorIs(t, err, runtime.ErrAlreadySubmitted)

	assert.Equal(t, 1, countEvents(f.publisher, events.EventExerciseSubmitted))
}

func TestTestService_AnswerAfterDeadline(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	session := studentSession()

	_, err := f.service.Generate(ctx, session)
	require.NoError(t, err)
	_, err = f.service.Start(ctx, session)
	require.NoError(t, err)
	_, err = f.service.CurrentExercise(ctx, session)
	require.NoError(t, err)

	f.clock.Advance(11 * time.Minute)
	_, err = f.service.SubmitAnswers(ctx, session, &AnswersRequest{
		Answers: models.Submission{"blank-0": models.OptionAnswer(1)},
	})
	assert.ErrorIs(t, err, runtime.ErrTimeExpired)
	assert.Equal(t, 1, countEvents(f.publisher, events.EventExerciseSubmitted))
}

func TestTestService_NavigationRules(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	session := studentSession()

	_, err := f.service.Advance(ctx, session)
	assert.ErrorIs(t, err, ErrTestNotInProgress)
	_, err = f.service.CurrentExercise(ctx, session)
	assert.ErrorIs(t, err, ErrTestNotInProgress)
	_, err = f.service.Results(ctx, session)
	assert.ErrorIs(t, err, ErrTestNotCompleted)

	_, err = f.service.Generate(ctx, session)
	require.NoError(t, err)
	_, err = f.service.Start(ctx, session)
	require.NoError(t, err)

	resp, err := f.service.Retreat(ctx, session)
	require.NoError(t, err)
	assert.False(t, *resp.Moved)

	_, err = f.service.Finish(ctx, session)
	assert.ErrorIs(t, err, ErrNotAtLastPart)

	_, err = f.service.JumpTo(ctx, session, models.Cursor{Section: 5, Part: 0})
	assert.ErrorIs(t, err, ErrCursorOutOfBounds)
	assert.True(t, IsValidation(err))

	resp, err = f.service.JumpTo(ctx, session, models.Cursor{Section: 1, Part: 0})
	require.NoError(t, err)
	assert.Equal(t, models.ExerciseWriting, resp.Current.Type)

	results, err := f.service.Finish(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 0, results.Correct)
	assert.Equal(t, 1, results.Total, "unvisited exercises are scored as unanswered")

	_, err = f.service.SubmitAnswers(ctx, session, &AnswersRequest{Submit: true})
	assert.ErrorIs(t, err, ErrTestCompleted)
	_, err = f.service.Advance(ctx, session)
	assert.ErrorIs(t, err, ErrTestNotInProgress)
}

func TestTestService_Reset(t *testing.T) {
	f := newTestServiceFixture(t)
	ctx := context.Background()
	session := studentSession()

	_, err := f.service.Generate(ctx, session)
	require.NoError(t, err)
	_, err = f.service.Start(ctx, session)
	require.NoError(t, err)

	resp, err := f.service.Reset(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, models.TestNotStarted, resp.State)
	assert.Equal(t, models.Cursor{}, resp.Cursor)
	assert.Nil(t, resp.Sections[0].Parts[0].SelectedExerciseID)
	f.snapshots.AssertCalled(t, "Clear", mock.Anything, session.ID)

	_, err = f.service.Generate(ctx, session)
	assert.NoError(t, err)
	assert.Contains(t, f.publisher.EventTypes(), events.EventTestReset)
}

func TestTestService_ResumeFromSnapshot(t *testing.T) {
	logger := discardLogger()
	repo := &MockExerciseRepository{}
	snapshots := &MockSnapshotStore{}

	id := "grammar-part1-1"
	stored := models.NewTestInstance(testLayout()[:1])
	stored.Sections[0].Parts[0].ExercisePool = []models.ExerciseSummary{grammarExercise(id).Summary()}
	stored.Sections[0].Parts[0].SelectedExerciseID = &id
	stored.IsTestReady = true
	snapshots.On("Load", mock.Anything, "session-1").Return(stored, nil).Once()

	service := NewTestService(assembly.NewEngine(repo), repo, snapshots,
		NewTestEventService(events.NewMockEventPublisher(logger), logger), logger,
		TestServiceConfig{Layout: testLayout()})

	resp, err := service.Current(context.Background(), studentSession())
	require.NoError(t, err)
	assert.Equal(t, models.TestInProgress, resp.State)
	assert.True(t, resp.AllPartsReady)

	// Second read is served from memory.
	_, err = service.Current(context.Background(), studentSession())
	require.NoError(t, err)
	snapshots.AssertNumberOfCalls(t, "Load", 1)
}

func TestTestService_DemoPools(t *testing.T) {
	f := newTestServiceFixture(t)
	session := studentSession()
	session.IsDemo = true

	resp, err := f.service.Generate(context.Background(), session)
	require.NoError(t, err)

	pool := resp.Sections[1].Parts[0].ExercisePool
	require.Len(t, pool, 1)
	assert.Equal(t, "writing-part1-1", pool[0].ID)
}

func TestTestService_MissingSession(t *testing.T) {
	f := newTestServiceFixture(t)

	_, err := f.service.Current(context.Background(), &models.Session{})
	assert.ErrorIs(t, err, ErrMissingSession)
	assert.True(t, IsUnauthorized(err))
}

func countEvents(p *events.MockEventPublisher, eventType events.EventType) int {
	n := 0
	for _, t := range p.EventTypes() {
		if t == eventType {
			n++
		}
	}
	return n
}
