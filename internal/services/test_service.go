package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/assembly"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/navigation"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"github.com/SAP-F-2025/exam-prep-service/internal/runtime"
	"github.com/SAP-F-2025/exam-prep-service/internal/scoring"
)

// sessionState is the live test of one session. Its mutex serializes every
// operation on the session; the runtimes are keyed by exercise ID.
type sessionState struct {
	mu       sync.Mutex
	machine  *navigation.Machine
	runtimes map[string]*runtime.Runtime
	results  *TestResults
}

func (st *sessionState) clearAttempts() {
	st.runtimes = make(map[string]*runtime.Runtime)
	st.results = nil
}

type TestServiceConfig struct {
	Layout        []models.Section
	DemoAllowList assembly.AllowList
}

type TestServiceOption func(*testService)

// WithClock replaces time.Now, used by tests to drive countdowns.
func WithClock(now func() time.Time) TestServiceOption {
	return func(s *testService) {
		s.now = now
	}
}

type testService struct {
	engine    *assembly.Engine
	exercises repositories.ExerciseRepository
	snapshots repositories.SnapshotStore
	events    TestEventService
	layout    []models.Section
	demo      assembly.AllowList
	log       *ServiceLogger
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewTestService(
	engine *assembly.Engine,
	exercises repositories.ExerciseRepository,
	snapshots repositories.SnapshotStore,
	events TestEventService,
	logger *slog.Logger,
	cfg TestServiceConfig,
	opts ...TestServiceOption,
) TestService {
	log := NewServiceLogger(logger, LogConfig{Service: "exam-prep-service", Component: "test"})
	s := &testService{
		engine:    engine,
		exercises: exercises,
		snapshots: snapshots,
		events:    events,
		layout:    models.CloneSections(cfg.Layout),
		demo:      cfg.DemoAllowList,
		log:       log,
		logger:    log.Logger(),
		now:       time.Now,
		sessions:  make(map[string]*sessionState),
	}
	if len(s.layout) == 0 {
		s.layout = assembly.DefaultLayout()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// acquire returns the locked state of the session, resuming it from the
// snapshot store when it is not in memory. Callers must unlock st.mu.
func (s *testService) acquire(ctx context.Context, session *models.Session) (*sessionState, error) {
	if session == nil || session.ID == "" {
		return nil, ErrMissingSession
	}

	s.mu.Lock()
	st, ok := s.sessions[session.ID]
	if !ok {
		st = &sessionState{}
		st.clearAttempts()
		s.sessions[session.ID] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	if st.machine == nil {
		test, err := s.snapshots.Load(ctx, session.ID)
		if err != nil {
			s.logger.Warn("Failed to load test snapshot, starting fresh", "session_id", session.ID, "error", err)
		}
		if test == nil {
			test = models.NewTestInstance(s.layout)
		} else {
			s.logger.Info("Resumed test from snapshot", "session_id", session.ID, "state", test.State())
		}
		st.machine = navigation.New(test)
	}
	return st, nil
}

// ===== ASSEMBLY =====

func (s *testService) Generate(ctx context.Context, session *models.Session) (resp *TestResponse, err error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	op := s.log.WithOperation(ctx, "generate_test", session.ID, session.UserID)
	defer func() { op.LogResult("", "test", err) }()

	if st.machine.State() != models.TestNotStarted {
		return nil, ErrTestAlreadyStarted
	}

	sections, err := s.engine.LoadPools(ctx, s.layout)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercise pools: %w", err)
	}
	if session.IsDemo {
		sections = assembly.FilterForDemo(sections, s.demo)
	}

	selected, ready := s.engine.SelectRandom(sections)
	test := models.NewTestInstance(selected)
	st.machine = navigation.New(test)
	st.clearAttempts()

	emptyParts := assembly.EmptyParts(test.Sections)
	if !ready {
		s.logger.Warn("Generated test has parts without exercises",
			"session_id", session.ID,
			"empty_parts", len(emptyParts))
	}

	if err := s.events.NotifyTestGenerated(ctx, session, test, emptyParts); err != nil {
		s.logger.Warn("Failed to publish test generated event", "session_id", session.ID, "error", err)
	}
	return newTestResponse(test), nil
}

// ===== NAVIGATION =====

func (s *testService) Start(ctx context.Context, session *models.Session) (resp *TestResponse, err error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	op := s.log.WithOperation(ctx, "start_test", session.ID, session.UserID)
	defer func() { op.LogResult("", "test", err) }()

	if err := st.machine.Start(); err != nil {
		var incomplete *navigation.IncompleteSelectionError
		if errors.As(err, &incomplete) {
			rule := NewBusinessRuleError("all_parts_selected",
				"every part needs a selected exercise before the test can start",
				map[string]interface{}{"missing_parts": incomplete.Parts})
			rule.Err = err
			return nil, rule
		}
		return nil, err
	}
	st.clearAttempts()

	test := st.machine.Test()
	s.saveSnapshot(ctx, session.ID, test)

	if err := s.events.NotifyTestStarted(ctx, session, test, s.now()); err != nil {
		s.logger.Warn("Failed to publish test started event", "session_id", session.ID, "error", err)
	}
	return newTestResponse(test), nil
}

func (s *testService) Advance(ctx context.Context, session *models.Session) (*TestResponse, error) {
	return s.move(ctx, session, "advance", (*navigation.Machine).Advance)
}

func (s *testService) Retreat(ctx context.Context, session *models.Session) (*TestResponse, error) {
	return s.move(ctx, session, "retreat", (*navigation.Machine).Retreat)
}

func (s *testService) move(ctx context.Context, session *models.Session, name string, step func(*navigation.Machine) (bool, error)) (*TestResponse, error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	moved, err := step(st.machine)
	if err != nil {
		return nil, err
	}

	cursor := st.machine.Cursor()
	s.logger.Debug("Test cursor moved",
		"session_id", session.ID,
		"direction", name,
		"moved", moved,
		"section", cursor.Section,
		"part", cursor.Part)

	resp := newTestResponse(st.machine.Test())
	resp.Moved = &moved
	return resp, nil
}

func (s *testService) JumpTo(ctx context.Context, session *models.Session, cursor models.Cursor) (*TestResponse, error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	if err := st.machine.JumpTo(cursor); err != nil {
		return nil, err
	}
	return newTestResponse(st.machine.Test()), nil
}

// Finish completes the test from its last part. Every exercise still open is
// submitted with the answers recorded so far.
func (s *testService) Finish(ctx context.Context, session *models.Session) (results *TestResults, err error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	op := s.log.WithOperation(ctx, "finish_test", session.ID, session.UserID)
	defer func() { op.LogResult("", "test", err) }()

	if err := st.machine.Finish(); err != nil {
		return nil, err
	}

	test := st.machine.Test()
	results = s.collectResults(ctx, st, session.ID, s.now())
	st.results = results
	s.saveSnapshot(ctx, session.ID, test)

	if err := s.events.NotifyTestCompleted(ctx, session, results); err != nil {
		s.logger.Warn("Failed to publish test completed event", "session_id", session.ID, "error", err)
	}
	return results, nil
}

// Reset returns the session to NotStarted from any state and drops the snapshot.
func (s *testService) Reset(ctx context.Context, session *models.Session) (resp *TestResponse, err error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	op := s.log.WithOperation(ctx, "reset_test", session.ID, session.UserID)
	defer func() { op.LogResult("", "test", err) }()

	prior := st.machine.State()
	st.machine.Reset()
	st.clearAttempts()

	if err := s.snapshots.Clear(ctx, session.ID); err != nil {
		s.logger.Warn("Failed to clear test snapshot", "session_id", session.ID, "error", err)
	}
	if err := s.events.NotifyTestReset(ctx, session, prior, s.now()); err != nil {
		s.logger.Warn("Failed to publish test reset event", "session_id", session.ID, "error", err)
	}
	return newTestResponse(st.machine.Test()), nil
}

func (s *testService) Current(ctx context.Context, session *models.Session) (*TestResponse, error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	return newTestResponse(st.machine.Test()), nil
}

// ===== CURRENT EXERCISE =====

// CurrentExercise opens the exercise under the cursor. The countdown starts on
// first open; an exercise whose deadline passed is submitted here.
func (s *testService) CurrentExercise(ctx context.Context, session *models.Session) (*AttemptResponse, error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	state := st.machine.State()
	if state == models.TestNotStarted {
		return nil, ErrTestNotInProgress
	}

	now := s.now()
	rt, err := s.currentRuntime(ctx, st, now)
	if err != nil {
		return nil, err
	}

	if state == models.TestCompleted {
		rt.Close(now)
	} else {
		s.expire(ctx, session, rt, now)
	}
	return s.attemptResponse(st, rt, now), nil
}

// SubmitAnswers records answers on the current exercise and, when requested,
// submits it.
func (s *testService) SubmitAnswers(ctx context.Context, session *models.Session, req *AnswersRequest) (*AttemptResponse, error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	switch st.machine.State() {
	case models.TestNotStarted:
		return nil, ErrTestNotInProgress
	case models.TestCompleted:
		return nil, ErrTestCompleted
	}

	test := st.machine.Test()
	if test.CurrentSectionType() == models.ExerciseWriting && test.WritingChoice == nil {
		return nil, ErrWritingChoiceRequired
	}

	now := s.now()
	rt, err := s.currentRuntime(ctx, st, now)
	if err != nil {
		return nil, err
	}

	wasSubmitted := rt.Submitted()
	if req.Submit {
		outcome, err := rt.Submit(req.Answers, now)
		if err != nil {
			return nil, err
		}
		if !wasSubmitted {
			s.notifySubmitted(ctx, session, outcome)
		}
		return s.attemptResponse(st, rt, now), nil
	}

	if err := rt.Answer(req.Answers, now); err != nil {
		if errors.Is(err, runtime.ErrTimeExpired) && !wasSubmitted {
			if outcome, ok := rt.Outcome(); ok {
				s.notifySubmitted(ctx, session, outcome)
			}
		}
		return nil, err
	}
	return s.attemptResponse(st, rt, now), nil
}

func (s *testService) SetWritingChoice(ctx context.Context, session *models.Session, choice int) (*TestResponse, error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	if err := st.machine.SetWritingChoice(choice); err != nil {
		return nil, err
	}

	test := st.machine.Test()
	s.saveSnapshot(ctx, session.ID, test)
	return newTestResponse(test), nil
}

// ===== RESULTS =====

func (s *testService) Results(ctx context.Context, session *models.Session) (*TestResults, error) {
	st, err := s.acquire(ctx, session)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	if st.machine.State() != models.TestCompleted {
		return nil, ErrTestNotCompleted
	}
	// A session resumed from its snapshot has no runtimes left; its exercises
	// are scored as unanswered.
	if st.results == nil {
		st.results = s.collectResults(ctx, st, session.ID, s.now())
	}
	return st.results, nil
}

func (s *testService) collectResults(ctx context.Context, st *sessionState, sessionID string, now time.Time) *TestResults {
	test := st.machine.Test()
	results := &TestResults{
		SessionID:     sessionID,
		CompletedAt:   now,
		WritingChoice: test.WritingChoice,
	}

	for i, section := range test.Sections {
		for j, part := range section.Parts {
			item := ExerciseOutcome{
				Cursor:    models.Cursor{Section: i, Part: j},
				Section:   section.Type,
				Part:      part.Part,
				PartTitle: part.Title,
			}
			if part.SelectedExerciseID == nil {
				item.Unavailable = true
				results.Exercises = append(results.Exercises, item)
				continue
			}
			item.ExerciseID = *part.SelectedExerciseID

			rt, err := s.runtimeFor(ctx, st, item.ExerciseID, now)
			if err != nil {
				s.logger.Warn("Exercise unavailable for results",
					"session_id", sessionID,
					"exercise_id", item.ExerciseID,
					"error", err)
				item.Unavailable = true
				results.Exercises = append(results.Exercises, item)
				continue
			}

			outcome := rt.Close(now)
			item.Title = rt.Exercise().Title
			item.TimedOut = outcome.TimedOut
			item.SubmittedAt = outcome.SubmittedAt
			item.Result = outcome.Result
			if outcome.Result.AutoScored {
				results.Correct += outcome.Result.Correct
				results.Total += outcome.Result.Total
			}
			results.Exercises = append(results.Exercises, item)
		}
	}

	results.Percentage = scoring.Percentage(results.Correct, results.Total)
	return results
}

// ===== HELPERS =====

func (s *testService) currentRuntime(ctx context.Context, st *sessionState, now time.Time) (*runtime.Runtime, error) {
	part, ok := st.machine.Test().CurrentPartRef()
	if !ok || part.SelectedExerciseID == nil {
		return nil, ErrExerciseNotFound
	}
	return s.runtimeFor(ctx, st, *part.SelectedExerciseID, now)
}

func (s *testService) runtimeFor(ctx context.Context, st *sessionState, id string, now time.Time) (*runtime.Runtime, error) {
	if rt, ok := st.runtimes[id]; ok {
		return rt, nil
	}

	ex, err := s.exercises.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	if ex == nil {
		return nil, ErrExerciseNotFound
	}

	rt, err := runtime.New(ex, now)
	if err != nil {
		return nil, err
	}
	st.runtimes[id] = rt
	return rt, nil
}

func (s *testService) expire(ctx context.Context, session *models.Session, rt *runtime.Runtime, now time.Time) {
	if rt.Submitted() {
		return
	}
	if outcome, expired := rt.SubmitIfExpired(now); expired {
		s.logger.Info("Exercise time expired, answers submitted",
			"session_id", session.ID,
			"exercise_id", rt.Exercise().ID)
		s.notifySubmitted(ctx, session, outcome)
	}
}

func (s *testService) notifySubmitted(ctx context.Context, session *models.Session, outcome runtime.Outcome) {
	if err := s.events.NotifyExerciseSubmitted(ctx, session, outcome.Result, outcome.TimedOut, false); err != nil {
		s.logger.Warn("Failed to publish exercise submitted event",
			"session_id", session.ID,
			"exercise_id", outcome.Result.ExerciseID,
			"error", err)
	}
}

// attemptResponse renders the runtime. Answer keys and scores stay hidden until
// the test is completed.
func (s *testService) attemptResponse(st *sessionState, rt *runtime.Runtime, now time.Time) *AttemptResponse {
	test := st.machine.Test()
	revealed := test.State() == models.TestCompleted

	resp := &AttemptResponse{
		Cursor:        test.Cursor(),
		Section:       test.CurrentSectionType(),
		Exercise:      newExerciseResponse(rt.Exercise(), rt.Payload(), revealed),
		Answers:       rt.Answers(),
		StartedAt:     rt.StartedAt(),
		Submitted:     rt.Submitted(),
		WritingChoice: test.WritingChoice,
	}
	if part, ok := test.CurrentPartRef(); ok {
		resp.PartTitle = part.Title
	}
	if deadline := rt.Deadline(); !deadline.IsZero() {
		remaining := int(rt.Remaining(now).Seconds())
		resp.Deadline = &deadline
		resp.RemainingSeconds = &remaining
	}
	if outcome, ok := rt.Outcome(); ok {
		result := outcome.Result
		if !revealed {
			result = result.Redacted()
		}
		resp.TimedOut = outcome.TimedOut
		resp.Result = &result
	}
	return resp
}

func (s *testService) saveSnapshot(ctx context.Context, sessionID string, test *models.TestInstance) {
	if err := s.snapshots.Save(ctx, sessionID, test); err != nil {
		s.logger.Warn("Failed to save test snapshot", "session_id", sessionID, "error", err)
	}
}
