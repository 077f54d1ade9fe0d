package services

import (
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/assembly"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/navigation"
	"github.com/SAP-F-2025/exam-prep-service/internal/scoring"
)

// ===== EXERCISE DTOs =====

type ExerciseResponse struct {
	ID               string              `json:"id"`
	Type             models.ExerciseType `json:"type"`
	Part             models.ExercisePart `json:"part"`
	Title            string              `json:"title"`
	Description      string              `json:"description,omitempty"`
	TimeLimitMinutes int                 `json:"time_limit_minutes"`
	Kind             models.PayloadKind  `json:"kind"`
	Content          models.Payload      `json:"content"`
	AnswerKeys       bool                `json:"answer_keys"`
}

// newExerciseResponse builds the exercise view and strips the answer key unless
// withKeys is set.
func newExerciseResponse(ex *models.Exercise, payload models.Payload, withKeys bool) *ExerciseResponse {
	if !withKeys {
		payload = payload.Redacted()
	}
	return &ExerciseResponse{
		ID:               ex.ID,
		Type:             ex.Type,
		Part:             ex.Part,
		Title:            ex.Title,
		Description:      ex.Description,
		TimeLimitMinutes: ex.TimeLimitMinutes,
		Kind:             payload.Kind(),
		Content:          payload,
		AnswerKeys:       withKeys,
	}
}

type ExerciseListResponse struct {
	Exercises []models.ExerciseSummary `json:"exercises"`
	Total     int64                    `json:"total"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

type ScoreRequest struct {
	Answers models.Submission `json:"answers"`
}

// ===== TEST DTOs =====

type JumpRequest struct {
	Section *int `json:"section" validate:"required,min=0"`
	Part    *int `json:"part" validate:"required,min=0"`
}

type WritingChoiceRequest struct {
	Choice int `json:"choice" validate:"writing_choice"`
}

// AnswersRequest records answers for the current exercise. With Submit set the
// exercise is scored and closed.
type AnswersRequest struct {
	Answers models.Submission `json:"answers"`
	Submit  bool              `json:"submit"`
}

type TestResponse struct {
	State         models.TestState `json:"state"`
	Cursor        models.Cursor    `json:"cursor"`
	Current       *models.PartRef  `json:"current,omitempty"`
	Sections      []models.Section `json:"sections"`
	WritingChoice *int             `json:"writing_choice,omitempty"`
	AllPartsReady bool             `json:"all_parts_ready"`
	EmptyParts    []models.PartRef `json:"empty_parts,omitempty"`
	MissingParts  []models.PartRef `json:"missing_parts,omitempty"`
	Moved         *bool            `json:"moved,omitempty"`
}

func newTestResponse(test *models.TestInstance) *TestResponse {
	missing := navigation.MissingSelections(test.Sections)
	resp := &TestResponse{
		State:         test.State(),
		Cursor:        test.Cursor(),
		Sections:      models.CloneSections(test.Sections),
		WritingChoice: test.WritingChoice,
		AllPartsReady: len(test.Sections) > 0 && len(missing) == 0,
		EmptyParts:    assembly.EmptyParts(test.Sections),
		MissingParts:  missing,
	}
	if resp.State == models.TestInProgress {
		if part, ok := test.CurrentPartRef(); ok {
			resp.Current = &models.PartRef{
				Section: test.CurrentSection,
				Part:    test.CurrentPart,
				Type:    test.CurrentSectionType(),
				PartID:  part.Part,
			}
		}
	}
	return resp
}

// AttemptResponse is the current exercise as the learner sees it.
type AttemptResponse struct {
	Cursor           models.Cursor       `json:"cursor"`
	Section          models.ExerciseType `json:"section"`
	PartTitle        string              `json:"part_title"`
	Exercise         *ExerciseResponse   `json:"exercise"`
	Answers          models.Submission   `json:"answers"`
	StartedAt        time.Time           `json:"started_at"`
	Deadline         *time.Time          `json:"deadline,omitempty"`
	RemainingSeconds *int                `json:"remaining_seconds,omitempty"`
	Submitted        bool                `json:"submitted"`
	TimedOut         bool                `json:"timed_out"`
	Result           *scoring.Result     `json:"result,omitempty"`
	WritingChoice    *int                `json:"writing_choice,omitempty"`
}

// ExerciseOutcome is one row of the final results.
type ExerciseOutcome struct {
	Cursor      models.Cursor       `json:"cursor"`
	Section     models.ExerciseType `json:"section"`
	Part        models.ExercisePart `json:"part"`
	PartTitle   string              `json:"part_title"`
	ExerciseID  string              `json:"exercise_id"`
	Title       string              `json:"title"`
	Unavailable bool                `json:"unavailable,omitempty"`
	TimedOut    bool                `json:"timed_out"`
	SubmittedAt time.Time           `json:"submitted_at"`
	Result      scoring.Result      `json:"result"`
}

// TestResults aggregates every exercise of a completed test. Writing is
// reviewed but never counted in the totals.
type TestResults struct {
	SessionID     string            `json:"session_id"`
	CompletedAt   time.Time         `json:"completed_at"`
	WritingChoice *int              `json:"writing_choice,omitempty"`
	Exercises     []ExerciseOutcome `json:"exercises"`
	Correct       int               `json:"correct"`
	Total         int               `json:"total"`
	Percentage    int               `json:"percentage"`
}
