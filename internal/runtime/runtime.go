package runtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/scoring"
)

// MinWritingResponseChars is the shortest writing response accepted on an
// explicit submit.
const MinWritingResponseChars = 10

var (
	ErrAlreadySubmitted = errors.New("exercise already submitted")
	ErrTimeExpired      = errors.New("exercise time limit expired")
	ErrUnknownSlot      = errors.New("unknown answer slot")
	ErrResponseTooShort = fmt.Errorf("writing response must be at least %d characters", MinWritingResponseChars)
)

// Outcome is the submitted state of one exercise.
type Outcome struct {
	Result      scoring.Result `json:"result"`
	TimedOut    bool           `json:"timed_out"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Runtime owns the answers of one exercise instance and its countdown. It is not
// safe for concurrent use; the owning session serializes access.
type Runtime struct {
	exercise *models.Exercise
	payload  models.Payload
	slots    map[string]struct{}

	answers   models.Submission
	startedAt time.Time
	deadline  time.Time
	outcome   *Outcome
}

// New decodes the exercise payload and starts the countdown at startedAt. An
// exercise without a time limit never expires.
func New(ex *models.Exercise, startedAt time.Time) (*Runtime, error) {
	payload, err := ex.DecodePayload()
	if err != nil {
		return nil, fmt.Errorf("failed to load exercise %s: %w", ex.ID, err)
	}

	r := &Runtime{
		exercise:  ex,
		payload:   payload,
		slots:     make(map[string]struct{}),
		answers:   models.Submission{},
		startedAt: startedAt,
	}
	for _, s := range payload.Slots() {
		r.slots[s] = struct{}{}
	}
	if limit := ex.TimeLimit(); limit > 0 {
		r.deadline = startedAt.Add(limit)
	}
	return r, nil
}

func (r *Runtime) Exercise() *models.Exercise { return r.exercise }

func (r *Runtime) Payload() models.Payload { return r.payload }

func (r *Runtime) StartedAt() time.Time { return r.startedAt }

func (r *Runtime) Deadline() time.Time { return r.deadline }

func (r *Runtime) Submitted() bool { return r.outcome != nil }

// Answers returns a copy of the recorded answers.
func (r *Runtime) Answers() models.Submission {
	return r.answers.Clone()
}

func (r *Runtime) Expired(now time.Time) bool {
	return !r.deadline.IsZero() && !now.Before(r.deadline)
}

// Remaining returns the time left, zero once expired, and -1 when there is no
// limit.
func (r *Runtime) Remaining(now time.Time) time.Duration {
	if r.deadline.IsZero() {
		return -1
	}
	if left := r.deadline.Sub(now); left > 0 {
		return left
	}
	return 0
}

// Answer records answers without submitting. Empty answers clear their slot.
func (r *Runtime) Answer(sub models.Submission, now time.Time) error {
	if r.outcome != nil {
		return ErrAlreadySubmitted
	}
	if _, expired := r.SubmitIfExpired(now); expired {
		return ErrTimeExpired
	}
	if err := r.checkSlots(sub); err != nil {
		return err
	}

	r.answers = r.answers.Merge(sub)
	return nil
}

// Submit merges sub into the recorded answers and scores them. Once the deadline
// has passed sub is ignored and the timed out outcome is returned.
func (r *Runtime) Submit(sub models.Submission, now time.Time) (Outcome, error) {
	if r.outcome != nil {
		return *r.outcome, ErrAlreadySubmitted
	}
	if outcome, expired := r.SubmitIfExpired(now); expired {
		return outcome, nil
	}
	if err := r.checkSlots(sub); err != nil {
		return Outcome{}, err
	}

	answers := r.answers.Merge(sub)
	if r.payload.Kind() == models.KindWriting {
		text, _ := answers.Text(models.WritingResponseSlot)
		if utf8.RuneCountInString(strings.TrimSpace(text)) < MinWritingResponseChars {
			return Outcome{}, ErrResponseTooShort
		}
	}

	r.answers = answers
	if err := r.score(now, false); err != nil {
		return Outcome{}, err
	}
	return *r.outcome, nil
}

// SubmitIfExpired scores the current answers when the countdown has run out and
// nothing was submitted yet. The second result reports whether the exercise is
// closed because of the deadline.
func (r *Runtime) SubmitIfExpired(now time.Time) (Outcome, bool) {
	if r.outcome != nil {
		return *r.outcome, r.outcome.TimedOut
	}
	if !r.Expired(now) {
		return Outcome{}, false
	}
	if err := r.score(r.deadline, true); err != nil {
		return Outcome{}, false
	}
	return *r.outcome, true
}

// Outcome returns the submitted outcome, if any.
func (r *Runtime) Outcome() (Outcome, bool) {
	if r.outcome == nil {
		return Outcome{}, false
	}
	return *r.outcome, true
}

// Close submits whatever was answered so far, used when the test finishes with
// this exercise still open.
func (r *Runtime) Close(now time.Time) Outcome {
	if r.outcome != nil {
		return *r.outcome
	}
	if outcome, expired := r.SubmitIfExpired(now); expired {
		return outcome
	}
	_ = r.score(now, false)
	if r.outcome == nil {
		return Outcome{}
	}
	return *r.outcome
}

func (r *Runtime) score(at time.Time, timedOut bool) error {
	res, err := scoring.ScorePayload(r.payload, r.answers)
	if err != nil {
		return err
	}
	res.ExerciseID = r.exercise.ID
	r.outcome = &Outcome{Result: res, TimedOut: timedOut, SubmittedAt: at}
	return nil
}

func (r *Runtime) checkSlots(sub models.Submission) error {
	for slot := range sub {
		if _, ok := r.slots[slot]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
		}
	}
	return nil
}
