package runtime

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func listeningExercise() *models.Exercise {
	return &models.Exercise{
		ID:               "listening-part1-1",
		Type:             models.ExerciseListening,
		Part:             models.Part1,
		TimeLimitMinutes: 10,
		Content: datatypes.JSON(`{
			"audio_url": "https://example.org/a.mp3",
			"questions": [
				{"prompt": "Wo?", "options": ["Bahnhof", "Flughafen"], "correct_option": 1},
				{"prompt": "Wann?", "options": ["heute", "morgen"], "correct_option": 0}
			]
		}`),
	}
}

func writingExercise() *models.Exercise {
	return &models.Exercise{
		ID:               "writing-part1-1",
		Type:             models.ExerciseWriting,
		Part:             models.Part1,
		TimeLimitMinutes: 30,
		Content:          datatypes.JSON(`{"prompt": "Schreiben Sie eine E-Mail.", "evaluation_criteria": ["Inhalt"]}`),
	}
}

func TestNew_RejectsBadPayload(t *testing.T) {
	ex := listeningExercise()
	ex.Content = datatypes.JSON(`{"prompt": "x"}`)

	_, err := New(ex, t0)
	assert.ErrorIs(t, err, models.ErrPayloadMismatch)
}

func TestAnswerThenSubmit(t *testing.T) {
	rt, err := New(listeningExercise(), t0)
	require.NoError(t, err)

	require.NoError(t, rt.Answer(models.Submission{"question-0": models.OptionAnswer(1)}, t0.Add(time.Minute)))
	out, err := rt.Submit(models.Submission{"question-1": models.OptionAnswer(1)}, t0.Add(2*time.Minute))
	require.NoError(t, err)

	assert.False(t, out.TimedOut)
	assert.Equal(t, 1, out.Result.Correct)
	assert.Equal(t, 2, out.Result.Total)
	assert.Equal(t, 50, out.Result.Percentage)
	assert.Equal(t, "listening-part1-1", out.Result.ExerciseID)

	_, err = rt.Submit(nil, t0.Add(3*time.Minute))
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.ErrorIs(t, rt.Answer(nil, t0.Add(3*time.Minute)), ErrAlreadySubmitted)
}

func TestAnswer_UnknownSlot(t *testing.T) {
	rt, err := New(listeningExercise(), t0)
	require.NoError(t, err)

	err = rt.Answer(models.Submission{"question-7": models.OptionAnswer(0)}, t0)
	assert.ErrorIs(t, err, ErrUnknownSlot)
	assert.Empty(t, rt.Answers())
}

func TestCountdown(t *testing.T) {
	rt, err := New(listeningExercise(), t0)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, rt.Remaining(t0))
	assert.False(t, rt.Expired(t0.Add(9*time.Minute)))
	assert.True(t, rt.Expired(t0.Add(10*time.Minute)))
	assert.Equal(t, time.Duration(0), rt.Remaining(t0.Add(time.Hour)))

	_, expired := rt.SubmitIfExpired(t0.Add(5 * time.Minute))
	assert.False(t, expired)
	assert.False(t, rt.Submitted())
}

func TestExpiry_SubmitsCurrentAnswers(t *testing.T) {
	rt, err := New(listeningExercise(), t0)
	require.NoError(t, err)
	require.NoError(t, rt.Answer(models.Submission{"question-0": models.OptionAnswer(1)}, t0.Add(time.Minute)))

	// late answers are ignored, the recorded ones are scored
	out, err := rt.Submit(models.Submission{"question-1": models.OptionAnswer(0)}, t0.Add(11*time.Minute))
	require.NoError(t, err)

	assert.True(t, out.TimedOut)
	assert.Equal(t, t0.Add(10*time.Minute), out.SubmittedAt)
	assert.Equal(t, 1, out.Result.Correct)

	stored, ok := rt.Outcome()
	require.True(t, ok)
	assert.Equal(t, out, stored)
}

func TestAnswer_AfterDeadline(t *testing.T) {
	rt, err := New(listeningExercise(), t0)
	require.NoError(t, err)

	err = rt.Answer(models.Submission{"question-0": models.OptionAnswer(1)}, t0.Add(10*time.Minute))
	assert.ErrorIs(t, err, ErrTimeExpired)
	assert.True(t, rt.Submitted())
}

func TestWritingSubmit(t *testing.T) {
	rt, err := New(writingExercise(), t0)
	require.NoError(t, err)

	_, err = rt.Submit(models.Submission{models.WritingResponseSlot: models.TextAnswer("  kurz   ")}, t0)
	assert.ErrorIs(t, err, ErrResponseTooShort)
	assert.False(t, rt.Submitted())

	text := strings.Repeat("Hallo ", 20)
	out, err := rt.Submit(models.Submission{models.WritingResponseSlot: models.TextAnswer(text)}, t0)
	require.NoError(t, err)
	assert.False(t, out.Result.AutoScored)
	require.NotNil(t, out.Result.Writing)
	assert.Equal(t, 20, out.Result.Writing.WordCount)
}

func TestWritingExpiry_IgnoresMinimumLength(t *testing.T) {
	rt, err := New(writingExercise(), t0)
	require.NoError(t, err)
	require.NoError(t, rt.Answer(models.Submission{models.WritingResponseSlot: models.TextAnswer("Hallo")}, t0))

	out, expired := rt.SubmitIfExpired(t0.Add(31 * time.Minute))
	assert.True(t, expired)
	assert.True(t, out.TimedOut)
	assert.Equal(t, 1, out.Result.Writing.WordCount)
}

func TestClose(t *testing.T) {
	rt, err := New(listeningExercise(), t0)
	require.NoError(t, err)

	out := rt.Close(t0.Add(time.Minute))
	assert.False(t, out.TimedOut)
	assert.Equal(t, 0, out.Result.Correct)
	assert.True(t, rt.Submitted())
}
