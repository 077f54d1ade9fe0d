package scoring

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

var ErrUnsupportedPayload = errors.New("unsupported payload")

// ItemResult is the outcome for one answer slot.
type ItemResult struct {
	SlotID   string        `json:"slot_id"`
	Given    models.Answer `json:"given"`
	Expected models.Answer `json:"expected"`
	Correct  bool          `json:"correct"`
}

// Result is the score of one exercise. Writing exercises are never auto scored;
// they carry a Writing review instead of a percentage.
type Result struct {
	ExerciseID string             `json:"exercise_id,omitempty"`
	Kind       models.PayloadKind `json:"kind"`
	Correct    int                `json:"correct"`
	Total      int                `json:"total"`
	Percentage int                `json:"percentage"`
	AutoScored bool               `json:"auto_scored"`
	Revealed   bool               `json:"revealed"`
	Items      []ItemResult       `json:"items"`
	Writing    *WritingReview     `json:"writing,omitempty"`
}

// Redacted hides every field that would leak the answer key. Only the given
// answers and the slot count remain.
func (r Result) Redacted() Result {
	out := Result{
		ExerciseID: r.ExerciseID,
		Kind:       r.Kind,
		Total:      r.Total,
		AutoScored: r.AutoScored,
		Items:      make([]ItemResult, len(r.Items)),
		Writing:    r.Writing,
	}
	for i, it := range r.Items {
		out.Items[i] = ItemResult{SlotID: it.SlotID, Given: it.Given}
	}
	return out
}

// Percentage returns round-half-up(100*correct/total) in integer arithmetic, or 0
// when total is not positive.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// Score decodes the exercise payload and scores the submission against it.
// Missing or malformed answers count as incorrect; only a payload that does not
// match the exercise type and part is an error.
func Score(ex *models.Exercise, sub models.Submission) (Result, error) {
	if ex == nil {
		return Result{}, fmt.Errorf("%w: nil exercise", ErrUnsupportedPayload)
	}
	payload, err := ex.DecodePayload()
	if err != nil {
		return Result{}, fmt.Errorf("failed to score exercise %s: %w", ex.ID, err)
	}
	res, err := ScorePayload(payload, sub)
	if err != nil {
		return Result{}, fmt.Errorf("failed to score exercise %s: %w", ex.ID, err)
	}
	res.ExerciseID = ex.ID
	return res, nil
}

func ScorePayload(payload models.Payload, sub models.Submission) (Result, error) {
	switch p := payload.(type) {
	case *models.TitleMatchingPayload:
		return ScoreTitleMatching(p, sub), nil
	case *models.MultipleChoicePayload:
		return ScoreMultipleChoice(p, sub), nil
	case *models.TitleTextMatchingPayload:
		return ScoreTitleTextMatching(p, sub), nil
	case *models.BlankSelectionPayload:
		return ScoreBlankSelection(p, sub), nil
	case *models.WordBankPayload:
		return ScoreWordBank(p, sub), nil
	case *models.WritingPayload:
		return ReviewWriting(p, sub), nil
	case nil:
		return Result{}, fmt.Errorf("%w: nil payload", ErrUnsupportedPayload)
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}
}

func newResult(kind models.PayloadKind, items []ItemResult) Result {
	correct := 0
	for _, it := range items {
		if it.Correct {
			correct++
		}
	}
	return Result{
		Kind:       kind,
		Correct:    correct,
		Total:      len(items),
		Percentage: Percentage(correct, len(items)),
		AutoScored: true,
		Revealed:   true,
		Items:      items,
	}
}

func optionItem(slot string, key *int, sub models.Submission) ItemResult {
	item := ItemResult{SlotID: slot, Given: sub[slot]}
	if key != nil {
		item.Expected = models.OptionAnswer(*key)
	}
	given, ok := sub.Option(slot)
	item.Correct = ok && key != nil && given == *key
	return item
}

func textItem(slot string, key string, sub models.Submission) ItemResult {
	item := ItemResult{SlotID: slot, Given: sub[slot]}
	if key != "" {
		item.Expected = models.TextAnswer(key)
	}
	given, ok := sub.Text(slot)
	item.Correct = ok && key != "" && given == key
	return item
}

// ===== MULTIPLE CHOICE =====

// ScoreMultipleChoice marks a question correct iff the chosen option index equals
// the key.
func ScoreMultipleChoice(p *models.MultipleChoicePayload, sub models.Submission) Result {
	items := make([]ItemResult, len(p.Questions))
	for i, q := range p.Questions {
		items[i] = optionItem(q.ID, q.CorrectOption, sub)
	}
	return newResult(p.Kind(), items)
}

// ===== MATCHING =====

// ScoreTitleMatching compares the title assigned to each text with its correct
// title, case-sensitive.
func ScoreTitleMatching(p *models.TitleMatchingPayload, sub models.Submission) Result {
	items := make([]ItemResult, len(p.Texts))
	for i, t := range p.Texts {
		items[i] = textItem(t.ID, t.CorrectTitle, sub)
	}
	return newResult(p.Kind(), items)
}

// ScoreTitleTextMatching compares the text matched to each title. models.NoMatch is
// a regular answer and is correct where the key says so.
func ScoreTitleTextMatching(p *models.TitleTextMatchingPayload, sub models.Submission) Result {
	items := make([]ItemResult, len(p.Titles))
	for i, t := range p.Titles {
		items[i] = textItem(t.ID, t.CorrectMatch, sub)
	}
	return newResult(p.Kind(), items)
}

// ===== FILL IN THE BLANKS =====

func ScoreBlankSelection(p *models.BlankSelectionPayload, sub models.Submission) Result {
	items := make([]ItemResult, len(p.Blanks))
	for i, b := range p.Blanks {
		items[i] = optionItem(b.ID, b.CorrectOption, sub)
	}
	return newResult(p.Kind(), items)
}

func ScoreWordBank(p *models.WordBankPayload, sub models.Submission) Result {
	items := make([]ItemResult, len(p.Blanks))
	for i, b := range p.Blanks {
		items[i] = textItem(b.ID, b.CorrectWord, sub)
	}
	return newResult(p.Kind(), items)
}
