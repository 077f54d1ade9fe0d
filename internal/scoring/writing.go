package scoring

import (
	"strings"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

// WritingReview summarizes a free text response against the recommended length.
// The rubric is returned as is for a human reviewer.
type WritingReview struct {
	WordCount   int      `json:"word_count"`
	MinWords    int      `json:"min_words"`
	MaxWords    int      `json:"max_words"`
	WithinRange bool     `json:"within_range"`
	Criteria    []string `json:"criteria"`
}

// CountWords counts whitespace separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ReviewWriting never produces a numeric score.
func ReviewWriting(p *models.WritingPayload, sub models.Submission) Result {
	text, _ := sub.Text(models.WritingResponseSlot)

	minWords, maxWords := p.MinWords, p.MaxWords
	if minWords <= 0 {
		minWords = models.DefaultWritingMinWords
	}
	if maxWords <= 0 {
		maxWords = models.DefaultWritingMaxWords
	}

	count := CountWords(text)
	return Result{
		Kind:       p.Kind(),
		AutoScored: false,
		Revealed:   true,
		Items: []ItemResult{{
			SlotID: models.WritingResponseSlot,
			Given:  sub[models.WritingResponseSlot],
		}},
		Writing: &WritingReview{
			WordCount:   count,
			MinWords:    minWords,
			MaxWords:    maxWords,
			WithinRange: count >= minWords && count <= maxWords,
			Criteria:    append([]string(nil), p.EvaluationCriteria...),
		},
	}
}
