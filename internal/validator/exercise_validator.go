package validator

import (
	"fmt"

	apperrors "github.com/SAP-F-2025/exam-prep-service/internal/errors"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

const (
	minOptions = 2
	maxOptions = 10
)

// ExerciseValidator handles payload validation per exercise shape
type ExerciseValidator struct{}

// NewExerciseValidator creates a new exercise validator
func NewExerciseValidator() *ExerciseValidator {
	return &ExerciseValidator{}
}

// ValidateExercise decodes the payload for the exercise type and part and checks
// that every answer key is consistent with the content it refers to.
func (v *ExerciseValidator) ValidateExercise(ex *models.Exercise) error {
	payload, err := ex.DecodePayload()
	if err != nil {
		return ValidationErrors{*apperrors.NewValidationErrorWithRule("content", err.Error(), "payload_shape", nil)}
	}
	return v.ValidatePayload(payload)
}

// ValidatePayload validates an already decoded payload
func (v *ExerciseValidator) ValidatePayload(payload models.Payload) error {
	c := &collector{}

	switch p := payload.(type) {
	case *models.TitleMatchingPayload:
		v.validateTitleMatching(c, p)
	case *models.MultipleChoicePayload:
		v.validateMultipleChoice(c, p)
	case *models.TitleTextMatchingPayload:
		v.validateTitleTextMatching(c, p)
	case *models.BlankSelectionPayload:
		v.validateBlankSelection(c, p)
	case *models.WordBankPayload:
		v.validateWordBank(c, p)
	case *models.WritingPayload:
		v.validateWriting(c, p)
	default:
		c.add("content", "unsupported payload", payload)
	}

	c.uniqueSlots(payload)
	return c.err()
}

type collector struct {
	errs ValidationErrors
}

func (c *collector) add(field, message string, value interface{}) {
	c.errs = append(c.errs, *apperrors.NewValidationError(field, message, value))
}

func (c *collector) uniqueSlots(payload models.Payload) {
	if payload == nil {
		return
	}
	seen := make(map[string]bool)
	for _, slot := range payload.Slots() {
		if seen[slot] {
			c.add("content", "duplicate answer slot id", slot)
		}
		seen[slot] = true
	}
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (c *collector) options(field string, options []string, correct *int) {
	if len(options) < minOptions || len(options) > maxOptions {
		c.add(field+".options", fmt.Sprintf("must have between %d and %d options", minOptions, maxOptions), len(options))
	}
	for j, o := range options {
		if o == "" {
			c.add(fmt.Sprintf("%s.options[%d]", field, j), "cannot be empty", o)
		}
	}
	if correct == nil {
		c.add(field+".correct_option", "is required", nil)
	} else if *correct < 0 || *correct >= len(options) {
		c.add(field+".correct_option", "does not match any option", *correct)
	}
}

// Private validation methods for each payload shape

func (v *ExerciseValidator) validateTitleMatching(c *collector, p *models.TitleMatchingPayload) {
	if len(p.Texts) == 0 {
		c.add("content.texts", "must have at least 1 text", nil)
	}
	if len(p.Titles) < len(p.Texts) {
		c.add("content.titles", "must offer at least one title per text", len(p.Titles))
	}
	for i, t := range p.Texts {
		field := fmt.Sprintf("content.texts[%d]", i)
		if t.Content == "" {
			c.add(field+".content", "is required", nil)
		}
		if !contains(p.Titles, t.CorrectTitle) {
			c.add(field+".correct_title", "must be one of the titles", t.CorrectTitle)
		}
	}
}

func (v *ExerciseValidator) validateMultipleChoice(c *collector, p *models.MultipleChoicePayload) {
	if len(p.Questions) == 0 {
		c.add("content.questions", "must have at least 1 question", nil)
	}
	for i, q := range p.Questions {
		field := fmt.Sprintf("content.questions[%d]", i)
		if q.Prompt == "" {
			c.add(field+".prompt", "is required", nil)
		}
		c.options(field, q.Options, q.CorrectOption)
	}
}

func (v *ExerciseValidator) validateTitleTextMatching(c *collector, p *models.TitleTextMatchingPayload) {
	if len(p.Titles) == 0 {
		c.add("content.titles", "must have at least 1 title", nil)
	}
	if len(p.Texts) == 0 {
		c.add("content.texts", "must have at least 1 text", nil)
	}

	textIDs := p.TextIDs()
	for i, t := range p.Titles {
		field := fmt.Sprintf("content.titles[%d]", i)
		if t.Title == "" {
			c.add(field+".title", "is required", nil)
		}
		if t.CorrectMatch != models.NoMatch && !contains(textIDs, t.CorrectMatch) {
			c.add(field+".correct_match", fmt.Sprintf("must be a text id or %q", models.NoMatch), t.CorrectMatch)
		}
	}
	for i, t := range p.Texts {
		if t.ID == models.NoMatch {
			c.add(fmt.Sprintf("content.texts[%d].id", i), "is reserved", t.ID)
		}
	}
}

func (c *collector) segments(segments []models.Segment, blankIDs []string) {
	referenced := make(map[string]int)
	for i, s := range segments {
		switch s.Kind {
		case models.SegmentText:
		case models.SegmentBlank:
			if !contains(blankIDs, s.BlankID) {
				c.add(fmt.Sprintf("content.segments[%d].blank_id", i), "does not match any blank", s.BlankID)
			}
			referenced[s.BlankID]++
		default:
			c.add(fmt.Sprintf("content.segments[%d].kind", i), "must be text or blank", s.Kind)
		}
	}
	for _, id := range blankIDs {
		if referenced[id] != 1 {
			c.add("content.segments", "every blank must appear exactly once", id)
		}
	}
}

func (v *ExerciseValidator) validateBlankSelection(c *collector, p *models.BlankSelectionPayload) {
	if len(p.Blanks) == 0 {
		c.add("content.blanks", "must have at least 1 blank", nil)
	}
	for i, b := range p.Blanks {
		c.options(fmt.Sprintf("content.blanks[%d]", i), b.Options, b.CorrectOption)
	}
	c.segments(p.Segments, p.Slots())
}

func (v *ExerciseValidator) validateWordBank(c *collector, p *models.WordBankPayload) {
	if len(p.Blanks) == 0 {
		c.add("content.blanks", "must have at least 1 blank", nil)
	}
	if len(p.WordBank) < len(p.Blanks) {
		c.add("content.word_bank", "must offer at least one word per blank", len(p.WordBank))
	}
	for i, b := range p.Blanks {
		if !contains(p.WordBank, b.CorrectWord) {
			c.add(fmt.Sprintf("content.blanks[%d].correct_word", i), "must be in the word bank", b.CorrectWord)
		}
	}
	c.segments(p.Segments, p.Slots())
}

func (v *ExerciseValidator) validateWriting(c *collector, p *models.WritingPayload) {
	if p.Prompt == "" {
		c.add("content.prompt", "is required", nil)
	}
	if p.MinWords > p.MaxWords {
		c.add("content.min_words", "cannot be greater than max_words", p.MinWords)
	}
}
