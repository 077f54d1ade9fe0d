package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

type PayloadKind string

const (
	KindTitleMatching     PayloadKind = "title_matching"
	KindMultipleChoice    PayloadKind = "multiple_choice"
	KindTitleTextMatching PayloadKind = "title_text_matching"
	KindBlankSelection    PayloadKind = "blank_selection"
	KindWordBank          PayloadKind = "word_bank"
	KindWriting           PayloadKind = "writing"
)

// NoMatch marks a title that intentionally has no corresponding text.
const NoMatch = "X"

// WritingResponseSlot is the only answer slot of a writing exercise.
const WritingResponseSlot = "response"

const (
	DefaultWritingMinWords = 150
	DefaultWritingMaxWords = 200
)

var (
	ErrUnknownShape    = errors.New("no payload shape defined for exercise type and part")
	ErrPayloadMismatch = errors.New("payload shape does not match exercise type and part")
	ErrEmptyPayload    = errors.New("exercise payload is empty")
)

// Payload is the closed set of exercise content shapes. The concrete variant is
// fully determined by the exercise (type, part) pair, see ExpectedKind.
type Payload interface {
	Kind() PayloadKind
	// Slots lists the answer slot IDs in presentation order.
	Slots() []string
	// Redacted returns a copy with every answer key removed.
	Redacted() Payload
	normalize()
}

var payloadShapes = map[ExerciseType]map[ExercisePart]PayloadKind{
	ExerciseReading: {
		Part1: KindTitleMatching,
		Part2: KindMultipleChoice,
		Part3: KindTitleTextMatching,
	},
	ExerciseListening: {
		Part1: KindMultipleChoice,
		Part2: KindMultipleChoice,
		Part3: KindMultipleChoice,
	},
	ExerciseGrammar: {
		Part1: KindBlankSelection,
		Part2: KindWordBank,
	},
	ExerciseWriting: {
		Part1: KindWriting,
		Part2: KindWriting,
	},
}

// ExpectedKind returns the payload shape an exercise of the given type and part must carry.
func ExpectedKind(t ExerciseType, p ExercisePart) (PayloadKind, error) {
	parts, ok := payloadShapes[t]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownShape, t, p)
	}
	kind, ok := parts[p]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownShape, t, p)
	}
	return kind, nil
}

func newPayload(kind PayloadKind) Payload {
	switch kind {
	case KindTitleMatching:
		return &TitleMatchingPayload{}
	case KindMultipleChoice:
		return &MultipleChoicePayload{}
	case KindTitleTextMatching:
		return &TitleTextMatchingPayload{}
	case KindBlankSelection:
		return &BlankSelectionPayload{}
	case KindWordBank:
		return &WordBankPayload{}
	case KindWriting:
		return &WritingPayload{}
	}
	return nil
}

// DecodePayload decodes Content into the variant required by the exercise type and
// part. Fields belonging to another shape are rejected.
func (e *Exercise) DecodePayload() (Payload, error) {
	kind, err := ExpectedKind(e.Type, e.Part)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(e.Content)) == 0 || string(e.Content) == "null" {
		return nil, ErrEmptyPayload
	}

	payload := newPayload(kind)
	dec := json.NewDecoder(bytes.NewReader(e.Content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(payload); err != nil {
		return nil, fmt.Errorf("%w: %s/%s as %s: %v", ErrPayloadMismatch, e.Type, e.Part, kind, err)
	}
	payload.normalize()
	return payload, nil
}

// SetPayload stores p as the exercise content after checking it is the shape the
// exercise type and part require.
func (e *Exercise) SetPayload(p Payload) error {
	kind, err := ExpectedKind(e.Type, e.Part)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrEmptyPayload
	}
	if p.Kind() != kind {
		return fmt.Errorf("%w: %s/%s requires %s, got %s", ErrPayloadMismatch, e.Type, e.Part, kind, p.Kind())
	}
	p.normalize()
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	e.Content = datatypes.JSON(raw)
	return nil
}

func slotID(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}

// ===== TITLE MATCHING (reading part 1) =====

type MatchText struct {
	ID           string `json:"id,omitempty" yaml:"id"`
	Content      string `json:"content" yaml:"content"`
	CorrectTitle string `json:"correct_title,omitempty" yaml:"correct_title"`
}

type TitleMatchingPayload struct {
	Texts  []MatchText `json:"texts"`
	Titles []string    `json:"titles"`
}

func (p *TitleMatchingPayload) Kind() PayloadKind { return KindTitleMatching }

func (p *TitleMatchingPayload) Slots() []string {
	slots := make([]string, len(p.Texts))
	for i, t := range p.Texts {
		slots[i] = t.ID
	}
	return slots
}

func (p *TitleMatchingPayload) Redacted() Payload {
	out := &TitleMatchingPayload{
		Texts:  make([]MatchText, len(p.Texts)),
		Titles: append([]string(nil), p.Titles...),
	}
	for i, t := range p.Texts {
		out.Texts[i] = MatchText{ID: t.ID, Content: t.Content}
	}
	return out
}

func (p *TitleMatchingPayload) normalize() {
	for i := range p.Texts {
		if p.Texts[i].ID == "" {
			p.Texts[i].ID = slotID("text", i)
		}
	}
}

// ===== MULTIPLE CHOICE (reading part 2, listening) =====

type ChoiceQuestion struct {
	ID            string   `json:"id,omitempty"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correct_option,omitempty"`
}

type MultipleChoicePayload struct {
	Content    string           `json:"content,omitempty"`
	AudioURL   string           `json:"audio_url,omitempty"`
	Transcript string           `json:"transcript,omitempty"`
	Questions  []ChoiceQuestion `json:"questions"`
}

func (p *MultipleChoicePayload) Kind() PayloadKind { return KindMultipleChoice }

func (p *MultipleChoicePayload) Slots() []string {
	slots := make([]string, len(p.Questions))
	for i, q := range p.Questions {
		slots[i] = q.ID
	}
	return slots
}

func (p *MultipleChoicePayload) Redacted() Payload {
	out := &MultipleChoicePayload{
		Content:   p.Content,
		AudioURL:  p.AudioURL,
		Questions: make([]ChoiceQuestion, len(p.Questions)),
	}
	for i, q := range p.Questions {
		out.Questions[i] = ChoiceQuestion{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
		}
	}
	return out
}

func (p *MultipleChoicePayload) normalize() {
	for i := range p.Questions {
		if p.Questions[i].ID == "" {
			p.Questions[i].ID = slotID("question", i)
		}
	}
}

// ===== TITLE-TEXT MATCHING WITH "X" (reading part 3) =====

type MatchTitle struct {
	ID           string `json:"id,omitempty"`
	Title        string `json:"title"`
	CorrectMatch string `json:"correct_match,omitempty"`
}

type TitleTextMatchingPayload struct {
	Titles []MatchTitle `json:"titles"`
	Texts  []MatchText  `json:"texts"`
}

func (p *TitleTextMatchingPayload) Kind() PayloadKind { return KindTitleTextMatching }

func (p *TitleTextMatchingPayload) Slots() []string {
	slots := make([]string, len(p.Titles))
	for i, t := range p.Titles {
		slots[i] = t.ID
	}
	return slots
}

func (p *TitleTextMatchingPayload) Redacted() Payload {
	out := &TitleTextMatchingPayload{
		Titles: make([]MatchTitle, len(p.Titles)),
		Texts:  make([]MatchText, len(p.Texts)),
	}
	for i, t := range p.Titles {
		out.Titles[i] = MatchTitle{ID: t.ID, Title: t.Title}
	}
	for i, t := range p.Texts {
		out.Texts[i] = MatchText{ID: t.ID, Content: t.Content}
	}
	return out
}

func (p *TitleTextMatchingPayload) normalize() {
	for i := range p.Titles {
		if p.Titles[i].ID == "" {
			p.Titles[i].ID = slotID("title", i)
		}
	}
	for i := range p.Texts {
		if p.Texts[i].ID == "" {
			p.Texts[i].ID = slotID("text", i)
		}
	}
}

// TextIDs returns the valid match targets, not including NoMatch.
func (p *TitleTextMatchingPayload) TextIDs() []string {
	ids := make([]string, len(p.Texts))
	for i, t := range p.Texts {
		ids[i] = t.ID
	}
	return ids
}

// ===== FILL IN THE BLANKS (grammar) =====

type SegmentKind string

const (
	SegmentText  SegmentKind = "text"
	SegmentBlank SegmentKind = "blank"
)

type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Content string      `json:"content,omitempty"`
	BlankID string      `json:"blank_id,omitempty"`
}

func normalizeSegments(segments []Segment) {
	n := 0
	for i := range segments {
		if segments[i].Kind != SegmentBlank {
			continue
		}
		if segments[i].BlankID == "" {
			segments[i].BlankID = slotID("blank", n)
		}
		n++
	}
}

type ChoiceBlank struct {
	ID            string   `json:"id,omitempty"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correct_option,omitempty"`
}

type BlankSelectionPayload struct {
	Segments []Segment     `json:"segments"`
	Blanks   []ChoiceBlank `json:"blanks"`
}

func (p *BlankSelectionPayload) Kind() PayloadKind { return KindBlankSelection }

func (p *BlankSelectionPayload) Slots() []string {
	slots := make([]string, len(p.Blanks))
	for i, b := range p.Blanks {
		slots[i] = b.ID
	}
	return slots
}

func (p *BlankSelectionPayload) Redacted() Payload {
	out := &BlankSelectionPayload{
		Segments: append([]Segment(nil), p.Segments...),
		Blanks:   make([]ChoiceBlank, len(p.Blanks)),
	}
	for i, b := range p.Blanks {
		out.Blanks[i] = ChoiceBlank{ID: b.ID, Options: append([]string(nil), b.Options...)}
	}
	return out
}

func (p *BlankSelectionPayload) normalize() {
	normalizeSegments(p.Segments)
	for i := range p.Blanks {
		if p.Blanks[i].ID == "" {
			p.Blanks[i].ID = slotID("blank", i)
		}
	}
}

type WordBlank struct {
	ID          string `json:"id,omitempty"`
	CorrectWord string `json:"correct_word,omitempty"`
}

type WordBankPayload struct {
	Segments []Segment   `json:"segments"`
	Blanks   []WordBlank `json:"blanks"`
	WordBank []string    `json:"word_bank"`
}

func (p *WordBankPayload) Kind() PayloadKind { return KindWordBank }

func (p *WordBankPayload) Slots() []string {
	slots := make([]string, len(p.Blanks))
	for i, b := range p.Blanks {
		slots[i] = b.ID
	}
	return slots
}

func (p *WordBankPayload) Redacted() Payload {
	out := &WordBankPayload{
		Segments: append([]Segment(nil), p.Segments...),
		Blanks:   make([]WordBlank, len(p.Blanks)),
		WordBank: append([]string(nil), p.WordBank...),
	}
	for i, b := range p.Blanks {
		out.Blanks[i] = WordBlank{ID: b.ID}
	}
	return out
}

func (p *WordBankPayload) normalize() {
	normalizeSegments(p.Segments)
	for i := range p.Blanks {
		if p.Blanks[i].ID == "" {
			p.Blanks[i].ID = slotID("blank", i)
		}
	}
}

// ===== WRITING =====

type WritingPayload struct {
	Prompt             string   `json:"prompt"`
	EvaluationCriteria []string `json:"evaluation_criteria"`
	MinWords           int      `json:"min_words,omitempty"`
	MaxWords           int      `json:"max_words,omitempty"`
}

func (p *WritingPayload) Kind() PayloadKind { return KindWriting }

func (p *WritingPayload) Slots() []string { return []string{WritingResponseSlot} }

// Redacted keeps the rubric; writing has no answer key.
func (p *WritingPayload) Redacted() Payload {
	out := *p
	out.EvaluationCriteria = append([]string(nil), p.EvaluationCriteria...)
	return &out
}

func (p *WritingPayload) normalize() {
	if p.MinWords <= 0 {
		p.MinWords = DefaultWritingMinWords
	}
	if p.MaxWords <= 0 {
		p.MaxWords = DefaultWritingMaxWords
	}
}
