package models

type TestState string

const (
	TestNotStarted TestState = "not_started"
	TestInProgress TestState = "in_progress"
	TestCompleted  TestState = "completed"
)

// Part is one slot of the exam grid. Sources lists the exercise parts whose
// records make up the pool; it defaults to the part itself.
type Part struct {
	Part               ExercisePart      `json:"part" yaml:"part"`
	Title              string            `json:"title" yaml:"title"`
	Sources            []ExercisePart    `json:"sources,omitempty" yaml:"sources"`
	ExercisePool       []ExerciseSummary `json:"exercise_pool" yaml:"-"`
	SelectedExerciseID *string           `json:"selected_exercise_id" yaml:"-"`
}

func (p *Part) SourceParts() []ExercisePart {
	if len(p.Sources) == 0 {
		return []ExercisePart{p.Part}
	}
	return p.Sources
}

func (p *Part) InPool(id string) bool {
	for _, e := range p.ExercisePool {
		if e.ID == id {
			return true
		}
	}
	return false
}

// HasSelection reports whether the part has a selection that belongs to its pool.
func (p *Part) HasSelection() bool {
	return p.SelectedExerciseID != nil && p.InPool(*p.SelectedExerciseID)
}

type Section struct {
	Type  ExerciseType `json:"type" yaml:"type"`
	Title string       `json:"title" yaml:"title"`
	Parts []Part       `json:"parts" yaml:"parts"`
}

// PartRef names a part by grid position.
type PartRef struct {
	Section int          `json:"section"`
	Part    int          `json:"part"`
	Type    ExerciseType `json:"type"`
	PartID  ExercisePart `json:"part_id"`
}

type Cursor struct {
	Section int `json:"section"`
	Part    int `json:"part"`
}

// TestInstance is one assembled full exam plus its navigation position. It is
// also the persisted snapshot format.
type TestInstance struct {
	Sections       []Section `json:"sections"`
	CurrentSection int       `json:"current_section"`
	CurrentPart    int       `json:"current_part"`
	IsTestReady    bool      `json:"is_test_ready"`
	ShowAnswers    bool      `json:"show_answers"`
	WritingChoice  *int      `json:"writing_choice,omitempty"`
}

func NewTestInstance(layout []Section) *TestInstance {
	return &TestInstance{Sections: CloneSections(layout)}
}

func (t *TestInstance) State() TestState {
	switch {
	case t.ShowAnswers:
		return TestCompleted
	case t.IsTestReady:
		return TestInProgress
	default:
		return TestNotStarted
	}
}

func (t *TestInstance) Cursor() Cursor {
	return Cursor{Section: t.CurrentSection, Part: t.CurrentPart}
}

func (t *TestInstance) InBounds(c Cursor) bool {
	if c.Section < 0 || c.Section >= len(t.Sections) {
		return false
	}
	return c.Part >= 0 && c.Part < len(t.Sections[c.Section].Parts)
}

// LastCursor returns the last part of the last section. The zero cursor is
// returned for an empty grid.
func (t *TestInstance) LastCursor() Cursor {
	if len(t.Sections) == 0 {
		return Cursor{}
	}
	s := len(t.Sections) - 1
	p := len(t.Sections[s].Parts) - 1
	if p < 0 {
		p = 0
	}
	return Cursor{Section: s, Part: p}
}

func (t *TestInstance) PartAt(c Cursor) (*Part, bool) {
	if !t.InBounds(c) {
		return nil, false
	}
	return &t.Sections[c.Section].Parts[c.Part], true
}

func (t *TestInstance) CurrentPartRef() (*Part, bool) {
	return t.PartAt(t.Cursor())
}

func (t *TestInstance) CurrentSectionType() ExerciseType {
	if t.CurrentSection < 0 || t.CurrentSection >= len(t.Sections) {
		return ""
	}
	return t.Sections[t.CurrentSection].Type
}

// SelectedIDs returns the selected exercise of every part in grid order, skipping
// parts without a selection.
func (t *TestInstance) SelectedIDs() []string {
	var ids []string
	for _, s := range t.Sections {
		for _, p := range s.Parts {
			if p.SelectedExerciseID != nil {
				ids = append(ids, *p.SelectedExerciseID)
			}
		}
	}
	return ids
}

func (t *TestInstance) Clone() *TestInstance {
	if t == nil {
		return nil
	}
	out := *t
	out.Sections = CloneSections(t.Sections)
	if t.WritingChoice != nil {
		c := *t.WritingChoice
		out.WritingChoice = &c
	}
	return &out
}

// CloneSections deep copies a grid.
func CloneSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = Section{Type: s.Type, Title: s.Title, Parts: make([]Part, len(s.Parts))}
		for j, p := range s.Parts {
			cp := Part{
				Part:         p.Part,
				Title:        p.Title,
				Sources:      append([]ExercisePart(nil), p.Sources...),
				ExercisePool: append([]ExerciseSummary(nil), p.ExercisePool...),
			}
			if len(p.Sources) == 0 {
				cp.Sources = nil
			}
			if p.SelectedExerciseID != nil {
				id := *p.SelectedExerciseID
				cp.SelectedExerciseID = &id
			}
			out[i].Parts[j] = cp
		}
	}
	return out
}
