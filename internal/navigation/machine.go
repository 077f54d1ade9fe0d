package navigation

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

var (
	ErrTestAlreadyStarted   = errors.New("test has already been started")
	ErrTestNotInProgress    = errors.New("test is not in progress")
	ErrCursorOutOfBounds    = errors.New("cursor out of bounds")
	ErrNotAtLastPart        = errors.New("test can only be finished from the last part of the last section")
	ErrIncompleteSelection  = errors.New("test has parts without a selected exercise")
	ErrInvalidWritingChoice = errors.New("writing choice must be 1 or 2")
)

// IncompleteSelectionError lists the parts that block Start.
type IncompleteSelectionError struct {
	Parts []models.PartRef
}

func (e *IncompleteSelectionError) Error() string {
	return fmt.Sprintf("%s: %d part(s) missing", ErrIncompleteSelection.Error(), len(e.Parts))
}

func (e *IncompleteSelectionError) Unwrap() error {
	return ErrIncompleteSelection
}

// Machine walks the section/part grid of a test instance. Transitions are
// synchronous and never touch storage; callers persist the instance afterwards.
// A Machine is not safe for concurrent use.
type Machine struct {
	test *models.TestInstance
}

func New(test *models.TestInstance) *Machine {
	if test == nil {
		test = &models.TestInstance{}
	}
	return &Machine{test: test}
}

// Test returns the instance the machine drives.
func (m *Machine) Test() *models.TestInstance {
	return m.test
}

func (m *Machine) State() models.TestState {
	return m.test.State()
}

func (m *Machine) Cursor() models.Cursor {
	return m.test.Cursor()
}

// Start freezes the selections and moves to the first part. Every part must hold
// a selection that is a member of its pool.
func (m *Machine) Start() error {
	if m.State() != models.TestNotStarted {
		return ErrTestAlreadyStarted
	}

	missing := MissingSelections(m.test.Sections)
	if len(missing) > 0 || len(m.test.Sections) == 0 {
		return &IncompleteSelectionError{Parts: missing}
	}

	m.test.IsTestReady = true
	m.test.ShowAnswers = false
	m.test.CurrentSection = 0
	m.test.CurrentPart = 0
	return nil
}

// Advance moves to the next part, crossing into the next section when needed.
// It returns false when already at the last part of the last section.
func (m *Machine) Advance() (bool, error) {
	if m.State() != models.TestInProgress {
		return false, ErrTestNotInProgress
	}

	s, p := m.test.CurrentSection, m.test.CurrentPart
	switch {
	case p+1 < len(m.test.Sections[s].Parts):
		m.test.CurrentPart = p + 1
	case s+1 < len(m.test.Sections):
		m.test.CurrentSection = s + 1
		m.test.CurrentPart = 0
	default:
		return false, nil
	}
	return true, nil
}

// Retreat moves to the previous part, landing on the last part of the previous
// section when needed. It returns false at the first part of the first section.
func (m *Machine) Retreat() (bool, error) {
	if m.State() != models.TestInProgress {
		return false, ErrTestNotInProgress
	}

	s, p := m.test.CurrentSection, m.test.CurrentPart
	switch {
	case p > 0:
		m.test.CurrentPart = p - 1
	case s > 0:
		m.test.CurrentSection = s - 1
		m.test.CurrentPart = len(m.test.Sections[s-1].Parts) - 1
	default:
		return false, nil
	}
	return true, nil
}

func (m *Machine) JumpTo(c models.Cursor) error {
	if m.State() != models.TestInProgress {
		return ErrTestNotInProgress
	}
	if !m.test.InBounds(c) {
		return fmt.Errorf("%w: section %d part %d", ErrCursorOutOfBounds, c.Section, c.Part)
	}

	m.test.CurrentSection = c.Section
	m.test.CurrentPart = c.Part
	return nil
}

// Finish completes the test and reveals answers. There is no way back other than
// Reset.
func (m *Machine) Finish() error {
	if m.State() != models.TestInProgress {
		return ErrTestNotInProgress
	}
	if m.Cursor() != m.test.LastCursor() {
		return ErrNotAtLastPart
	}

	m.test.ShowAnswers = true
	return nil
}

// Reset returns to NotStarted from any state. Pools survive so the test can be
// generated again without reloading.
func (m *Machine) Reset() {
	for i := range m.test.Sections {
		for j := range m.test.Sections[i].Parts {
			m.test.Sections[i].Parts[j].SelectedExerciseID = nil
		}
	}
	m.test.CurrentSection = 0
	m.test.CurrentPart = 0
	m.test.IsTestReady = false
	m.test.ShowAnswers = false
	m.test.WritingChoice = nil
}

// SetWritingChoice records which of the two writing tasks the learner works on.
func (m *Machine) SetWritingChoice(choice int) error {
	if m.State() != models.TestInProgress {
		return ErrTestNotInProgress
	}
	if choice != 1 && choice != 2 {
		return ErrInvalidWritingChoice
	}

	m.test.WritingChoice = &choice
	return nil
}

// MissingSelections enumerates parts whose selection is absent or not in the pool.
// A section without parts is reported with Part set to -1.
func MissingSelections(sections []models.Section) []models.PartRef {
	var refs []models.PartRef
	for i, s := range sections {
		if len(s.Parts) == 0 {
			refs = append(refs, models.PartRef{Section: i, Part: -1, Type: s.Type})
			continue
		}
		for j := range s.Parts {
			if !s.Parts[j].HasSelection() {
				refs = append(refs, models.PartRef{Section: i, Part: j, Type: s.Type, PartID: s.Parts[j].Part})
			}
		}
	}
	return refs
}
