package assembly

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

// AllowList is the set of exercise IDs a demo session may use.
type AllowList map[string]struct{}

func NewAllowList(ids ...string) AllowList {
	a := make(AllowList, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			a[id] = struct{}{}
		}
	}
	return a
}

// DefaultDemoAllowList allows the first exercise of every pool source in the
// layout, named "<type>-<part>-1".
func DefaultDemoAllowList(layout []models.Section) AllowList {
	var ids []string
	for _, s := range layout {
		for _, p := range s.Parts {
			for _, src := range p.SourceParts() {
				ids = append(ids, fmt.Sprintf("%s-%s-1", s.Type, src))
			}
		}
	}
	return NewAllowList(ids...)
}

func (a AllowList) Allows(id string) bool {
	_, ok := a[id]
	return ok
}

// FilterForDemo returns a grid whose pools only contain allowed exercises.
// Selections pointing outside the narrowed pool are cleared.
func FilterForDemo(sections []models.Section, allow AllowList) []models.Section {
	out := models.CloneSections(sections)
	for i := range out {
		for j := range out[i].Parts {
			part := &out[i].Parts[j]
			pool := part.ExercisePool[:0]
			for _, ex := range part.ExercisePool {
				if allow.Allows(ex.ID) {
					pool = append(pool, ex)
				}
			}
			part.ExercisePool = pool
			if part.SelectedExerciseID != nil && !part.InPool(*part.SelectedExerciseID) {
				part.SelectedExerciseID = nil
			}
		}
	}
	return out
}
