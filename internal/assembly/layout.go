package assembly

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

var ErrInvalidLayout = errors.New("invalid exam layout")

// DefaultLayout is the standard exam grid: four sections, writing drawing its
// single task from both writing parts.
func DefaultLayout() []models.Section {
	return []models.Section{
		{
			Type:  models.ExerciseReading,
			Title: "Reading",
			Parts: []models.Part{
				{Part: models.Part1, Title: "Teil 1: Title Matching"},
				{Part: models.Part2, Title: "Teil 2: Multiple Choice"},
				{Part: models.Part3, Title: "Teil 3: Title-Text Matching"},
			},
		},
		{
			Type:  models.ExerciseListening,
			Title: "Listening",
			Parts: []models.Part{
				{Part: models.Part1, Title: "Teil 1: Short Conversations"},
				{Part: models.Part2, Title: "Teil 2: Dialogue"},
				{Part: models.Part3, Title: "Teil 3: News & Announcements"},
			},
		},
		{
			Type:  models.ExerciseGrammar,
			Title: "Grammar",
			Parts: []models.Part{
				{Part: models.Part1, Title: "Teil 1: Fill in the Blanks"},
				{Part: models.Part2, Title: "Teil 2: Word Formation"},
			},
		},
		{
			Type:  models.ExerciseWriting,
			Title: "Writing",
			Parts: []models.Part{
				{Part: models.Part1, Title: "Teil 1: Writing Task", Sources: []models.ExercisePart{models.Part1, models.Part2}},
			},
		},
	}
}

type layoutFile struct {
	Sections []models.Section `yaml:"sections"`
}

// LoadLayout reads an exam grid from a YAML file. An empty path yields
// DefaultLayout.
func LoadLayout(path string) ([]models.Section, error) {
	if path == "" {
		return DefaultLayout(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	return ParseLayout(raw)
}

func ParseLayout(raw []byte) ([]models.Section, error) {
	var f layoutFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if err := ValidateLayout(f.Sections); err != nil {
		return nil, err
	}
	return f.Sections, nil
}

// ValidateLayout checks that every part draws from sources that have a payload
// shape and that no section or part repeats.
func ValidateLayout(sections []models.Section) error {
	if len(sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidLayout)
	}

	seenTypes := make(map[models.ExerciseType]bool)
	for i, s := range sections {
		if seenTypes[s.Type] {
			return fmt.Errorf("%w: section %d repeats type %q", ErrInvalidLayout, i, s.Type)
		}
		seenTypes[s.Type] = true

		if len(s.Parts) == 0 {
			return fmt.Errorf("%w: section %q has no parts", ErrInvalidLayout, s.Type)
		}

		seenParts := make(map[models.ExercisePart]bool)
		for _, p := range s.Parts {
			if seenParts[p.Part] {
				return fmt.Errorf("%w: section %q repeats part %q", ErrInvalidLayout, s.Type, p.Part)
			}
			seenParts[p.Part] = true

			for _, src := range p.SourceParts() {
				if _, err := models.ExpectedKind(s.Type, src); err != nil {
					return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
				}
			}
		}
	}
	return nil
}
