package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

// PackFile is the YAML layout of an exercise pack.
type PackFile struct {
	Name      string         `yaml:"name"`
	Exercises []ExerciseFile `yaml:"exercises"`
}

// ExerciseFile is one exercise in a pack. Content is written in YAML and stored
// as the JSON payload of the exercise.
type ExerciseFile struct {
	ID               string                 `yaml:"id"`
	Type             models.ExerciseType    `yaml:"type"`
	Part             models.ExercisePart    `yaml:"part"`
	Title            string                 `yaml:"title"`
	Description      string                 `yaml:"description"`
	TimeLimitMinutes int                    `yaml:"time_limit_minutes"`
	Content          map[string]interface{} `yaml:"content"`
}

// Store is the write side of the exercise repository.
type Store interface {
	Put(ctx context.Context, exercise *models.Exercise) error
}

// Loader reads exercise packs and upserts every valid exercise.
type Loader struct {
	store     Store
	validator *validator.Validator
	logger    *slog.Logger
}

func NewLoader(store Store, validator *validator.Validator, logger *slog.Logger) *Loader {
	return &Loader{store: store, validator: validator, logger: logger}
}

// Load seeds from a pack file or from every .yaml/.yml file in a directory. Invalid
// exercises are skipped and reported in the returned error; the count is the
// number of exercises stored.
func (l *Loader) Load(ctx context.Context, path string) (int, error) {
	files, err := packFiles(path)
	if err != nil {
		return 0, err
	}

	stored := 0
	var errs []error
	for _, file := range files {
		n, err := l.loadFile(ctx, file)
		stored += n
		if err != nil {
			errs = append(errs, err)
		}
	}

	l.logger.Info("Seeded exercises", "path", path, "files", len(files), "stored", stored)
	return stored, errors.Join(errs...)
}

func (l *Loader) loadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read pack file: %w", err)
	}

	exercises, err := ParsePack(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	stored := 0
	var errs []error
	for _, ex := range exercises {
		if err := l.validator.Validate(ex); err != nil {
			if verrs := validator.ToValidationErrors(err); len(verrs) > 0 {
				err = verrs
			}
			l.logger.Warn("Skipping invalid seed exercise", "file", path, "exercise_id", ex.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s: exercise %s: %w", path, ex.ID, err))
			continue
		}
		if err := l.store.Put(ctx, ex); err != nil {
			return stored, fmt.Errorf("failed to store exercise %s: %w", ex.ID, err)
		}
		stored++
	}
	return stored, errors.Join(errs...)
}

// ParsePack decodes a pack into exercise records.
func ParsePack(data []byte) ([]*models.Exercise, error) {
	var pack PackFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse pack file: %w", err)
	}

	exercises := make([]*models.Exercise, 0, len(pack.Exercises))
	seen := make(map[string]bool, len(pack.Exercises))
	for i, ef := range pack.Exercises {
		if ef.ID == "" {
			return nil, fmt.Errorf("exercise %d: missing id", i)
		}
		if seen[ef.ID] {
			return nil, fmt.Errorf("exercise %s: duplicate id", ef.ID)
		}
		seen[ef.ID] = true

		content, err := json.Marshal(ef.Content)
		if err != nil {
			return nil, fmt.Errorf("exercise %s: encode content: %w", ef.ID, err)
		}
		exercises = append(exercises, &models.Exercise{
			ID:               ef.ID,
			Type:             ef.Type,
			Part:             ef.Part,
			Title:            ef.Title,
			Description:      ef.Description,
			TimeLimitMinutes: ef.TimeLimitMinutes,
			Content:          content,
		})
	}
	return exercises, nil
}

func packFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat seed path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, fmt.Errorf("list seed files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}
