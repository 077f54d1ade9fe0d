package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator   *validator.Validate
	exerciseValidator *ExerciseValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		exerciseValidator: NewExerciseValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs complete validation. Exercises additionally get their
// payload checked against the shape required by their type and part.
func (v *Validator) Validate(s interface{}) error {
	// First validate struct tags
	if err := v.ValidateStruct(s); err != nil {
		return err
	}

	if ex, ok := s.(*models.Exercise); ok {
		return v.exerciseValidator.ValidateExercise(ex)
	}
	return nil
}

// Exercise returns the exercise validator
func (v *Validator) Exercise() *ExerciseValidator {
	return v.exerciseValidator
}

// Engine exposes the underlying validator, used to plug into gin binding
func (v *Validator) Engine() *validator.Validate {
	return v.structValidator
}

var exerciseIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	// Exercise type validation
	validate.RegisterValidation("exercise_type", validateExerciseType)

	// Exercise part validation
	validate.RegisterValidation("exercise_part", validateExercisePart)

	// Writing task choice
	validate.RegisterValidation("writing_choice", validateWritingChoice)

	// Exercise ID charset
	validate.RegisterValidation("exercise_id", validateExerciseID)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateExerciseType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, validType := range models.ValidExerciseTypes() {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateExercisePart(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, validPart := range models.ValidExerciseParts() {
		if string(validPart) == value {
			return true
		}
	}
	return false
}

func validateWritingChoice(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n == 1 || n == 2
}

func validateExerciseID(fl validator.FieldLevel) bool {
	return exerciseIDPattern.MatchString(fl.Field().String())
}
