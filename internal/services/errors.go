package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/navigation"
	"github.com/SAP-F-2025/exam-prep-service/internal/runtime"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

// Common service errors
var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden operation")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Exercise errors
	ErrExerciseNotFound        = errors.New("exercise not found")
	ErrExerciseIDMismatch      = errors.New("exercise id in body does not match path")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrDemoRestricted          = errors.New("exercise is not available in demo mode")
	ErrPayloadMismatch         = models.ErrPayloadMismatch

	// Test errors
	ErrTestNotReady          = navigation.ErrIncompleteSelection
	ErrTestAlreadyStarted    = navigation.ErrTestAlreadyStarted
	ErrTestNotInProgress     = navigation.ErrTestNotInProgress
	ErrCursorOutOfBounds     = navigation.ErrCursorOutOfBounds
	ErrNotAtLastPart         = navigation.ErrNotAtLastPart
	ErrTestCompleted         = errors.New("test is already completed")
	ErrTestNotCompleted      = errors.New("results are available once the test is finished")
	ErrWritingChoiceRequired = errors.New("choose a writing task before answering")
	ErrMissingSession        = errors.New("session id is required")
)

// ValidationErrors is the field level failure list returned by the validator.
type ValidationErrors = validator.ValidationErrors

// BusinessRuleError represents a business rule violation. Err is the sentinel
// the violation maps to, if any.
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
	Err     error
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation [%s]: %s", e.Rule, e.Message)
}

func (e *BusinessRuleError) Unwrap() error {
	return e.Err
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// PermissionError represents permission-related errors
type PermissionError struct {
	UserID     string
	Resource   string
	Action     string
	ResourceID string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s (%s)",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrInsufficientPermissions
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		Resource:   resource,
		Action:     action,
		ResourceID: resourceID,
		Reason:     reason,
	}
}

// Error classification helpers
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExerciseNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrMissingSession)
}

func IsForbidden(err error) bool {
	var permErr *PermissionError
	return errors.As(err, &permErr) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInsufficientPermissions) ||
		errors.Is(err, ErrDemoRestricted)
}

func IsValidation(err error) bool {
	var validationErrs ValidationErrors
	return errors.As(err, &validationErrs) ||
		errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrExerciseIDMismatch) ||
		errors.Is(err, ErrPayloadMismatch) ||
		errors.Is(err, models.ErrUnknownShape) ||
		errors.Is(err, models.ErrEmptyPayload) ||
		errors.Is(err, ErrCursorOutOfBounds) ||
		errors.Is(err, navigation.ErrInvalidWritingChoice) ||
		errors.Is(err, runtime.ErrUnknownSlot) ||
		errors.Is(err, runtime.ErrResponseTooShort)
}

func IsBusinessRule(err error) bool {
	var businessErr *BusinessRuleError
	return errors.As(err, &businessErr)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrTestNotReady) ||
		errors.Is(err, ErrTestAlreadyStarted) ||
		errors.Is(err, ErrTestNotInProgress) ||
		errors.Is(err, ErrNotAtLastPart) ||
		errors.Is(err, ErrTestCompleted) ||
		errors.Is(err, ErrTestNotCompleted) ||
		errors.Is(err, ErrWritingChoiceRequired) ||
		errors.Is(err, runtime.ErrAlreadySubmitted) ||
		errors.Is(err, runtime.ErrTimeExpired)
}
