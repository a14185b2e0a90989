package services

import (
	"errors"
	"fmt"

	apperrors "github.com/lumina-edu/exam-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Exam specific errors
	ErrExamNotFound        = errors.New("exam not found")
	ErrExamAccessDenied    = errors.New("access denied to exam")
	ErrExamNotEditable     = errors.New("exam cannot be edited in current status")
	ErrInvalidTransition   = errors.New("invalid exam status transition")
	ErrSelfReview          = errors.New("exam author cannot review their own exam")
	ErrExamUnavailable     = errors.New("exam is not available")
	ErrExamNotInWindow     = errors.New("exam is outside its availability window")
	ErrCourseNotFound      = errors.New("course not found")
	ErrNotEnrolled         = errors.New("student is not enrolled in the course")

	// Attempt specific errors
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrAttemptAccess     = errors.New("access denied to attempt")
	ErrInvalidState      = errors.New("operation not legal from current attempt status")
	ErrAlreadyAttempted  = errors.New("attempt limit reached without an unused re-attempt grant")
	ErrAttemptInProgress = errors.New("an attempt is already in progress")

	// Grading specific errors
	ErrGradingNotAllowed   = errors.New("attempt is not in a gradable state")
	ErrInvalidScore        = errors.New("score exceeds the question's maximum points")
	ErrResultsNotPublished = errors.New("results have not been published")
	ErrAnswerNotFound      = errors.New("answer not found")

	// Re-attempt specific errors
	ErrRequestNotFound  = errors.New("re-attempt request not found")
	ErrDuplicateRequest = errors.New("a pending re-attempt request already exists")
	ErrAlreadyReviewed  = errors.New("re-attempt request already reviewed")
	ErrResponseRequired = errors.New("a response is required when rejecting a request")

	// User/Permission errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid user role")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func (pe *PermissionError) Unwrap() error {
	return ErrForbidden
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsForbidden checks if error represents an authorization failure
func IsForbidden(err error) bool {
	if errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrExamAccessDenied) ||
		errors.Is(err, ErrAttemptAccess) ||
		errors.Is(err, ErrSelfReview) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidScore) ||
		errors.Is(err, ErrResponseRequired) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadyAttempted) ||
		errors.Is(err, ErrAttemptInProgress) ||
		errors.Is(err, ErrDuplicateRequest) ||
		errors.Is(err, ErrAlreadyReviewed) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrGradingNotAllowed)
}

// IsUnavailable checks if error represents an eligibility failure
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrExamUnavailable) ||
		errors.Is(err, ErrExamNotInWindow) ||
		errors.Is(err, ErrNotEnrolled) ||
		errors.Is(err, ErrResultsNotPublished)
}
