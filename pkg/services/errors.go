// Package services implements the version and step-design lifecycle on top of
// the persistence layer: graph mutations with lock enforcement, version
// cloning, step context documents, design generation, and status rollup.
package services

import (
	"errors"
	"fmt"
)

// Error kinds of the lifecycle. Services wrap these in ServiceError; the web
// layer maps each kind onto a problem response.
var (
	// ErrValidation indicates malformed or incomplete input (400).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a referenced entity does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness conflict, such as a duplicate lane
	// name or a lost version-number race (409).
	ErrConflict = errors.New("conflict")

	// ErrLocked indicates a mutation on a locked version (409).
	ErrLocked = errors.New("version is locked")

	// ErrPublished indicates deletion of a published version (409).
	ErrPublished = errors.New("version is published")

	// ErrSoleVersion indicates deletion of a session's only version (409).
	ErrSoleVersion = errors.New("sole version of session")

	// ErrNotEmpty indicates deletion of a lane that still has nodes (409).
	ErrNotEmpty = errors.New("lane is not empty")

	// ErrAgentFailure indicates the design agent failed or returned an
	// unusable response (502).
	ErrAgentFailure = errors.New("design agent failure")

	// ErrCloneFailed indicates the version clone batch could not be committed.
	ErrCloneFailed = errors.New("clone failed")
)

// Stable codes carried by ServiceError, one per kind.
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeLocked       = "version_locked"
	CodePublished    = "version_published"
	CodeSoleVersion  = "sole_version"
	CodeNotEmpty     = "lane_not_empty"
	CodeAgentFailure = "agent_failure"
	CodeCloneFailed  = "clone_failed"
	CodeInternal     = "internal_error"
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Error kind sentinel
	Cause   error  // Underlying error, if any
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}

	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is matches the error kind and the underlying cause chain.
func (e *ServiceError) Is(target error) bool {
	if errors.Is(e.Err, target) {
		return true
	}

	return e.Cause != nil && errors.Is(e.Cause, target)
}

func newServiceError(op string, kind error, message string, cause error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    codeForKind(kind),
		Message: message,
		Err:     kind,
		Cause:   cause,
	}
}

func codeForKind(kind error) string {
	switch {
	case errors.Is(kind, ErrValidation):
		return CodeValidation
	case errors.Is(kind, ErrNotFound):
		return CodeNotFound
	case errors.Is(kind, ErrConflict):
		return CodeConflict
	case errors.Is(kind, ErrLocked):
		return CodeLocked
	case errors.Is(kind, ErrPublished):
		return CodePublished
	case errors.Is(kind, ErrSoleVersion):
		return CodeSoleVersion
	case errors.Is(kind, ErrNotEmpty):
		return CodeNotEmpty
	case errors.Is(kind, ErrAgentFailure):
		return CodeAgentFailure
	case errors.Is(kind, ErrCloneFailed):
		return CodeCloneFailed
	default:
		return CodeInternal
	}
}

// NewValidationError creates a validation error with a caller-facing message.
func NewValidationError(op, message string) *ServiceError {
	return newServiceError(op, ErrValidation, message, nil)
}

// NewNotFoundError creates a not-found error naming the entity and id.
func NewNotFoundError(op, entity, id string) *ServiceError {
	return newServiceError(op, ErrNotFound, fmt.Sprintf("%s %s not found", entity, id), nil)
}

// NewConflictError creates a conflict error with a caller-facing message.
func NewConflictError(op, message string, cause error) *ServiceError {
	return newServiceError(op, ErrConflict, message, cause)
}

// NewLockedError creates a locked-version error.
func NewLockedError(op, versionID string) *ServiceError {
	return newServiceError(op, ErrLocked, fmt.Sprintf("version %s is locked", versionID), nil)
}

// NewPublishedError creates a published-version error.
func NewPublishedError(op, versionID string) *ServiceError {
	return newServiceError(op, ErrPublished, fmt.Sprintf("version %s is published and cannot be deleted", versionID), nil)
}

// NewSoleVersionError creates a sole-version error.
func NewSoleVersionError(op, sessionID string) *ServiceError {
	return newServiceError(op, ErrSoleVersion, fmt.Sprintf("session %s has only one version", sessionID), nil)
}

// NewNotEmptyError creates a lane-not-empty error.
func NewNotEmptyError(op, laneName string, nodeCount int) *ServiceError {
	return newServiceError(op, ErrNotEmpty, fmt.Sprintf("lane %q still has %d nodes", laneName, nodeCount), nil)
}

// NewAgentError creates a design-agent failure error.
func NewAgentError(op, message string, cause error) *ServiceError {
	return newServiceError(op, ErrAgentFailure, message, cause)
}

// NewCloneError creates a clone failure error.
func NewCloneError(op string, cause error) *ServiceError {
	return newServiceError(op, ErrCloneFailed, "failed to commit cloned graph", cause)
}

// NewInternalError wraps an unexpected storage or infrastructure failure.
func NewInternalError(op string, cause error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    CodeInternal,
		Message: "internal error",
		Err:     cause,
	}
}

// IsValidation checks if an error indicates invalid input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound checks if an error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error indicates a uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsLocked checks if an error indicates a locked version.
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}

// IsPublished checks if an error indicates a published version.
func IsPublished(err error) bool {
	return errors.Is(err, ErrPublished)
}

// IsSoleVersion checks if an error indicates a session's only version.
func IsSoleVersion(err error) bool {
	return errors.Is(err, ErrSoleVersion)
}

// IsNotEmpty checks if an error indicates a non-empty lane.
func IsNotEmpty(err error) bool {
	return errors.Is(err, ErrNotEmpty)
}

// IsAgentFailure checks if an error indicates a design agent failure.
func IsAgentFailure(err error) bool {
	return errors.Is(err, ErrAgentFailure)
}

// IsCloneFailed checks if an error indicates a failed clone batch.
func IsCloneFailed(err error) bool {
	return errors.Is(err, ErrCloneFailed)
}
