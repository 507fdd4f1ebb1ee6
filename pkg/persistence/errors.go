package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrVersionNotFound indicates a future-state version was not found by the given identifier.
	ErrVersionNotFound = errors.New("version not found")

	// ErrNodeNotFound indicates a node was not found by the given identifier.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound indicates an edge was not found by the given identifier.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrLaneNotFound indicates a lane was not found by the given identifier.
	ErrLaneNotFound = errors.New("lane not found")

	// ErrAnnotationNotFound indicates an annotation was not found by the given identifier.
	ErrAnnotationNotFound = errors.New("annotation not found")

	// ErrDesignVersionNotFound indicates a step design version was not found by the given identifier.
	ErrDesignVersionNotFound = errors.New("design version not found")

	// ErrSolutionNotFound indicates a solution card was not found by the given identifier.
	ErrSolutionNotFound = errors.New("solution not found")

	// ErrDuplicateVersionNumber indicates the version number is already taken
	// within its session or node scope.
	ErrDuplicateVersionNumber = errors.New("version number already exists")

	// ErrDuplicateLaneName indicates the lane name is already taken within the version.
	ErrDuplicateLaneName = errors.New("lane name already exists")
)

// VersionError wraps version-related errors with additional context.
type VersionError struct {
	Op        string // Operation being performed (e.g., "GetByID", "CreateWithGraph", "Delete")
	VersionID string // Version ID if applicable
	SessionID string // Session ID if applicable
	Err       error  // Underlying error
	Message   string // Additional context message
}

func (e *VersionError) Error() string {
	target := e.VersionID
	if e.SessionID != "" {
		target = fmt.Sprintf("session %s", e.SessionID)
	}

	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for version %s: %s (%v)", e.Op, target, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for version %s: %v", e.Op, target, e.Err)
}

func (e *VersionError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for version errors.
func (e *VersionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewVersionError creates a new version error with context.
func NewVersionError(op, versionID string, err error) *VersionError {
	return &VersionError{
		Op:        op,
		VersionID: versionID,
		Err:       err,
	}
}

// NewSessionError creates a new version error for session-scoped operations.
func NewSessionError(op, sessionID string, err error) *VersionError {
	return &VersionError{
		Op:        op,
		SessionID: sessionID,
		Err:       err,
	}
}

// NodeError wraps node-related errors with additional context.
type NodeError struct {
	Op        string // Operation being performed
	VersionID string // Version ID
	NodeID    string // Node ID
	Err       error  // Underlying error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s operation failed for node %s in version %s: %v", e.Op, e.NodeID, e.VersionID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func (e *NodeError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewNodeError creates a new node error with context.
func NewNodeError(op, versionID, nodeID string, err error) *NodeError {
	return &NodeError{
		Op:        op,
		VersionID: versionID,
		NodeID:    nodeID,
		Err:       err,
	}
}

// DesignError wraps step-design-related errors with additional context.
type DesignError struct {
	Op              string // Operation being performed
	NodeID          string // Node ID
	DesignVersionID string // Design version ID
	Err             error  // Underlying error
}

func (e *DesignError) Error() string {
	return fmt.Sprintf("%s operation failed for design version %s of node %s: %v", e.Op, e.DesignVersionID, e.NodeID, e.Err)
}

func (e *DesignError) Unwrap() error {
	return e.Err
}

func (e *DesignError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDesignError creates a new design error with context.
func NewDesignError(op, nodeID, designVersionID string, err error) *DesignError {
	return &DesignError{
		Op:              op,
		NodeID:          nodeID,
		DesignVersionID: designVersionID,
		Err:             err,
	}
}

// IsVersionNotFound checks if an error indicates a future-state version was not found.
func IsVersionNotFound(err error) bool {
	return errors.Is(err, ErrVersionNotFound)
}

// IsNodeNotFound checks if an error indicates a node was not found.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsDesignVersionNotFound checks if an error indicates a design version was not found.
func IsDesignVersionNotFound(err error) bool {
	return errors.Is(err, ErrDesignVersionNotFound)
}

// IsDuplicateVersionNumber checks if an error indicates a version number collision.
func IsDuplicateVersionNumber(err error) bool {
	return errors.Is(err, ErrDuplicateVersionNumber)
}

// IsDuplicateLaneName checks if an error indicates a lane name collision.
func IsDuplicateLaneName(err error) bool {
	return errors.Is(err, ErrDuplicateLaneName)
}
