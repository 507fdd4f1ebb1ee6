// Package testutil provides test data builders for graph and design fixtures.
package testutil

import (
	"github.com/google/uuid"

	"github.com/leanworks/futurestate/pkg/models"
)

// CreateTestVersion creates a draft version with default values that can be
// overridden.
func CreateTestVersion(overrides ...func(*models.FutureStateVersion)) *models.FutureStateVersion {
	version := &models.FutureStateVersion{
		ID:        uuid.New().String(),
		SessionID: "session-test",
		Version:   1,
		Name:      "Test Version",
		Status:    models.VersionStatusDraft,
		CreatedBy: "test-user",
	}

	for _, override := range overrides {
		override(version)
	}

	return version
}

// WithSession sets the owning session.
func WithSession(sessionID string) func(*models.FutureStateVersion) {
	return func(v *models.FutureStateVersion) {
		v.SessionID = sessionID
	}
}

// WithVersionNumber sets the version number.
func WithVersionNumber(number int) func(*models.FutureStateVersion) {
	return func(v *models.FutureStateVersion) {
		v.Version = number
	}
}

// WithLocked marks the version locked.
func WithLocked() func(*models.FutureStateVersion) {
	return func(v *models.FutureStateVersion) {
		v.IsLocked = true
	}
}

// CreateTestNode creates a node with default values that can be overridden.
func CreateTestNode(versionID string, overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:               uuid.New().String(),
		VersionID:        versionID,
		Name:             "Test Node",
		Lane:             "Operations",
		Type:             "step",
		PositionX:        100,
		PositionY:        200,
		StepDesignStatus: models.StepDesignStatusStrategyOnly,
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithName sets the node name.
func WithName(name string) func(*models.Node) {
	return func(n *models.Node) {
		n.Name = name
	}
}

// WithLane sets the node's lane name.
func WithLane(lane string) func(*models.Node) {
	return func(n *models.Node) {
		n.Lane = lane
	}
}

// WithPosition sets the node position.
func WithPosition(x, y int) func(*models.Node) {
	return func(n *models.Node) {
		n.PositionX = x
		n.PositionY = y
	}
}

// WithLinkedSolution links the node to a solution card.
func WithLinkedSolution(solutionID string) func(*models.Node) {
	return func(n *models.Node) {
		n.LinkedSolutionID = &solutionID
	}
}

// WithStepDesignStatus sets the node's step-design status.
func WithStepDesignStatus(status models.StepDesignStatus) func(*models.Node) {
	return func(n *models.Node) {
		n.StepDesignStatus = status
	}
}

// CreateTestSolution creates a solution card with default values that can be
// overridden.
func CreateTestSolution(overrides ...func(*models.SolutionCard)) *models.SolutionCard {
	solution := &models.SolutionCard{
		ID:               uuid.New().String(),
		SessionID:        "session-test",
		Title:            "Test Solution",
		Summary:          "A solution for testing",
		StepDesignStatus: models.StepDesignStatusStrategyOnly,
	}

	for _, override := range overrides {
		override(solution)
	}

	return solution
}

// WithSolutionSession sets the solution's session.
func WithSolutionSession(sessionID string) func(*models.SolutionCard) {
	return func(s *models.SolutionCard) {
		s.SessionID = sessionID
	}
}

// WithSolutionStatus sets the solution's step-design status.
func WithSolutionStatus(status models.StepDesignStatus) func(*models.SolutionCard) {
	return func(s *models.SolutionCard) {
		s.StepDesignStatus = status
	}
}
