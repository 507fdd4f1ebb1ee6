package services

import (
	"context"
	"log/slog"

	"github.com/leanworks/futurestate/pkg/eventbus"
	"github.com/leanworks/futurestate/pkg/events"
	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence"
)

// StatusService derives step-design status. Node status follows the node's
// design versions, solution status follows the linked nodes. Status is never
// set directly: everything funnels through these recomputations so the same
// rules apply on live updates and reconciler sweeps.
type StatusService struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

// NewStatusService creates a new status service.
func NewStatusService(persistence persistence.Persistence, eventBus eventbus.EventBus, logger *slog.Logger) *StatusService {
	return &StatusService{
		persistence: persistence,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// RecomputeNodeStatus derives a node's step-design status from its design
// versions: no versions means strategy only, an accepted latest version means
// complete, anything else means design work is still needed. The node is only
// written when the status actually changes; a change rolls up to the linked
// solution.
func (s *StatusService) RecomputeNodeStatus(ctx context.Context, nodeID string) (models.StepDesignStatus, error) {
	const op = "RecomputeNodeStatus"

	node, err := s.persistence.NodeRepository().GetByID(ctx, nodeID)
	if err != nil {
		return "", NewInternalError(op, err)
	}

	if node == nil {
		return "", NewNotFoundError(op, "node", nodeID)
	}

	versions, err := s.persistence.DesignRepository().ListVersionsByNode(ctx, nodeID)
	if err != nil {
		return "", NewInternalError(op, err)
	}

	status := deriveNodeStatus(versions)

	if status == node.StepDesignStatus {
		return status, nil
	}

	oldStatus := node.StepDesignStatus
	node.StepDesignStatus = status

	if err := s.persistence.NodeRepository().Update(ctx, node); err != nil {
		return "", NewInternalError(op, err)
	}

	s.logger.InfoContext(ctx, "Node step design status changed",
		"node_id", nodeID, "old_status", oldStatus, "new_status", status)

	s.publishNodeStatusChanged(ctx, node, oldStatus, status)

	if node.HasLinkedSolution() {
		if _, err := s.RecomputeSolutionStatus(ctx, *node.LinkedSolutionID); err != nil {
			// Cards sync in from elsewhere; a dangling link must not fail the
			// node update that already happened.
			if !IsNotFound(err) {
				return "", err
			}

			s.logger.WarnContext(ctx, "Linked solution missing during rollup",
				"node_id", nodeID, "solution_id", *node.LinkedSolutionID)
		}
	}

	return status, nil
}

// RecomputeSolutionStatus derives a solution card's step-design status from the
// nodes linked to it. All linked nodes complete makes the solution complete,
// any started design work makes it needs_step_design, and no design work at all
// leaves it strategy only.
func (s *StatusService) RecomputeSolutionStatus(ctx context.Context, solutionID string) (models.StepDesignStatus, error) {
	const op = "RecomputeSolutionStatus"

	solution, err := s.persistence.SolutionRepository().GetByID(ctx, solutionID)
	if err != nil {
		return "", NewInternalError(op, err)
	}

	if solution == nil {
		return "", NewNotFoundError(op, "solution", solutionID)
	}

	nodes, err := s.persistence.NodeRepository().ListBySolution(ctx, solutionID)
	if err != nil {
		return "", NewInternalError(op, err)
	}

	status := deriveSolutionStatus(nodes)

	if status == solution.StepDesignStatus {
		return status, nil
	}

	oldStatus := solution.StepDesignStatus

	if err := s.persistence.SolutionRepository().UpdateStatus(ctx, solutionID, status); err != nil {
		return "", NewInternalError(op, err)
	}

	s.logger.InfoContext(ctx, "Solution step design status changed",
		"solution_id", solutionID, "old_status", oldStatus, "new_status", status)

	event := events.SolutionStatusChanged{
		BaseEvent:  events.NewBaseEvent(events.SolutionStatusChangedEvent, solution.SessionID),
		SolutionID: solutionID,
		OldStatus:  oldStatus,
		NewStatus:  status,
	}

	if err := s.eventBus.Publish(ctx, solutionID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish solution status changed event",
			"error", err, "solution_id", solutionID)
	}

	return status, nil
}

// GetSolution loads a single solution card.
func (s *StatusService) GetSolution(ctx context.Context, solutionID string) (*models.SolutionCard, error) {
	const op = "GetSolution"

	solution, err := s.persistence.SolutionRepository().GetByID(ctx, solutionID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if solution == nil {
		return nil, NewNotFoundError(op, "solution", solutionID)
	}

	return solution, nil
}

// ListSolutions loads every known solution card.
func (s *StatusService) ListSolutions(ctx context.Context) ([]*models.SolutionCard, error) {
	solutions, err := s.persistence.SolutionRepository().List(ctx)
	if err != nil {
		return nil, NewInternalError("ListSolutions", err)
	}

	return solutions, nil
}

// SweepSolutions recomputes every solution card and the nodes linked to it,
// repairing any drift left by missed events or out-of-band writes. Returns how
// many solutions changed status. A failing solution is logged and skipped so
// one bad card cannot stall the sweep.
func (s *StatusService) SweepSolutions(ctx context.Context) (int, error) {
	const op = "SweepSolutions"

	solutions, err := s.persistence.SolutionRepository().List(ctx)
	if err != nil {
		return 0, NewInternalError(op, err)
	}

	changed := 0

	for _, solution := range solutions {
		nodes, err := s.persistence.NodeRepository().ListBySolution(ctx, solution.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to list solution nodes during sweep",
				"error", err, "solution_id", solution.ID)

			continue
		}

		for _, node := range nodes {
			if _, err := s.RecomputeNodeStatus(ctx, node.ID); err != nil {
				s.logger.ErrorContext(ctx, "Failed to recompute node status during sweep",
					"error", err, "node_id", node.ID, "solution_id", solution.ID)
			}
		}

		before := solution.StepDesignStatus

		after, err := s.RecomputeSolutionStatus(ctx, solution.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to recompute solution status during sweep",
				"error", err, "solution_id", solution.ID)

			continue
		}

		if after != before {
			changed++
		}
	}

	return changed, nil
}

func (s *StatusService) publishNodeStatusChanged(ctx context.Context, node *models.Node, oldStatus, newStatus models.StepDesignStatus) {
	sessionID := ""

	version, err := s.persistence.VersionRepository().GetByID(ctx, node.VersionID)
	if err == nil && version != nil {
		sessionID = version.SessionID
	}

	event := events.NodeStatusChanged{
		BaseEvent: events.NewBaseEvent(events.NodeStatusChangedEvent, sessionID),
		NodeID:    node.ID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}

	if err := s.eventBus.Publish(ctx, node.ID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish node status changed event",
			"error", err, "node_id", node.ID)
	}
}

// deriveNodeStatus maps a node's design versions, newest first, onto the status
// ladder. Only an accepted latest version counts as complete: re-accepting an
// older version while a newer iteration exists leaves the node needing design.
func deriveNodeStatus(versions []*models.StepDesignVersion) models.StepDesignStatus {
	if len(versions) == 0 {
		return models.StepDesignStatusStrategyOnly
	}

	if versions[0].Status == models.DesignVersionStatusAccepted {
		return models.StepDesignStatusComplete
	}

	return models.StepDesignStatusNeeded
}

func deriveSolutionStatus(nodes []*models.Node) models.StepDesignStatus {
	if len(nodes) == 0 {
		return models.StepDesignStatusStrategyOnly
	}

	complete := 0
	started := 0

	for _, node := range nodes {
		switch node.StepDesignStatus {
		case models.StepDesignStatusComplete:
			complete++
			started++
		case models.StepDesignStatusNeeded:
			started++
		case models.StepDesignStatusStrategyOnly:
		}
	}

	if complete == len(nodes) {
		return models.StepDesignStatusComplete
	}

	if started > 0 {
		return models.StepDesignStatusNeeded
	}

	return models.StepDesignStatusStrategyOnly
}
