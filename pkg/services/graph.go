package services

import (
	"context"
	"log/slog"

	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence"
)

// GraphService mutates the nodes, edges, lanes, and annotations of one version.
// Every mutation is rejected while the owning version is locked; reads are
// never blocked.
type GraphService struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

// NewGraphService creates a new graph service.
func NewGraphService(persistence persistence.Persistence, logger *slog.Logger) *GraphService {
	return &GraphService{
		persistence: persistence,
		logger:      logger,
	}
}

// mutableVersion loads a version and rejects the mutation when it is locked.
func (s *GraphService) mutableVersion(ctx context.Context, op, versionID string) (*models.FutureStateVersion, error) {
	version, err := s.persistence.VersionRepository().GetByID(ctx, versionID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if version == nil {
		return nil, NewNotFoundError(op, "version", versionID)
	}

	if version.IsLocked {
		return nil, NewLockedError(op, versionID)
	}

	return version, nil
}

// GetGraph loads a version with all of its nodes, edges, lanes, and annotations.
func (s *GraphService) GetGraph(ctx context.Context, versionID string) (*models.VersionGraph, error) {
	graph, err := s.persistence.VersionRepository().GetGraph(ctx, versionID)
	if err != nil {
		return nil, NewInternalError("GetGraph", err)
	}

	if graph == nil {
		return nil, NewNotFoundError("GetGraph", "version", versionID)
	}

	return graph, nil
}

// GetNode loads a single node.
func (s *GraphService) GetNode(ctx context.Context, nodeID string) (*models.Node, error) {
	node, err := s.persistence.NodeRepository().GetByID(ctx, nodeID)
	if err != nil {
		return nil, NewInternalError("GetNode", err)
	}

	if node == nil {
		return nil, NewNotFoundError("GetNode", "node", nodeID)
	}

	return node, nil
}

// GetLane loads a single lane.
func (s *GraphService) GetLane(ctx context.Context, laneID string) (*models.Lane, error) {
	lane, err := s.persistence.LaneRepository().GetByID(ctx, laneID)
	if err != nil {
		return nil, NewInternalError("GetLane", err)
	}

	if lane == nil {
		return nil, NewNotFoundError("GetLane", "lane", laneID)
	}

	return lane, nil
}

// CreateNode adds a node to a version.
func (s *GraphService) CreateNode(ctx context.Context, node *models.Node) (*models.Node, error) {
	const op = "CreateNode"

	if node.VersionID == "" {
		return nil, NewValidationError(op, "version_id is required")
	}

	if node.Name == "" {
		return nil, NewValidationError(op, "name is required")
	}

	if _, err := s.mutableVersion(ctx, op, node.VersionID); err != nil {
		return nil, err
	}

	if node.StepDesignStatus == "" {
		node.StepDesignStatus = models.StepDesignStatusStrategyOnly
	}

	if err := s.persistence.NodeRepository().Create(ctx, node); err != nil {
		return nil, NewInternalError(op, err)
	}

	return node, nil
}

// UpdateNode rewrites a node's editable fields. The design lifecycle fields
// (active design version and step design status) only move through the design
// service, so they are carried over from the stored node.
func (s *GraphService) UpdateNode(ctx context.Context, node *models.Node) (*models.Node, error) {
	const op = "UpdateNode"

	existing, err := s.persistence.NodeRepository().GetByID(ctx, node.ID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if existing == nil {
		return nil, NewNotFoundError(op, "node", node.ID)
	}

	if _, err := s.mutableVersion(ctx, op, existing.VersionID); err != nil {
		return nil, err
	}

	if node.Name == "" {
		return nil, NewValidationError(op, "name is required")
	}

	existing.Name = node.Name
	existing.Description = node.Description
	existing.Lane = node.Lane
	existing.Type = node.Type
	existing.CycleTimeMins = node.CycleTimeMins
	existing.LeadTimeMins = node.LeadTimeMins
	existing.PositionX = node.PositionX
	existing.PositionY = node.PositionY
	existing.Action = node.Action
	existing.SourceStepID = node.SourceStepID
	existing.LinkedSolutionID = node.LinkedSolutionID

	if err := s.persistence.NodeRepository().Update(ctx, existing); err != nil {
		return nil, NewInternalError(op, err)
	}

	return existing, nil
}

// DeleteNode removes a node together with its incident edges and clears the
// anchors of annotations pointing at it. Step contexts and design versions
// keyed to the node are left in place.
func (s *GraphService) DeleteNode(ctx context.Context, nodeID string) error {
	const op = "DeleteNode"

	node, err := s.persistence.NodeRepository().GetByID(ctx, nodeID)
	if err != nil {
		return NewInternalError(op, err)
	}

	if node == nil {
		return NewNotFoundError(op, "node", nodeID)
	}

	if _, err := s.mutableVersion(ctx, op, node.VersionID); err != nil {
		return err
	}

	if err := s.persistence.EdgeRepository().DeleteByNode(ctx, nodeID); err != nil {
		return NewInternalError(op, err)
	}

	if err := s.persistence.AnnotationRepository().DetachNode(ctx, nodeID); err != nil {
		return NewInternalError(op, err)
	}

	if err := s.persistence.NodeRepository().Delete(ctx, nodeID); err != nil {
		return NewInternalError(op, err)
	}

	return nil
}

// CreateEdge adds a directed edge. Both endpoints must be nodes of the edge's
// version.
func (s *GraphService) CreateEdge(ctx context.Context, edge *models.Edge) (*models.Edge, error) {
	const op = "CreateEdge"

	if edge.VersionID == "" || edge.FromNodeID == "" || edge.ToNodeID == "" {
		return nil, NewValidationError(op, "version_id, from_node_id, and to_node_id are required")
	}

	if _, err := s.mutableVersion(ctx, op, edge.VersionID); err != nil {
		return nil, err
	}

	for _, nodeID := range []string{edge.FromNodeID, edge.ToNodeID} {
		node, err := s.persistence.NodeRepository().GetByID(ctx, nodeID)
		if err != nil {
			return nil, NewInternalError(op, err)
		}

		if node == nil || node.VersionID != edge.VersionID {
			return nil, NewValidationError(op, "edge endpoints must be nodes of the same version")
		}
	}

	if err := s.persistence.EdgeRepository().Create(ctx, edge); err != nil {
		return nil, NewInternalError(op, err)
	}

	return edge, nil
}

// DeleteEdge removes an edge.
func (s *GraphService) DeleteEdge(ctx context.Context, edgeID string) error {
	const op = "DeleteEdge"

	edge, err := s.persistence.EdgeRepository().GetByID(ctx, edgeID)
	if err != nil {
		return NewInternalError(op, err)
	}

	if edge == nil {
		return NewNotFoundError(op, "edge", edgeID)
	}

	if _, err := s.mutableVersion(ctx, op, edge.VersionID); err != nil {
		return err
	}

	if err := s.persistence.EdgeRepository().Delete(ctx, edgeID); err != nil {
		return NewInternalError(op, err)
	}

	return nil
}

// CreateLane adds a swimlane. Names are unique within the version; the order
// index is assigned after the version's current last lane.
func (s *GraphService) CreateLane(ctx context.Context, lane *models.Lane) (*models.Lane, error) {
	const op = "CreateLane"

	if lane.VersionID == "" {
		return nil, NewValidationError(op, "version_id is required")
	}

	if lane.Name == "" {
		return nil, NewValidationError(op, "name is required")
	}

	if _, err := s.mutableVersion(ctx, op, lane.VersionID); err != nil {
		return nil, err
	}

	existing, err := s.persistence.LaneRepository().GetByName(ctx, lane.VersionID, lane.Name)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if existing != nil {
		return nil, NewConflictError(op, "lane name already exists in this version", persistence.ErrDuplicateLaneName)
	}

	maxOrder, err := s.persistence.LaneRepository().MaxOrderIndex(ctx, lane.VersionID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	lane.OrderIndex = maxOrder + 1

	if err := s.persistence.LaneRepository().Create(ctx, lane); err != nil {
		if persistence.IsDuplicateLaneName(err) {
			return nil, NewConflictError(op, "lane name already exists in this version", err)
		}

		return nil, NewInternalError(op, err)
	}

	return lane, nil
}

// RenameLane changes a lane's name and cascades the new name to every node of
// the version that referenced the old one. Returns the lane and how many nodes
// were rewritten.
func (s *GraphService) RenameLane(ctx context.Context, laneID, newName string) (*models.Lane, int, error) {
	const op = "RenameLane"

	if newName == "" {
		return nil, 0, NewValidationError(op, "name is required")
	}

	lane, err := s.persistence.LaneRepository().GetByID(ctx, laneID)
	if err != nil {
		return nil, 0, NewInternalError(op, err)
	}

	if lane == nil {
		return nil, 0, NewNotFoundError(op, "lane", laneID)
	}

	if _, err := s.mutableVersion(ctx, op, lane.VersionID); err != nil {
		return nil, 0, err
	}

	if lane.Name == newName {
		return lane, 0, nil
	}

	conflicting, err := s.persistence.LaneRepository().GetByName(ctx, lane.VersionID, newName)
	if err != nil {
		return nil, 0, NewInternalError(op, err)
	}

	if conflicting != nil {
		return nil, 0, NewConflictError(op, "lane name already exists in this version", persistence.ErrDuplicateLaneName)
	}

	oldName := lane.Name
	lane.Name = newName

	if err := s.persistence.LaneRepository().Update(ctx, lane); err != nil {
		return nil, 0, NewInternalError(op, err)
	}

	renamed, err := s.persistence.NodeRepository().RenameLane(ctx, lane.VersionID, oldName, newName)
	if err != nil {
		return nil, 0, NewInternalError(op, err)
	}

	s.logger.InfoContext(ctx, "Renamed lane",
		"lane_id", laneID, "old_name", oldName, "new_name", newName, "nodes_renamed", renamed)

	return lane, renamed, nil
}

// UpdateLane rewrites a lane's color and order index. Renames go through
// RenameLane so the node cascade cannot be skipped.
func (s *GraphService) UpdateLane(ctx context.Context, lane *models.Lane) (*models.Lane, error) {
	const op = "UpdateLane"

	existing, err := s.persistence.LaneRepository().GetByID(ctx, lane.ID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if existing == nil {
		return nil, NewNotFoundError(op, "lane", lane.ID)
	}

	if _, err := s.mutableVersion(ctx, op, existing.VersionID); err != nil {
		return nil, err
	}

	existing.Color = lane.Color
	existing.OrderIndex = lane.OrderIndex

	if err := s.persistence.LaneRepository().Update(ctx, existing); err != nil {
		return nil, NewInternalError(op, err)
	}

	return existing, nil
}

// DeleteLane removes a lane. The lane must have no nodes left in it.
func (s *GraphService) DeleteLane(ctx context.Context, laneID string) error {
	const op = "DeleteLane"

	lane, err := s.persistence.LaneRepository().GetByID(ctx, laneID)
	if err != nil {
		return NewInternalError(op, err)
	}

	if lane == nil {
		return NewNotFoundError(op, "lane", laneID)
	}

	if _, err := s.mutableVersion(ctx, op, lane.VersionID); err != nil {
		return err
	}

	count, err := s.persistence.NodeRepository().CountByLane(ctx, lane.VersionID, lane.Name)
	if err != nil {
		return NewInternalError(op, err)
	}

	if count > 0 {
		return NewNotEmptyError(op, lane.Name, count)
	}

	if err := s.persistence.LaneRepository().Delete(ctx, laneID); err != nil {
		return NewInternalError(op, err)
	}

	return nil
}

// CreateAnnotation adds a comment or flag to a version, optionally anchored to
// one of its nodes.
func (s *GraphService) CreateAnnotation(ctx context.Context, annotation *models.Annotation) (*models.Annotation, error) {
	const op = "CreateAnnotation"

	if annotation.VersionID == "" {
		return nil, NewValidationError(op, "version_id is required")
	}

	if annotation.Body == "" {
		return nil, NewValidationError(op, "body is required")
	}

	if _, err := s.mutableVersion(ctx, op, annotation.VersionID); err != nil {
		return nil, err
	}

	if err := s.validateAnchor(ctx, op, annotation); err != nil {
		return nil, err
	}

	if annotation.Kind == "" {
		annotation.Kind = models.AnnotationKindComment
	}

	if err := s.persistence.AnnotationRepository().Create(ctx, annotation); err != nil {
		return nil, NewInternalError(op, err)
	}

	return annotation, nil
}

// UpdateAnnotation rewrites an annotation's editable fields.
func (s *GraphService) UpdateAnnotation(ctx context.Context, annotation *models.Annotation) (*models.Annotation, error) {
	const op = "UpdateAnnotation"

	existing, err := s.persistence.AnnotationRepository().GetByID(ctx, annotation.ID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if existing == nil {
		return nil, NewNotFoundError(op, "annotation", annotation.ID)
	}

	if _, err := s.mutableVersion(ctx, op, existing.VersionID); err != nil {
		return nil, err
	}

	if annotation.Body == "" {
		return nil, NewValidationError(op, "body is required")
	}

	annotation.VersionID = existing.VersionID

	if err := s.validateAnchor(ctx, op, annotation); err != nil {
		return nil, err
	}

	existing.Body = annotation.Body
	existing.NodeID = annotation.NodeID
	existing.PositionX = annotation.PositionX
	existing.PositionY = annotation.PositionY

	if annotation.Kind != "" {
		existing.Kind = annotation.Kind
	}

	if err := s.persistence.AnnotationRepository().Update(ctx, existing); err != nil {
		return nil, NewInternalError(op, err)
	}

	return existing, nil
}

// DeleteAnnotation removes an annotation.
func (s *GraphService) DeleteAnnotation(ctx context.Context, annotationID string) error {
	const op = "DeleteAnnotation"

	annotation, err := s.persistence.AnnotationRepository().GetByID(ctx, annotationID)
	if err != nil {
		return NewInternalError(op, err)
	}

	if annotation == nil {
		return NewNotFoundError(op, "annotation", annotationID)
	}

	if _, err := s.mutableVersion(ctx, op, annotation.VersionID); err != nil {
		return err
	}

	if err := s.persistence.AnnotationRepository().Delete(ctx, annotationID); err != nil {
		return NewInternalError(op, err)
	}

	return nil
}

// validateAnchor checks that an annotation's node anchor, when set, points at a
// node of the annotation's version.
func (s *GraphService) validateAnchor(ctx context.Context, op string, annotation *models.Annotation) error {
	if annotation.NodeID == nil || *annotation.NodeID == "" {
		return nil
	}

	node, err := s.persistence.NodeRepository().GetByID(ctx, *annotation.NodeID)
	if err != nil {
		return NewInternalError(op, err)
	}

	if node == nil || node.VersionID != annotation.VersionID {
		return NewValidationError(op, "annotation anchor must be a node of the same version")
	}

	return nil
}
