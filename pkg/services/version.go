package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/leanworks/futurestate/pkg/eventbus"
	"github.com/leanworks/futurestate/pkg/events"
	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/otelhelper"
	"github.com/leanworks/futurestate/pkg/persistence"
)

// VersionService manages the lifecycle of future-state versions: branching a
// new version off an existing one, locking, publishing, and deletion.
type VersionService struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

// NewVersionService creates a new version service.
func NewVersionService(persistence persistence.Persistence, eventBus eventbus.EventBus, logger *slog.Logger) *VersionService {
	return &VersionService{
		persistence: persistence,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// GetVersion loads a single version.
func (s *VersionService) GetVersion(ctx context.Context, versionID string) (*models.FutureStateVersion, error) {
	version, err := s.persistence.VersionRepository().GetByID(ctx, versionID)
	if err != nil {
		return nil, NewInternalError("GetVersion", err)
	}

	if version == nil {
		return nil, NewNotFoundError("GetVersion", "version", versionID)
	}

	return version, nil
}

// ListVersions lists a session's versions, newest version number first.
func (s *VersionService) ListVersions(ctx context.Context, sessionID string) ([]*models.FutureStateVersion, error) {
	const op = "ListVersions"

	if sessionID == "" {
		return nil, NewValidationError(op, "session_id is required")
	}

	versions, err := s.persistence.VersionRepository().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	return versions, nil
}

// CreateInitialVersion creates version 1 of a session with an empty graph.
// Fails with a conflict when the session already has versions.
func (s *VersionService) CreateInitialVersion(ctx context.Context, sessionID, name, createdBy string) (*models.FutureStateVersion, error) {
	const op = "CreateInitialVersion"

	if sessionID == "" {
		return nil, NewValidationError(op, "session_id is required")
	}

	if name == "" {
		return nil, NewValidationError(op, "name is required")
	}

	count, err := s.persistence.VersionRepository().CountBySession(ctx, sessionID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if count > 0 {
		return nil, NewConflictError(op, "session already has versions, branch from one instead", nil)
	}

	version := &models.FutureStateVersion{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Version:   1,
		Name:      name,
		Status:    models.VersionStatusDraft,
		CreatedBy: createdBy,
	}

	if err := s.persistence.VersionRepository().Create(ctx, version); err != nil {
		if persistence.IsDuplicateVersionNumber(err) {
			return nil, NewConflictError(op, "version number already taken for this session", err)
		}

		return nil, NewInternalError(op, err)
	}

	s.publishVersionCreated(ctx, version, createdBy)

	return version, nil
}

// CreateVersion branches a new draft version off an existing one, cloning its
// whole graph. Every cloned row gets a fresh id; edges and annotation anchors
// are remapped onto the cloned nodes. Node design lifecycle fields survive the
// clone so accepted step designs stay visible on the new branch.
func (s *VersionService) CreateVersion(ctx context.Context, sessionID, sourceVersionID, name, description, createdBy string) (*models.VersionGraph, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "version.service create_version",
		attribute.String(otelhelper.SessionIDKey, sessionID),
		attribute.String(otelhelper.VersionIDKey, sourceVersionID),
	)
	defer span.End()

	clone, err := s.createVersion(ctx, sessionID, sourceVersionID, name, description, createdBy)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.Int(otelhelper.VersionNumberKey, clone.Version.Version))

	return clone, nil
}

func (s *VersionService) createVersion(ctx context.Context, sessionID, sourceVersionID, name, description, createdBy string) (*models.VersionGraph, error) {
	const op = "CreateVersion"

	if name == "" {
		return nil, NewValidationError(op, "name is required")
	}

	source, err := s.persistence.VersionRepository().GetGraph(ctx, sourceVersionID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if source == nil {
		return nil, NewNotFoundError(op, "version", sourceVersionID)
	}

	if sessionID != "" && source.Version.SessionID != sessionID {
		return nil, NewValidationError(op, "source version belongs to a different session")
	}

	maxVersion, err := s.persistence.VersionRepository().MaxVersionNumber(ctx, source.Version.SessionID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	clone := cloneGraph(source, maxVersion+1, name, description, createdBy)

	if err := s.persistence.VersionRepository().CreateWithGraph(ctx, clone); err != nil {
		if persistence.IsDuplicateVersionNumber(err) {
			return nil, NewConflictError(op, "version number already taken for this session", err)
		}

		return nil, NewCloneError(op, err)
	}

	s.logger.InfoContext(ctx, "Created version",
		"version_id", clone.Version.ID,
		"session_id", clone.Version.SessionID,
		"version", clone.Version.Version,
		"parent_version_id", sourceVersionID,
		"nodes", len(clone.Nodes),
		"edges", len(clone.Edges))

	s.publishVersionCreated(ctx, clone.Version, createdBy)

	return clone, nil
}

// UpdateVersion applies a partial update. Locked versions only accept an
// update that unlocks them. Publishing stamps PublishedAt, reverting to draft
// clears it.
func (s *VersionService) UpdateVersion(ctx context.Context, versionID string, updates *models.VersionUpdate) (*models.FutureStateVersion, error) {
	const op = "UpdateVersion"

	version, err := s.persistence.VersionRepository().GetByID(ctx, versionID)
	if err != nil {
		return nil, NewInternalError(op, err)
	}

	if version == nil {
		return nil, NewNotFoundError(op, "version", versionID)
	}

	if version.IsLocked && !updates.Unlocks() {
		return nil, NewLockedError(op, versionID)
	}

	if updates.Name != nil {
		if *updates.Name == "" {
			return nil, NewValidationError(op, "name must not be empty")
		}

		version.Name = *updates.Name
	}

	if updates.Description != nil {
		version.Description = *updates.Description
	}

	if updates.Status != nil {
		switch *updates.Status {
		case models.VersionStatusPublished:
			if version.Status != models.VersionStatusPublished {
				now := time.Now().UTC()
				version.PublishedAt = &now
			}

			version.Status = models.VersionStatusPublished
		case models.VersionStatusDraft:
			version.Status = models.VersionStatusDraft
			version.PublishedAt = nil
		default:
			return nil, NewValidationError(op, "status must be draft or published")
		}
	}

	if updates.IsLocked != nil {
		version.IsLocked = *updates.IsLocked
	}

	if err := s.persistence.VersionRepository().Update(ctx, version); err != nil {
		return nil, NewInternalError(op, err)
	}

	event := events.VersionUpdated{
		BaseEvent: events.NewBaseEvent(events.VersionUpdatedEvent, version.SessionID),
		VersionID: version.ID,
		Status:    version.Status,
		IsLocked:  version.IsLocked,
	}

	if err := s.eventBus.Publish(ctx, version.SessionID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish version updated event", "error", err, "version_id", version.ID)
	}

	return version, nil
}

// DeleteVersion removes a version and everything it owns. Locked or published
// versions, and the last remaining version of a session, are protected.
func (s *VersionService) DeleteVersion(ctx context.Context, versionID string) error {
	const op = "DeleteVersion"

	version, err := s.persistence.VersionRepository().GetByID(ctx, versionID)
	if err != nil {
		return NewInternalError(op, err)
	}

	if version == nil {
		return NewNotFoundError(op, "version", versionID)
	}

	if version.IsLocked {
		return NewLockedError(op, versionID)
	}

	if version.Status == models.VersionStatusPublished {
		return NewPublishedError(op, versionID)
	}

	count, err := s.persistence.VersionRepository().CountBySession(ctx, version.SessionID)
	if err != nil {
		return NewInternalError(op, err)
	}

	if count <= 1 {
		return NewSoleVersionError(op, version.SessionID)
	}

	if err := s.persistence.VersionRepository().Delete(ctx, versionID); err != nil {
		return NewInternalError(op, err)
	}

	s.logger.InfoContext(ctx, "Deleted version",
		"version_id", versionID, "session_id", version.SessionID, "version", version.Version)

	event := events.VersionDeleted{
		BaseEvent: events.NewBaseEvent(events.VersionDeletedEvent, version.SessionID),
		VersionID: version.ID,
		Version:   version.Version,
	}

	if err := s.eventBus.Publish(ctx, version.SessionID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish version deleted event", "error", err, "version_id", version.ID)
	}

	return nil
}

func (s *VersionService) publishVersionCreated(ctx context.Context, version *models.FutureStateVersion, createdBy string) {
	event := events.VersionCreated{
		BaseEvent:       events.NewBaseEvent(events.VersionCreatedEvent, version.SessionID),
		VersionID:       version.ID,
		ParentVersionID: version.ParentVersionID,
		Version:         version.Version,
		Name:            version.Name,
	}
	event.UserID = createdBy

	if err := s.eventBus.Publish(ctx, version.SessionID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish version created event", "error", err, "version_id", version.ID)
	}
}

// cloneGraph builds a structure-preserving copy of a version graph. Node ids
// are remapped through one map so edges and annotation anchors keep pointing at
// the cloned rows. Edges whose endpoints did not survive the remap are dropped,
// dangling annotation anchors are cleared.
func cloneGraph(source *models.VersionGraph, versionNumber int, name, description, createdBy string) *models.VersionGraph {
	newVersion := &models.FutureStateVersion{
		ID:              uuid.New().String(),
		SessionID:       source.Version.SessionID,
		ParentVersionID: &source.Version.ID,
		Version:         versionNumber,
		Name:            name,
		Description:     description,
		Status:          models.VersionStatusDraft,
		CreatedBy:       createdBy,
	}

	idMap := make(map[string]string, len(source.Nodes))
	nodes := make([]*models.Node, 0, len(source.Nodes))

	for _, node := range source.Nodes {
		cloned := &models.Node{
			ID:                        uuid.New().String(),
			VersionID:                 newVersion.ID,
			SourceStepID:              copyPtr(node.SourceStepID),
			Name:                      node.Name,
			Description:               node.Description,
			Lane:                      node.Lane,
			Type:                      node.Type,
			CycleTimeMins:             copyPtr(node.CycleTimeMins),
			LeadTimeMins:              copyPtr(node.LeadTimeMins),
			PositionX:                 node.PositionX,
			PositionY:                 node.PositionY,
			Action:                    node.Action,
			LinkedSolutionID:          copyPtr(node.LinkedSolutionID),
			ActiveStepDesignVersionID: copyPtr(node.ActiveStepDesignVersionID),
			StepDesignStatus:          node.StepDesignStatus,
		}

		idMap[node.ID] = cloned.ID
		nodes = append(nodes, cloned)
	}

	edges := make([]*models.Edge, 0, len(source.Edges))

	for _, edge := range source.Edges {
		fromID, fromOK := idMap[edge.FromNodeID]
		toID, toOK := idMap[edge.ToNodeID]

		if !fromOK || !toOK {
			continue
		}

		edges = append(edges, &models.Edge{
			ID:         uuid.New().String(),
			VersionID:  newVersion.ID,
			FromNodeID: fromID,
			ToNodeID:   toID,
			Label:      edge.Label,
			OrderIndex: edge.OrderIndex,
		})
	}

	lanes := make([]*models.Lane, 0, len(source.Lanes))

	for _, lane := range source.Lanes {
		lanes = append(lanes, &models.Lane{
			ID:         uuid.New().String(),
			VersionID:  newVersion.ID,
			Name:       lane.Name,
			Color:      lane.Color,
			OrderIndex: lane.OrderIndex,
		})
	}

	annotations := make([]*models.Annotation, 0, len(source.Annotations))

	for _, annotation := range source.Annotations {
		var nodeID *string

		if annotation.NodeID != nil {
			if mapped, ok := idMap[*annotation.NodeID]; ok {
				nodeID = &mapped
			}
		}

		annotations = append(annotations, &models.Annotation{
			ID:        uuid.New().String(),
			VersionID: newVersion.ID,
			NodeID:    nodeID,
			Kind:      annotation.Kind,
			Body:      annotation.Body,
			PositionX: annotation.PositionX,
			PositionY: annotation.PositionY,
			CreatedBy: annotation.CreatedBy,
		})
	}

	return &models.VersionGraph{
		Version:     newVersion,
		Nodes:       nodes,
		Edges:       edges,
		Lanes:       lanes,
		Annotations: annotations,
	}
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	copied := *p

	return &copied
}
