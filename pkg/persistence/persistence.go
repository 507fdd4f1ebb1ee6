// Package persistence provides the storage abstraction for future-state version
// graphs, step contexts, and step designs.
package persistence

import (
	"context"

	"github.com/leanworks/futurestate/pkg/models"
)

// Persistence exposes one repository per aggregate plus connection lifecycle.
type Persistence interface {
	VersionRepository() VersionRepository
	NodeRepository() NodeRepository
	EdgeRepository() EdgeRepository
	LaneRepository() LaneRepository
	AnnotationRepository() AnnotationRepository
	StepContextRepository() StepContextRepository
	DesignRepository() DesignRepository
	SolutionRepository() SolutionRepository
	ProcessStepRepository() ProcessStepRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// VersionRepository stores future-state versions and whole-graph batches.
// GetByID returns (nil, nil) when no version exists with the given id.
type VersionRepository interface {
	Create(ctx context.Context, version *models.FutureStateVersion) error
	// CreateWithGraph persists a fully remapped clone as one batch. Backends
	// either run it in a single transaction or order writes so the version row
	// lands last; readers must never observe a half-written version.
	CreateWithGraph(ctx context.Context, graph *models.VersionGraph) error
	GetByID(ctx context.Context, id string) (*models.FutureStateVersion, error)
	GetGraph(ctx context.Context, versionID string) (*models.VersionGraph, error)
	// ListBySession returns versions ordered by version number descending.
	ListBySession(ctx context.Context, sessionID string) ([]*models.FutureStateVersion, error)
	Update(ctx context.Context, version *models.FutureStateVersion) error
	// Delete cascades to the version's nodes, edges, lanes, and annotations.
	Delete(ctx context.Context, id string) error
	MaxVersionNumber(ctx context.Context, sessionID string) (int, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
}

// NodeRepository stores graph nodes.
type NodeRepository interface {
	Create(ctx context.Context, node *models.Node) error
	GetByID(ctx context.Context, id string) (*models.Node, error)
	ListByVersion(ctx context.Context, versionID string) ([]*models.Node, error)
	ListBySolution(ctx context.Context, solutionID string) ([]*models.Node, error)
	Update(ctx context.Context, node *models.Node) error
	Delete(ctx context.Context, id string) error
	// RenameLane rewrites the lane name on every node of the version that
	// carries oldName and returns how many nodes changed.
	RenameLane(ctx context.Context, versionID, oldName, newName string) (int, error)
	CountByLane(ctx context.Context, versionID, laneName string) (int, error)
}

// EdgeRepository stores directed edges between nodes of one version.
type EdgeRepository interface {
	Create(ctx context.Context, edge *models.Edge) error
	GetByID(ctx context.Context, id string) (*models.Edge, error)
	ListByVersion(ctx context.Context, versionID string) ([]*models.Edge, error)
	Delete(ctx context.Context, id string) error
	// DeleteByNode removes every edge touching the node, keeping the
	// same-version endpoint invariant intact when a node goes away.
	DeleteByNode(ctx context.Context, nodeID string) error
}

// LaneRepository stores swimlanes. GetByName returns (nil, nil) when the
// version has no lane with that name.
type LaneRepository interface {
	Create(ctx context.Context, lane *models.Lane) error
	GetByID(ctx context.Context, id string) (*models.Lane, error)
	GetByName(ctx context.Context, versionID, name string) (*models.Lane, error)
	ListByVersion(ctx context.Context, versionID string) ([]*models.Lane, error)
	Update(ctx context.Context, lane *models.Lane) error
	Delete(ctx context.Context, id string) error
	MaxOrderIndex(ctx context.Context, versionID string) (int, error)
}

// AnnotationRepository stores version-scoped comments and flags.
type AnnotationRepository interface {
	Create(ctx context.Context, annotation *models.Annotation) error
	GetByID(ctx context.Context, id string) (*models.Annotation, error)
	ListByVersion(ctx context.Context, versionID string) ([]*models.Annotation, error)
	Update(ctx context.Context, annotation *models.Annotation) error
	Delete(ctx context.Context, id string) error
	// DetachNode clears the anchor on annotations referencing the node.
	DetachNode(ctx context.Context, nodeID string) error
}

// StepContextRepository stores the one-per-node context document.
// GetByNodeID returns (nil, nil) when the node has no document yet.
type StepContextRepository interface {
	GetByNodeID(ctx context.Context, nodeID string) (*models.StepContext, error)
	Save(ctx context.Context, stepContext *models.StepContext) error
}

// DesignRepository stores design versions together with their options and
// assumptions.
type DesignRepository interface {
	// CreateVersionBatch persists a design version, its options, and their
	// assumptions as one batch with the same atomicity contract as
	// VersionRepository.CreateWithGraph.
	CreateVersionBatch(ctx context.Context, version *models.StepDesignVersion, options []*models.StepDesignOption, assumptions []*models.DesignAssumption) error
	GetVersion(ctx context.Context, id string) (*models.StepDesignVersion, error)
	// ListVersionsByNode returns versions ordered by version number descending.
	ListVersionsByNode(ctx context.Context, nodeID string) ([]*models.StepDesignVersion, error)
	UpdateVersion(ctx context.Context, version *models.StepDesignVersion) error
	MaxVersionNumber(ctx context.Context, nodeID string) (int, error)
	// GetAcceptedVersion returns (nil, nil) when the node has no accepted
	// version. At most one exists at any time.
	GetAcceptedVersion(ctx context.Context, nodeID string) (*models.StepDesignVersion, error)
	GetOption(ctx context.Context, id string) (*models.StepDesignOption, error)
	ListOptionsByVersion(ctx context.Context, designVersionID string) ([]*models.StepDesignOption, error)
	ListAssumptionsByOption(ctx context.Context, optionID string) ([]*models.DesignAssumption, error)
}

// SolutionRepository stores the solution cards this core recomputes status for.
type SolutionRepository interface {
	Save(ctx context.Context, solution *models.SolutionCard) error
	GetByID(ctx context.Context, id string) (*models.SolutionCard, error)
	List(ctx context.Context) ([]*models.SolutionCard, error)
	UpdateStatus(ctx context.Context, id string, status models.StepDesignStatus) error
}

// ProcessStepRepository stores as-is process steps referenced by nodes.
type ProcessStepRepository interface {
	Save(ctx context.Context, step *models.ProcessStep) error
	GetByID(ctx context.Context, id string) (*models.ProcessStep, error)
}
