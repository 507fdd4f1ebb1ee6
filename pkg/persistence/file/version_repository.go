package file

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence"
)

// VersionRepository stores future-state versions as JSON documents and drives
// graph-wide batches through the sibling repositories.
type VersionRepository struct {
	store          *docStore[models.FutureStateVersion]
	nodeRepo       *NodeRepository
	edgeRepo       *EdgeRepository
	laneRepo       *LaneRepository
	annotationRepo *AnnotationRepository
}

// NewVersionRepository creates a new file-based version repository.
func NewVersionRepository(root string, nodeRepo *NodeRepository, edgeRepo *EdgeRepository, laneRepo *LaneRepository, annotationRepo *AnnotationRepository) *VersionRepository {
	return &VersionRepository{
		store:          newDocStore[models.FutureStateVersion](root, "versions"),
		nodeRepo:       nodeRepo,
		edgeRepo:       edgeRepo,
		laneRepo:       laneRepo,
		annotationRepo: annotationRepo,
	}
}

// Create persists a single version without graph children.
func (vr *VersionRepository) Create(ctx context.Context, version *models.FutureStateVersion) error {
	if version.ID == "" {
		version.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}

	version.UpdatedAt = now

	taken, err := vr.versionNumberTaken(ctx, version.SessionID, version.Version)
	if err != nil {
		return persistence.NewSessionError("Create", version.SessionID, err)
	}

	if taken {
		return persistence.NewSessionError("Create", version.SessionID, persistence.ErrDuplicateVersionNumber)
	}

	err = vr.store.put(version.ID, version)
	if err != nil {
		return persistence.NewSessionError("Create", version.SessionID, err)
	}

	return nil
}

// CreateWithGraph persists a version and its graph children. Children are
// written first and the version document last, so a version that exists on disk
// always has its full graph alongside it.
func (vr *VersionRepository) CreateWithGraph(ctx context.Context, graph *models.VersionGraph) error {
	version := graph.Version

	if version.ID == "" {
		version.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}

	version.UpdatedAt = now

	taken, err := vr.versionNumberTaken(ctx, version.SessionID, version.Version)
	if err != nil {
		return persistence.NewSessionError("CreateWithGraph", version.SessionID, err)
	}

	if taken {
		return persistence.NewSessionError("CreateWithGraph", version.SessionID, persistence.ErrDuplicateVersionNumber)
	}

	for _, lane := range graph.Lanes {
		if err := vr.laneRepo.Create(ctx, lane); err != nil {
			return persistence.NewVersionError("CreateWithGraph", version.ID, err)
		}
	}

	for _, node := range graph.Nodes {
		if err := vr.nodeRepo.Create(ctx, node); err != nil {
			return persistence.NewVersionError("CreateWithGraph", version.ID, err)
		}
	}

	for _, edge := range graph.Edges {
		if err := vr.edgeRepo.Create(ctx, edge); err != nil {
			return persistence.NewVersionError("CreateWithGraph", version.ID, err)
		}
	}

	for _, annotation := range graph.Annotations {
		if err := vr.annotationRepo.Create(ctx, annotation); err != nil {
			return persistence.NewVersionError("CreateWithGraph", version.ID, err)
		}
	}

	err = vr.store.put(version.ID, version)
	if err != nil {
		return persistence.NewVersionError("CreateWithGraph", version.ID, err)
	}

	return nil
}

// GetByID retrieves a version by its id, or nil when none exists.
func (vr *VersionRepository) GetByID(_ context.Context, id string) (*models.FutureStateVersion, error) {
	return vr.store.get(id)
}

// GetGraph loads a version together with all of its graph children.
func (vr *VersionRepository) GetGraph(ctx context.Context, versionID string) (*models.VersionGraph, error) {
	version, err := vr.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if version == nil {
		return nil, nil
	}

	nodes, err := vr.nodeRepo.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, persistence.NewVersionError("GetGraph", versionID, err)
	}

	edges, err := vr.edgeRepo.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, persistence.NewVersionError("GetGraph", versionID, err)
	}

	lanes, err := vr.laneRepo.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, persistence.NewVersionError("GetGraph", versionID, err)
	}

	annotations, err := vr.annotationRepo.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, persistence.NewVersionError("GetGraph", versionID, err)
	}

	return &models.VersionGraph{
		Version:     version,
		Nodes:       nodes,
		Edges:       edges,
		Lanes:       lanes,
		Annotations: annotations,
	}, nil
}

// ListBySession returns the session's versions ordered by version number descending.
func (vr *VersionRepository) ListBySession(_ context.Context, sessionID string) ([]*models.FutureStateVersion, error) {
	all, err := vr.store.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list versions for session %s: %w", sessionID, err)
	}

	versions := make([]*models.FutureStateVersion, 0, len(all))

	for _, version := range all {
		if version.SessionID == sessionID {
			versions = append(versions, version)
		}
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version > versions[j].Version
	})

	return versions, nil
}

// Update rewrites a version document.
func (vr *VersionRepository) Update(ctx context.Context, version *models.FutureStateVersion) error {
	existing, err := vr.GetByID(ctx, version.ID)
	if err != nil {
		return persistence.NewVersionError("Update", version.ID, err)
	}

	if existing == nil {
		return persistence.NewVersionError("Update", version.ID, persistence.ErrVersionNotFound)
	}

	version.UpdatedAt = time.Now().UTC()

	err = vr.store.put(version.ID, version)
	if err != nil {
		return persistence.NewVersionError("Update", version.ID, err)
	}

	return nil
}

// Delete removes a version and everything it owns. The version document goes
// first so readers stop seeing the version before its children disappear.
func (vr *VersionRepository) Delete(ctx context.Context, id string) error {
	existing, err := vr.GetByID(ctx, id)
	if err != nil {
		return persistence.NewVersionError("Delete", id, err)
	}

	if existing == nil {
		return persistence.NewVersionError("Delete", id, persistence.ErrVersionNotFound)
	}

	err = vr.store.remove(id)
	if err != nil {
		return persistence.NewVersionError("Delete", id, err)
	}

	if err := vr.deleteChildren(ctx, id); err != nil {
		return persistence.NewVersionError("Delete", id, err)
	}

	// Lineage pointers on surviving children of this version clear lazily.
	return vr.clearParentPointers(ctx, id)
}

func (vr *VersionRepository) deleteChildren(ctx context.Context, versionID string) error {
	edges, err := vr.edgeRepo.ListByVersion(ctx, versionID)
	if err != nil {
		return err
	}

	for _, edge := range edges {
		if err := vr.edgeRepo.Delete(ctx, edge.ID); err != nil {
			return err
		}
	}

	nodes, err := vr.nodeRepo.ListByVersion(ctx, versionID)
	if err != nil {
		return err
	}

	for _, node := range nodes {
		if err := vr.nodeRepo.Delete(ctx, node.ID); err != nil {
			return err
		}
	}

	lanes, err := vr.laneRepo.ListByVersion(ctx, versionID)
	if err != nil {
		return err
	}

	for _, lane := range lanes {
		if err := vr.laneRepo.Delete(ctx, lane.ID); err != nil {
			return err
		}
	}

	annotations, err := vr.annotationRepo.ListByVersion(ctx, versionID)
	if err != nil {
		return err
	}

	for _, annotation := range annotations {
		if err := vr.annotationRepo.Delete(ctx, annotation.ID); err != nil {
			return err
		}
	}

	return nil
}

func (vr *VersionRepository) clearParentPointers(_ context.Context, deletedID string) error {
	all, err := vr.store.list()
	if err != nil {
		return err
	}

	for _, version := range all {
		if version.ParentVersionID == nil || *version.ParentVersionID != deletedID {
			continue
		}

		version.ParentVersionID = nil
		version.UpdatedAt = time.Now().UTC()

		if err := vr.store.put(version.ID, version); err != nil {
			return err
		}
	}

	return nil
}

// MaxVersionNumber returns the highest version number in the session, or 0 when
// the session has none.
func (vr *VersionRepository) MaxVersionNumber(ctx context.Context, sessionID string) (int, error) {
	versions, err := vr.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	max := 0

	for _, version := range versions {
		if version.Version > max {
			max = version.Version
		}
	}

	return max, nil
}

// CountBySession returns how many versions the session has.
func (vr *VersionRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	versions, err := vr.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	return len(versions), nil
}

func (vr *VersionRepository) versionNumberTaken(ctx context.Context, sessionID string, number int) (bool, error) {
	versions, err := vr.ListBySession(ctx, sessionID)
	if err != nil {
		return false, err
	}

	for _, version := range versions {
		if version.Version == number {
			return true, nil
		}
	}

	return false, nil
}
