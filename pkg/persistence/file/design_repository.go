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

// DesignRepository stores step design versions, their options, and assumptions
// as JSON documents.
type DesignRepository struct {
	versions    *docStore[models.StepDesignVersion]
	options     *docStore[models.StepDesignOption]
	assumptions *docStore[models.DesignAssumption]
}

// NewDesignRepository creates a new file-based design repository.
func NewDesignRepository(root string) *DesignRepository {
	return &DesignRepository{
		versions:    newDocStore[models.StepDesignVersion](root, "design_versions"),
		options:     newDocStore[models.StepDesignOption](root, "design_options"),
		assumptions: newDocStore[models.DesignAssumption](root, "design_assumptions"),
	}
}

// CreateVersionBatch persists a design version with its options and
// assumptions. Options and assumptions are written first and the version
// document last, so a version that exists on disk always carries its full
// option set.
func (dr *DesignRepository) CreateVersionBatch(ctx context.Context, version *models.StepDesignVersion, options []*models.StepDesignOption, assumptions []*models.DesignAssumption) error {
	if version.ID == "" {
		version.ID = uuid.New().String()
	}

	if version.Status == "" {
		version.Status = models.DesignVersionStatusDraft
	}

	now := time.Now().UTC()
	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}

	version.UpdatedAt = now

	taken, err := dr.versionNumberTaken(ctx, version.NodeID, version.Version)
	if err != nil {
		return persistence.NewDesignError("CreateVersionBatch", version.NodeID, version.ID, err)
	}

	if taken {
		return persistence.NewDesignError("CreateVersionBatch", version.NodeID, version.ID, persistence.ErrDuplicateVersionNumber)
	}

	for _, option := range options {
		if option.ID == "" {
			option.ID = uuid.New().String()
		}

		option.DesignVersionID = version.ID

		if option.CreatedAt.IsZero() {
			option.CreatedAt = now
		}

		if err := dr.options.put(option.ID, option); err != nil {
			return persistence.NewDesignError("CreateVersionBatch", version.NodeID, version.ID, err)
		}
	}

	for _, assumption := range assumptions {
		if assumption.ID == "" {
			assumption.ID = uuid.New().String()
		}

		if assumption.CreatedAt.IsZero() {
			assumption.CreatedAt = now
		}

		if err := dr.assumptions.put(assumption.ID, assumption); err != nil {
			return persistence.NewDesignError("CreateVersionBatch", version.NodeID, version.ID, err)
		}
	}

	err = dr.versions.put(version.ID, version)
	if err != nil {
		return persistence.NewDesignError("CreateVersionBatch", version.NodeID, version.ID, err)
	}

	return nil
}

// GetVersion retrieves a design version by its id, or nil when none exists.
func (dr *DesignRepository) GetVersion(_ context.Context, id string) (*models.StepDesignVersion, error) {
	return dr.versions.get(id)
}

// ListVersionsByNode returns the node's design versions ordered by version
// number descending.
func (dr *DesignRepository) ListVersionsByNode(_ context.Context, nodeID string) ([]*models.StepDesignVersion, error) {
	all, err := dr.versions.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list design versions for node %s: %w", nodeID, err)
	}

	versions := make([]*models.StepDesignVersion, 0, len(all))

	for _, version := range all {
		if version.NodeID == nodeID {
			versions = append(versions, version)
		}
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version > versions[j].Version
	})

	return versions, nil
}

// UpdateVersion rewrites a design version document.
func (dr *DesignRepository) UpdateVersion(ctx context.Context, version *models.StepDesignVersion) error {
	existing, err := dr.GetVersion(ctx, version.ID)
	if err != nil {
		return persistence.NewDesignError("UpdateVersion", version.NodeID, version.ID, err)
	}

	if existing == nil {
		return persistence.NewDesignError("UpdateVersion", version.NodeID, version.ID, persistence.ErrDesignVersionNotFound)
	}

	version.UpdatedAt = time.Now().UTC()

	err = dr.versions.put(version.ID, version)
	if err != nil {
		return persistence.NewDesignError("UpdateVersion", version.NodeID, version.ID, err)
	}

	return nil
}

// MaxVersionNumber returns the highest design version number for the node, or 0
// when the node has none.
func (dr *DesignRepository) MaxVersionNumber(ctx context.Context, nodeID string) (int, error) {
	versions, err := dr.ListVersionsByNode(ctx, nodeID)
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

// GetAcceptedVersion returns the node's accepted design version, or nil when
// none is accepted. At most one exists at any time.
func (dr *DesignRepository) GetAcceptedVersion(ctx context.Context, nodeID string) (*models.StepDesignVersion, error) {
	versions, err := dr.ListVersionsByNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	for _, version := range versions {
		if version.Status == models.DesignVersionStatusAccepted {
			return version, nil
		}
	}

	return nil, nil
}

// GetOption retrieves an option by its id, or nil when none exists.
func (dr *DesignRepository) GetOption(_ context.Context, id string) (*models.StepDesignOption, error) {
	return dr.options.get(id)
}

// ListOptionsByVersion returns the design version's options in creation order.
func (dr *DesignRepository) ListOptionsByVersion(_ context.Context, designVersionID string) ([]*models.StepDesignOption, error) {
	all, err := dr.options.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list options for design version %s: %w", designVersionID, err)
	}

	options := make([]*models.StepDesignOption, 0, len(all))

	for _, option := range all {
		if option.DesignVersionID == designVersionID {
			options = append(options, option)
		}
	}

	sort.Slice(options, func(i, j int) bool {
		if !options[i].CreatedAt.Equal(options[j].CreatedAt) {
			return options[i].CreatedAt.Before(options[j].CreatedAt)
		}

		return options[i].ID < options[j].ID
	})

	return options, nil
}

// ListAssumptionsByOption returns the option's assumptions in creation order.
func (dr *DesignRepository) ListAssumptionsByOption(_ context.Context, optionID string) ([]*models.DesignAssumption, error) {
	all, err := dr.assumptions.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list assumptions for option %s: %w", optionID, err)
	}

	assumptions := make([]*models.DesignAssumption, 0, len(all))

	for _, assumption := range all {
		if assumption.OptionID == optionID {
			assumptions = append(assumptions, assumption)
		}
	}

	sort.Slice(assumptions, func(i, j int) bool {
		if !assumptions[i].CreatedAt.Equal(assumptions[j].CreatedAt) {
			return assumptions[i].CreatedAt.Before(assumptions[j].CreatedAt)
		}

		return assumptions[i].ID < assumptions[j].ID
	})

	return assumptions, nil
}

func (dr *DesignRepository) versionNumberTaken(ctx context.Context, nodeID string, number int) (bool, error) {
	versions, err := dr.ListVersionsByNode(ctx, nodeID)
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
