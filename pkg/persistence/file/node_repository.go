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

// NodeRepository stores graph nodes as JSON documents.
type NodeRepository struct {
	store *docStore[models.Node]
}

// NewNodeRepository creates a new file-based node repository.
func NewNodeRepository(root string) *NodeRepository {
	return &NodeRepository{store: newDocStore[models.Node](root, "nodes")}
}

// Create persists a new node.
func (nr *NodeRepository) Create(_ context.Context, node *models.Node) error {
	if node.ID == "" {
		node.ID = uuid.New().String()
	}

	if node.StepDesignStatus == "" {
		node.StepDesignStatus = models.StepDesignStatusStrategyOnly
	}

	now := time.Now().UTC()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}

	node.UpdatedAt = now

	err := nr.store.put(node.ID, node)
	if err != nil {
		return persistence.NewNodeError("Create", node.VersionID, node.ID, err)
	}

	return nil
}

// GetByID retrieves a node by its id, or nil when none exists.
func (nr *NodeRepository) GetByID(_ context.Context, id string) (*models.Node, error) {
	return nr.store.get(id)
}

// ListByVersion returns the version's nodes in creation order.
func (nr *NodeRepository) ListByVersion(_ context.Context, versionID string) ([]*models.Node, error) {
	return nr.listFiltered(func(node *models.Node) bool {
		return node.VersionID == versionID
	})
}

// ListBySolution returns every node linked to the solution, across versions.
func (nr *NodeRepository) ListBySolution(_ context.Context, solutionID string) ([]*models.Node, error) {
	return nr.listFiltered(func(node *models.Node) bool {
		return node.LinkedSolutionID != nil && *node.LinkedSolutionID == solutionID
	})
}

// Update rewrites a node document.
func (nr *NodeRepository) Update(ctx context.Context, node *models.Node) error {
	existing, err := nr.GetByID(ctx, node.ID)
	if err != nil {
		return persistence.NewNodeError("Update", node.VersionID, node.ID, err)
	}

	if existing == nil {
		return persistence.NewNodeError("Update", node.VersionID, node.ID, persistence.ErrNodeNotFound)
	}

	node.UpdatedAt = time.Now().UTC()

	err = nr.store.put(node.ID, node)
	if err != nil {
		return persistence.NewNodeError("Update", node.VersionID, node.ID, err)
	}

	return nil
}

// Delete removes a node document.
func (nr *NodeRepository) Delete(ctx context.Context, id string) error {
	existing, err := nr.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, err)
	}

	if existing == nil {
		return fmt.Errorf("delete node %s: %w", id, persistence.ErrNodeNotFound)
	}

	return nr.store.remove(id)
}

// RenameLane rewrites the lane name on every node of the version that carries
// oldName and returns how many nodes changed.
func (nr *NodeRepository) RenameLane(ctx context.Context, versionID, oldName, newName string) (int, error) {
	nodes, err := nr.ListByVersion(ctx, versionID)
	if err != nil {
		return 0, fmt.Errorf("failed to rename lane %q: %w", oldName, err)
	}

	renamed := 0

	for _, node := range nodes {
		if node.Lane != oldName {
			continue
		}

		node.Lane = newName
		node.UpdatedAt = time.Now().UTC()

		if err := nr.store.put(node.ID, node); err != nil {
			return renamed, fmt.Errorf("failed to rename lane %q: %w", oldName, err)
		}

		renamed++
	}

	return renamed, nil
}

// CountByLane returns how many nodes of the version sit in the lane.
func (nr *NodeRepository) CountByLane(ctx context.Context, versionID, laneName string) (int, error) {
	nodes, err := nr.ListByVersion(ctx, versionID)
	if err != nil {
		return 0, err
	}

	count := 0

	for _, node := range nodes {
		if node.Lane == laneName {
			count++
		}
	}

	return count, nil
}

func (nr *NodeRepository) listFiltered(keep func(*models.Node) bool) ([]*models.Node, error) {
	all, err := nr.store.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	nodes := make([]*models.Node, 0, len(all))

	for _, node := range all {
		if keep(node) {
			nodes = append(nodes, node)
		}
	}

	sort.Slice(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		}

		return nodes[i].ID < nodes[j].ID
	})

	return nodes, nil
}
