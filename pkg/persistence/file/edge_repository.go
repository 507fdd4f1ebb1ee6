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

// EdgeRepository stores directed edges as JSON documents.
type EdgeRepository struct {
	store *docStore[models.Edge]
}

// NewEdgeRepository creates a new file-based edge repository.
func NewEdgeRepository(root string) *EdgeRepository {
	return &EdgeRepository{store: newDocStore[models.Edge](root, "edges")}
}

// Create persists a new edge.
func (er *EdgeRepository) Create(_ context.Context, edge *models.Edge) error {
	if edge.ID == "" {
		edge.ID = uuid.New().String()
	}

	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}

	err := er.store.put(edge.ID, edge)
	if err != nil {
		return fmt.Errorf("failed to create edge %s: %w", edge.ID, err)
	}

	return nil
}

// GetByID retrieves an edge by its id, or nil when none exists.
func (er *EdgeRepository) GetByID(_ context.Context, id string) (*models.Edge, error) {
	return er.store.get(id)
}

// ListByVersion returns the version's edges ordered by order index, then creation.
func (er *EdgeRepository) ListByVersion(_ context.Context, versionID string) ([]*models.Edge, error) {
	all, err := er.store.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}

	edges := make([]*models.Edge, 0, len(all))

	for _, edge := range all {
		if edge.VersionID == versionID {
			edges = append(edges, edge)
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].OrderIndex != edges[j].OrderIndex {
			return edges[i].OrderIndex < edges[j].OrderIndex
		}

		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.Before(edges[j].CreatedAt)
		}

		return edges[i].ID < edges[j].ID
	})

	return edges, nil
}

// Delete removes an edge document.
func (er *EdgeRepository) Delete(ctx context.Context, id string) error {
	existing, err := er.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete edge %s: %w", id, err)
	}

	if existing == nil {
		return fmt.Errorf("delete edge %s: %w", id, persistence.ErrEdgeNotFound)
	}

	return er.store.remove(id)
}

// DeleteByNode removes every edge that starts or ends at the node.
func (er *EdgeRepository) DeleteByNode(_ context.Context, nodeID string) error {
	all, err := er.store.list()
	if err != nil {
		return fmt.Errorf("failed to delete edges for node %s: %w", nodeID, err)
	}

	for _, edge := range all {
		if edge.FromNodeID != nodeID && edge.ToNodeID != nodeID {
			continue
		}

		if err := er.store.remove(edge.ID); err != nil {
			return fmt.Errorf("failed to delete edges for node %s: %w", nodeID, err)
		}
	}

	return nil
}
