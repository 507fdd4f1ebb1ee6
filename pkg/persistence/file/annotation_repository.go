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

// AnnotationRepository stores annotations as JSON documents.
type AnnotationRepository struct {
	store *docStore[models.Annotation]
}

// NewAnnotationRepository creates a new file-based annotation repository.
func NewAnnotationRepository(root string) *AnnotationRepository {
	return &AnnotationRepository{store: newDocStore[models.Annotation](root, "annotations")}
}

// Create persists a new annotation.
func (ar *AnnotationRepository) Create(_ context.Context, annotation *models.Annotation) error {
	if annotation.ID == "" {
		annotation.ID = uuid.New().String()
	}

	if annotation.Kind == "" {
		annotation.Kind = models.AnnotationKindComment
	}

	now := time.Now().UTC()
	if annotation.CreatedAt.IsZero() {
		annotation.CreatedAt = now
	}

	annotation.UpdatedAt = now

	err := ar.store.put(annotation.ID, annotation)
	if err != nil {
		return fmt.Errorf("failed to create annotation %s: %w", annotation.ID, err)
	}

	return nil
}

// GetByID retrieves an annotation by its id, or nil when none exists.
func (ar *AnnotationRepository) GetByID(_ context.Context, id string) (*models.Annotation, error) {
	return ar.store.get(id)
}

// ListByVersion returns the version's annotations in creation order.
func (ar *AnnotationRepository) ListByVersion(_ context.Context, versionID string) ([]*models.Annotation, error) {
	all, err := ar.store.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}

	annotations := make([]*models.Annotation, 0, len(all))

	for _, annotation := range all {
		if annotation.VersionID == versionID {
			annotations = append(annotations, annotation)
		}
	}

	sort.Slice(annotations, func(i, j int) bool {
		if !annotations[i].CreatedAt.Equal(annotations[j].CreatedAt) {
			return annotations[i].CreatedAt.Before(annotations[j].CreatedAt)
		}

		return annotations[i].ID < annotations[j].ID
	})

	return annotations, nil
}

// Update rewrites an annotation document.
func (ar *AnnotationRepository) Update(ctx context.Context, annotation *models.Annotation) error {
	existing, err := ar.GetByID(ctx, annotation.ID)
	if err != nil {
		return fmt.Errorf("failed to update annotation %s: %w", annotation.ID, err)
	}

	if existing == nil {
		return fmt.Errorf("update annotation %s: %w", annotation.ID, persistence.ErrAnnotationNotFound)
	}

	annotation.UpdatedAt = time.Now().UTC()

	err = ar.store.put(annotation.ID, annotation)
	if err != nil {
		return fmt.Errorf("failed to update annotation %s: %w", annotation.ID, err)
	}

	return nil
}

// Delete removes an annotation document.
func (ar *AnnotationRepository) Delete(ctx context.Context, id string) error {
	existing, err := ar.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete annotation %s: %w", id, err)
	}

	if existing == nil {
		return fmt.Errorf("delete annotation %s: %w", id, persistence.ErrAnnotationNotFound)
	}

	return ar.store.remove(id)
}

// DetachNode clears the node anchor on every annotation referencing the node.
func (ar *AnnotationRepository) DetachNode(_ context.Context, nodeID string) error {
	all, err := ar.store.list()
	if err != nil {
		return fmt.Errorf("failed to detach annotations from node %s: %w", nodeID, err)
	}

	for _, annotation := range all {
		if annotation.NodeID == nil || *annotation.NodeID != nodeID {
			continue
		}

		annotation.NodeID = nil
		annotation.UpdatedAt = time.Now().UTC()

		if err := ar.store.put(annotation.ID, annotation); err != nil {
			return fmt.Errorf("failed to detach annotations from node %s: %w", nodeID, err)
		}
	}

	return nil
}
