package file

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leanworks/futurestate/pkg/models"
)

// StepContextRepository stores the per-node context document as a JSON file
// keyed by node id.
type StepContextRepository struct {
	store *docStore[models.StepContext]
}

// NewStepContextRepository creates a new file-based step context repository.
func NewStepContextRepository(root string) *StepContextRepository {
	return &StepContextRepository{store: newDocStore[models.StepContext](root, "step_contexts")}
}

// GetByNodeID retrieves the node's context document, or nil when the node has
// none yet.
func (sr *StepContextRepository) GetByNodeID(_ context.Context, nodeID string) (*models.StepContext, error) {
	return sr.store.get(nodeID)
}

// Save creates or replaces the node's context document.
func (sr *StepContextRepository) Save(ctx context.Context, stepContext *models.StepContext) error {
	existing, err := sr.GetByNodeID(ctx, stepContext.NodeID)
	if err != nil {
		return fmt.Errorf("failed to save step context for node %s: %w", stepContext.NodeID, err)
	}

	now := time.Now().UTC()

	if existing != nil {
		stepContext.ID = existing.ID
		stepContext.CreatedAt = existing.CreatedAt
	}

	if stepContext.ID == "" {
		stepContext.ID = uuid.New().String()
	}

	if stepContext.CreatedAt.IsZero() {
		stepContext.CreatedAt = now
	}

	stepContext.UpdatedAt = now

	err = sr.store.put(stepContext.NodeID, stepContext)
	if err != nil {
		return fmt.Errorf("failed to save step context for node %s: %w", stepContext.NodeID, err)
	}

	return nil
}
