package file

import (
	"context"
	"fmt"
	"time"

	"github.com/leanworks/futurestate/pkg/models"
)

// ProcessStepRepository stores as-is process steps as JSON documents.
type ProcessStepRepository struct {
	store *docStore[models.ProcessStep]
}

// NewProcessStepRepository creates a new file-based process step repository.
func NewProcessStepRepository(root string) *ProcessStepRepository {
	return &ProcessStepRepository{store: newDocStore[models.ProcessStep](root, "process_steps")}
}

// Save creates or replaces a process step.
func (pr *ProcessStepRepository) Save(_ context.Context, step *models.ProcessStep) error {
	if step.CreatedAt.IsZero() {
		step.CreatedAt = time.Now().UTC()
	}

	err := pr.store.put(step.ID, step)
	if err != nil {
		return fmt.Errorf("failed to save process step %s: %w", step.ID, err)
	}

	return nil
}

// GetByID retrieves a process step by its id, or nil when none exists.
func (pr *ProcessStepRepository) GetByID(_ context.Context, id string) (*models.ProcessStep, error) {
	return pr.store.get(id)
}
