package file

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence"
)

// SolutionRepository stores solution cards as JSON documents.
type SolutionRepository struct {
	store *docStore[models.SolutionCard]
}

// NewSolutionRepository creates a new file-based solution repository.
func NewSolutionRepository(root string) *SolutionRepository {
	return &SolutionRepository{store: newDocStore[models.SolutionCard](root, "solutions")}
}

// Save creates or replaces a solution card.
func (sr *SolutionRepository) Save(_ context.Context, solution *models.SolutionCard) error {
	if solution.StepDesignStatus == "" {
		solution.StepDesignStatus = models.StepDesignStatusStrategyOnly
	}

	now := time.Now().UTC()
	if solution.CreatedAt.IsZero() {
		solution.CreatedAt = now
	}

	solution.UpdatedAt = now

	err := sr.store.put(solution.ID, solution)
	if err != nil {
		return fmt.Errorf("failed to save solution %s: %w", solution.ID, err)
	}

	return nil
}

// GetByID retrieves a solution card by its id, or nil when none exists.
func (sr *SolutionRepository) GetByID(_ context.Context, id string) (*models.SolutionCard, error) {
	return sr.store.get(id)
}

// List returns every solution card, newest first.
func (sr *SolutionRepository) List(_ context.Context) ([]*models.SolutionCard, error) {
	solutions, err := sr.store.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}

	sort.Slice(solutions, func(i, j int) bool {
		return solutions[i].CreatedAt.After(solutions[j].CreatedAt)
	})

	return solutions, nil
}

// UpdateStatus sets the solution's step design status.
func (sr *SolutionRepository) UpdateStatus(ctx context.Context, id string, status models.StepDesignStatus) error {
	solution, err := sr.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to update solution %s status: %w", id, err)
	}

	if solution == nil {
		return fmt.Errorf("update solution %s status: %w", id, persistence.ErrSolutionNotFound)
	}

	solution.StepDesignStatus = status
	solution.UpdatedAt = time.Now().UTC()

	err = sr.store.put(solution.ID, solution)
	if err != nil {
		return fmt.Errorf("failed to update solution %s status: %w", id, err)
	}

	return nil
}
