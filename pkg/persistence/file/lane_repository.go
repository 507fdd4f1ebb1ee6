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

// LaneRepository stores swimlanes as JSON documents.
type LaneRepository struct {
	store *docStore[models.Lane]
}

// NewLaneRepository creates a new file-based lane repository.
func NewLaneRepository(root string) *LaneRepository {
	return &LaneRepository{store: newDocStore[models.Lane](root, "lanes")}
}

// Create persists a new lane. Lane names are unique within a version.
func (lr *LaneRepository) Create(ctx context.Context, lane *models.Lane) error {
	if lane.ID == "" {
		lane.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if lane.CreatedAt.IsZero() {
		lane.CreatedAt = now
	}

	lane.UpdatedAt = now

	existing, err := lr.GetByName(ctx, lane.VersionID, lane.Name)
	if err != nil {
		return fmt.Errorf("failed to create lane %s: %w", lane.ID, err)
	}

	if existing != nil && existing.ID != lane.ID {
		return fmt.Errorf("create lane %q: %w", lane.Name, persistence.ErrDuplicateLaneName)
	}

	err = lr.store.put(lane.ID, lane)
	if err != nil {
		return fmt.Errorf("failed to create lane %s: %w", lane.ID, err)
	}

	return nil
}

// GetByID retrieves a lane by its id, or nil when none exists.
func (lr *LaneRepository) GetByID(_ context.Context, id string) (*models.Lane, error) {
	return lr.store.get(id)
}

// GetByName retrieves the version's lane with the given name, or nil when the
// version has none.
func (lr *LaneRepository) GetByName(ctx context.Context, versionID, name string) (*models.Lane, error) {
	lanes, err := lr.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	for _, lane := range lanes {
		if lane.Name == name {
			return lane, nil
		}
	}

	return nil, nil
}

// ListByVersion returns the version's lanes ordered by order index, then name.
func (lr *LaneRepository) ListByVersion(_ context.Context, versionID string) ([]*models.Lane, error) {
	all, err := lr.store.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list lanes: %w", err)
	}

	lanes := make([]*models.Lane, 0, len(all))

	for _, lane := range all {
		if lane.VersionID == versionID {
			lanes = append(lanes, lane)
		}
	}

	sort.Slice(lanes, func(i, j int) bool {
		if lanes[i].OrderIndex != lanes[j].OrderIndex {
			return lanes[i].OrderIndex < lanes[j].OrderIndex
		}

		return lanes[i].Name < lanes[j].Name
	})

	return lanes, nil
}

// Update rewrites a lane document, keeping names unique within the version.
func (lr *LaneRepository) Update(ctx context.Context, lane *models.Lane) error {
	existing, err := lr.GetByID(ctx, lane.ID)
	if err != nil {
		return fmt.Errorf("failed to update lane %s: %w", lane.ID, err)
	}

	if existing == nil {
		return fmt.Errorf("update lane %s: %w", lane.ID, persistence.ErrLaneNotFound)
	}

	conflicting, err := lr.GetByName(ctx, lane.VersionID, lane.Name)
	if err != nil {
		return fmt.Errorf("failed to update lane %s: %w", lane.ID, err)
	}

	if conflicting != nil && conflicting.ID != lane.ID {
		return fmt.Errorf("update lane %q: %w", lane.Name, persistence.ErrDuplicateLaneName)
	}

	lane.UpdatedAt = time.Now().UTC()

	err = lr.store.put(lane.ID, lane)
	if err != nil {
		return fmt.Errorf("failed to update lane %s: %w", lane.ID, err)
	}

	return nil
}

// Delete removes a lane document.
func (lr *LaneRepository) Delete(ctx context.Context, id string) error {
	existing, err := lr.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete lane %s: %w", id, err)
	}

	if existing == nil {
		return fmt.Errorf("delete lane %s: %w", id, persistence.ErrLaneNotFound)
	}

	return lr.store.remove(id)
}

// MaxOrderIndex returns the highest order index among the version's lanes, or
// -1 when the version has none.
func (lr *LaneRepository) MaxOrderIndex(ctx context.Context, versionID string) (int, error) {
	lanes, err := lr.ListByVersion(ctx, versionID)
	if err != nil {
		return 0, err
	}

	max := -1

	for _, lane := range lanes {
		if lane.OrderIndex > max {
			max = lane.OrderIndex
		}
	}

	return max, nil
}
