package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence"
)

// LaneRepository handles lane database operations.
type LaneRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLaneRepository creates a new lane repository.
func NewLaneRepository(db *sql.DB, logger *slog.Logger) *LaneRepository {
	return &LaneRepository{db: db, logger: logger}
}

// Create inserts a lane. A duplicate name within the version surfaces as
// ErrDuplicateLaneName.
func (r *LaneRepository) Create(ctx context.Context, lane *models.Lane) error {
	now := time.Now().UTC()

	if lane.ID == "" {
		lane.ID = uuid.New().String()
	}

	if lane.CreatedAt.IsZero() {
		lane.CreatedAt = now
	}

	lane.UpdatedAt = now

	query := `
		INSERT INTO future_state_lanes (id, version_id, name, color, order_index, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		lane.ID,
		lane.VersionID,
		lane.Name,
		lane.Color,
		lane.OrderIndex,
		lane.CreatedAt,
		lane.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save lane: %w", mapConstraintError(err))
	}

	return nil
}

// GetByID returns a lane by its ID, or nil when it does not exist.
func (r *LaneRepository) GetByID(ctx context.Context, id string) (*models.Lane, error) {
	query := `
		SELECT id, version_id, name, color, order_index, created_at, updated_at
		FROM future_state_lanes
		WHERE id = $1
	`

	lane, err := r.scanLane(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan lane: %w", err)
	}

	return lane, nil
}

// GetByName returns the lane with the given name in a version, or nil when
// none exists.
func (r *LaneRepository) GetByName(ctx context.Context, versionID, name string) (*models.Lane, error) {
	query := `
		SELECT id, version_id, name, color, order_index, created_at, updated_at
		FROM future_state_lanes
		WHERE version_id = $1 AND name = $2
	`

	lane, err := r.scanLane(r.db.QueryRowContext(ctx, query, versionID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan lane: %w", err)
	}

	return lane, nil
}

// ListByVersion returns all lanes of a version in display order.
func (r *LaneRepository) ListByVersion(ctx context.Context, versionID string) ([]*models.Lane, error) {
	query := `
		SELECT id, version_id, name, color, order_index, created_at, updated_at
		FROM future_state_lanes
		WHERE version_id = $1
		ORDER BY order_index, name
	`

	rows, err := r.db.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lanes: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	lanes := make([]*models.Lane, 0)

	for rows.Next() {
		lane, err := r.scanLane(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lane: %w", err)
		}

		lanes = append(lanes, lane)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating lanes: %w", err)
	}

	return lanes, nil
}

// Update rewrites the mutable fields of a lane. A name collision within the
// version surfaces as ErrDuplicateLaneName.
func (r *LaneRepository) Update(ctx context.Context, lane *models.Lane) error {
	lane.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE future_state_lanes
		SET name = $2, color = $3, order_index = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		lane.ID,
		lane.Name,
		lane.Color,
		lane.OrderIndex,
		lane.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update lane: %w", mapConstraintError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("update lane %s: %w", lane.ID, persistence.ErrLaneNotFound)
	}

	return nil
}

// Delete removes a lane.
func (r *LaneRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM future_state_lanes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete lane: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete lane %s: %w", id, persistence.ErrLaneNotFound)
	}

	return nil
}

// MaxOrderIndex returns the highest order index among a version's lanes, or -1
// when the version has none.
func (r *LaneRepository) MaxOrderIndex(ctx context.Context, versionID string) (int, error) {
	var maxIndex int

	query := "SELECT COALESCE(MAX(order_index), -1) FROM future_state_lanes WHERE version_id = $1"

	err := r.db.QueryRowContext(ctx, query, versionID).Scan(&maxIndex)
	if err != nil {
		return 0, fmt.Errorf("failed to query max lane order index: %w", err)
	}

	return maxIndex, nil
}

func (r *LaneRepository) scanLane(scanner interface {
	Scan(dest ...any) error
}) (*models.Lane, error) {
	var lane models.Lane

	err := scanner.Scan(
		&lane.ID,
		&lane.VersionID,
		&lane.Name,
		&lane.Color,
		&lane.OrderIndex,
		&lane.CreatedAt,
		&lane.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &lane, nil
}
