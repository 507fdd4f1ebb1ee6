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

// NodeRepository handles node database operations.
type NodeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository.
func NewNodeRepository(db *sql.DB, logger *slog.Logger) *NodeRepository {
	return &NodeRepository{db: db, logger: logger}
}

const nodeColumns = `
			id
		  , version_id
		  , source_step_id
		  , name
		  , description
		  , lane
		  , node_type
		  , cycle_time_mins
		  , lead_time_mins
		  , position_x
		  , position_y
		  , action
		  , linked_solution_id
		  , active_step_design_version_id
		  , step_design_status
		  , created_at
		  , updated_at`

// Create inserts a node.
func (r *NodeRepository) Create(ctx context.Context, node *models.Node) error {
	now := time.Now().UTC()

	if node.ID == "" {
		node.ID = uuid.New().String()
	}

	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}

	node.UpdatedAt = now

	query := `
		INSERT INTO future_state_nodes (id, version_id, source_step_id, name, description, lane, node_type, cycle_time_mins, lead_time_mins, position_x, position_y, action, linked_solution_id, active_step_design_version_id, step_design_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(ctx, query,
		node.ID,
		node.VersionID,
		node.SourceStepID,
		node.Name,
		node.Description,
		node.Lane,
		node.Type,
		node.CycleTimeMins,
		node.LeadTimeMins,
		node.PositionX,
		node.PositionY,
		node.Action,
		node.LinkedSolutionID,
		node.ActiveStepDesignVersionID,
		node.StepDesignStatus,
		node.CreatedAt,
		node.UpdatedAt,
	)
	if err != nil {
		return persistence.NewNodeError("Create", node.VersionID, node.ID, err)
	}

	return nil
}

// GetByID returns a node by its ID, or nil when it does not exist.
func (r *NodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := `
		SELECT` + nodeColumns + `
		FROM future_state_nodes
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	node, err := r.scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan node: %w", err)
	}

	return node, nil
}

// ListByVersion returns all nodes of a version in insertion order.
func (r *NodeRepository) ListByVersion(ctx context.Context, versionID string) ([]*models.Node, error) {
	query := `
		SELECT` + nodeColumns + `
		FROM future_state_nodes
		WHERE version_id = $1
		ORDER BY created_at, id
	`

	return r.queryNodes(ctx, query, versionID)
}

// ListBySolution returns all nodes linked to a solution card, across versions.
func (r *NodeRepository) ListBySolution(ctx context.Context, solutionID string) ([]*models.Node, error) {
	query := `
		SELECT` + nodeColumns + `
		FROM future_state_nodes
		WHERE linked_solution_id = $1
		ORDER BY created_at, id
	`

	return r.queryNodes(ctx, query, solutionID)
}

// Update rewrites the mutable fields of a node.
func (r *NodeRepository) Update(ctx context.Context, node *models.Node) error {
	node.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE future_state_nodes
		SET source_step_id = $2, name = $3, description = $4, lane = $5, node_type = $6, cycle_time_mins = $7, lead_time_mins = $8, position_x = $9, position_y = $10, action = $11, linked_solution_id = $12, active_step_design_version_id = $13, step_design_status = $14, updated_at = $15
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		node.ID,
		node.SourceStepID,
		node.Name,
		node.Description,
		node.Lane,
		node.Type,
		node.CycleTimeMins,
		node.LeadTimeMins,
		node.PositionX,
		node.PositionY,
		node.Action,
		node.LinkedSolutionID,
		node.ActiveStepDesignVersionID,
		node.StepDesignStatus,
		node.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update node: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewNodeError("Update", node.VersionID, node.ID, persistence.ErrNodeNotFound)
	}

	return nil
}

// Delete removes a node. Incident edges cascade at the schema level and
// anchored annotations lose their anchor.
func (r *NodeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM future_state_nodes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewNodeError("Delete", "", id, persistence.ErrNodeNotFound)
	}

	return nil
}

// RenameLane rewrites the lane name on every node of the version carrying the
// old name and returns how many nodes changed.
func (r *NodeRepository) RenameLane(ctx context.Context, versionID, oldName, newName string) (int, error) {
	query := `
		UPDATE future_state_nodes
		SET lane = $3, updated_at = $4
		WHERE version_id = $1 AND lane = $2
	`

	result, err := r.db.ExecContext(ctx, query, versionID, oldName, newName, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to rename lane on nodes: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

// CountByLane returns how many nodes of a version reference the lane name.
func (r *NodeRepository) CountByLane(ctx context.Context, versionID, laneName string) (int, error) {
	var count int

	query := "SELECT COUNT(*) FROM future_state_nodes WHERE version_id = $1 AND lane = $2"

	err := r.db.QueryRowContext(ctx, query, versionID, laneName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count nodes by lane: %w", err)
	}

	return count, nil
}

func (r *NodeRepository) queryNodes(ctx context.Context, query string, args ...any) ([]*models.Node, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	nodes := make([]*models.Node, 0)

	for rows.Next() {
		node, err := r.scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}

		nodes = append(nodes, node)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return nodes, nil
}

func (r *NodeRepository) scanNode(scanner interface {
	Scan(dest ...any) error
}) (*models.Node, error) {
	var node models.Node

	err := scanner.Scan(
		&node.ID,
		&node.VersionID,
		&node.SourceStepID,
		&node.Name,
		&node.Description,
		&node.Lane,
		&node.Type,
		&node.CycleTimeMins,
		&node.LeadTimeMins,
		&node.PositionX,
		&node.PositionY,
		&node.Action,
		&node.LinkedSolutionID,
		&node.ActiveStepDesignVersionID,
		&node.StepDesignStatus,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &node, nil
}
