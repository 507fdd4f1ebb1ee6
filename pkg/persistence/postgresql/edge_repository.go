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

// EdgeRepository handles edge database operations.
type EdgeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEdgeRepository creates a new edge repository.
func NewEdgeRepository(db *sql.DB, logger *slog.Logger) *EdgeRepository {
	return &EdgeRepository{db: db, logger: logger}
}

// Create inserts an edge.
func (r *EdgeRepository) Create(ctx context.Context, edge *models.Edge) error {
	if edge.ID == "" {
		edge.ID = uuid.New().String()
	}

	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO future_state_edges (id, version_id, from_node_id, to_node_id, label, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		edge.ID,
		edge.VersionID,
		edge.FromNodeID,
		edge.ToNodeID,
		edge.Label,
		edge.OrderIndex,
		edge.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save edge: %w", err)
	}

	return nil
}

// GetByID returns an edge by its ID, or nil when it does not exist.
func (r *EdgeRepository) GetByID(ctx context.Context, id string) (*models.Edge, error) {
	query := `
		SELECT id, version_id, from_node_id, to_node_id, label, order_index, created_at
		FROM future_state_edges
		WHERE id = $1
	`

	var edge models.Edge

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&edge.ID,
		&edge.VersionID,
		&edge.FromNodeID,
		&edge.ToNodeID,
		&edge.Label,
		&edge.OrderIndex,
		&edge.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan edge: %w", err)
	}

	return &edge, nil
}

// ListByVersion returns all edges of a version ordered by order index.
func (r *EdgeRepository) ListByVersion(ctx context.Context, versionID string) ([]*models.Edge, error) {
	query := `
		SELECT id, version_id, from_node_id, to_node_id, label, order_index, created_at
		FROM future_state_edges
		WHERE version_id = $1
		ORDER BY order_index, created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	edges := make([]*models.Edge, 0)

	for rows.Next() {
		var edge models.Edge

		err := rows.Scan(
			&edge.ID,
			&edge.VersionID,
			&edge.FromNodeID,
			&edge.ToNodeID,
			&edge.Label,
			&edge.OrderIndex,
			&edge.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}

		edges = append(edges, &edge)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return edges, nil
}

// Delete removes an edge.
func (r *EdgeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM future_state_edges WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete edge: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete edge %s: %w", id, persistence.ErrEdgeNotFound)
	}

	return nil
}

// DeleteByNode removes every edge that starts or ends at the node.
func (r *EdgeRepository) DeleteByNode(ctx context.Context, nodeID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM future_state_edges WHERE from_node_id = $1 OR to_node_id = $1", nodeID)
	if err != nil {
		return fmt.Errorf("failed to delete edges by node: %w", err)
	}

	return nil
}
