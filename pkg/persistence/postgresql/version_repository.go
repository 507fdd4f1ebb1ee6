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

// VersionRepository handles future-state version database operations.
type VersionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository.
func NewVersionRepository(db *sql.DB, logger *slog.Logger) *VersionRepository {
	return &VersionRepository{db: db, logger: logger}
}

const versionColumns = `
			id
		  , session_id
		  , parent_version_id
		  , version
		  , name
		  , description
		  , status
		  , is_locked
		  , created_by
		  , created_at
		  , updated_at
		  , published_at`

// Create inserts a single version row without graph children.
func (r *VersionRepository) Create(ctx context.Context, version *models.FutureStateVersion) error {
	now := time.Now().UTC()

	if version.ID == "" {
		version.ID = uuid.New().String()
	}

	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}

	version.UpdatedAt = now

	query := `
		INSERT INTO future_state_versions (id, session_id, parent_version_id, version, name, description, status, is_locked, created_by, created_at, updated_at, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		version.ID,
		version.SessionID,
		version.ParentVersionID,
		version.Version,
		version.Name,
		version.Description,
		version.Status,
		version.IsLocked,
		version.CreatedBy,
		version.CreatedAt,
		version.UpdatedAt,
		version.PublishedAt,
	)
	if err != nil {
		return persistence.NewSessionError("Create", version.SessionID, mapConstraintError(err))
	}

	return nil
}

// CreateWithGraph inserts a version together with its nodes, edges, lanes, and
// annotations in a single transaction. The version row goes first so the
// children's foreign keys resolve.
func (r *VersionRepository) CreateWithGraph(ctx context.Context, graph *models.VersionGraph) error {
	version := graph.Version

	now := time.Now().UTC()

	if version.ID == "" {
		version.ID = uuid.New().String()
	}

	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}

	version.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	versionQuery := `
		INSERT INTO future_state_versions (id, session_id, parent_version_id, version, name, description, status, is_locked, created_by, created_at, updated_at, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, versionQuery,
		version.ID,
		version.SessionID,
		version.ParentVersionID,
		version.Version,
		version.Name,
		version.Description,
		version.Status,
		version.IsLocked,
		version.CreatedBy,
		version.CreatedAt,
		version.UpdatedAt,
		version.PublishedAt,
	)
	if err != nil {
		return persistence.NewSessionError("CreateWithGraph", version.SessionID, mapConstraintError(err))
	}

	if err = r.saveGraphLanes(ctx, tx, graph); err != nil {
		return persistence.NewVersionError("CreateWithGraph", version.ID, err)
	}

	if err = r.saveGraphNodes(ctx, tx, graph); err != nil {
		return persistence.NewVersionError("CreateWithGraph", version.ID, err)
	}

	if err = r.saveGraphEdges(ctx, tx, graph); err != nil {
		return persistence.NewVersionError("CreateWithGraph", version.ID, err)
	}

	if err = r.saveGraphAnnotations(ctx, tx, graph); err != nil {
		return persistence.NewVersionError("CreateWithGraph", version.ID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID returns a version by its ID, or nil when it does not exist.
func (r *VersionRepository) GetByID(ctx context.Context, id string) (*models.FutureStateVersion, error) {
	query := `
		SELECT` + versionColumns + `
		FROM future_state_versions
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	version, err := r.scanVersionBase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan version: %w", err)
	}

	return version, nil
}

// GetGraph returns a version with all of its graph children, or nil when the
// version does not exist.
func (r *VersionRepository) GetGraph(ctx context.Context, versionID string) (*models.VersionGraph, error) {
	version, err := r.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if version == nil {
		return nil, nil
	}

	graph := &models.VersionGraph{Version: version}

	if err := r.loadGraphChildren(ctx, graph); err != nil {
		return nil, persistence.NewVersionError("GetGraph", versionID, err)
	}

	return graph, nil
}

// ListBySession returns all versions of a session ordered by version number
// descending.
func (r *VersionRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.FutureStateVersion, error) {
	query := `
		SELECT` + versionColumns + `
		FROM future_state_versions
		WHERE session_id = $1
		ORDER BY version DESC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	versions := make([]*models.FutureStateVersion, 0)

	for rows.Next() {
		version, err := r.scanVersionBase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}

		versions = append(versions, version)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating versions: %w", err)
	}

	return versions, nil
}

// Update rewrites the mutable fields of a version row.
func (r *VersionRepository) Update(ctx context.Context, version *models.FutureStateVersion) error {
	version.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE future_state_versions
		SET name = $2, description = $3, status = $4, is_locked = $5, updated_at = $6, published_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		version.ID,
		version.Name,
		version.Description,
		version.Status,
		version.IsLocked,
		version.UpdatedAt,
		version.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update version: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewVersionError("Update", version.ID, persistence.ErrVersionNotFound)
	}

	return nil
}

// Delete removes a version row. Nodes, edges, lanes, and annotations cascade
// at the schema level.
func (r *VersionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM future_state_versions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewVersionError("Delete", id, persistence.ErrVersionNotFound)
	}

	return nil
}

// MaxVersionNumber returns the highest version number in a session, or 0 when
// the session has no versions.
func (r *VersionRepository) MaxVersionNumber(ctx context.Context, sessionID string) (int, error) {
	var maxVersion int

	query := "SELECT COALESCE(MAX(version), 0) FROM future_state_versions WHERE session_id = $1"

	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to query max version number: %w", err)
	}

	return maxVersion, nil
}

// CountBySession returns how many versions a session has.
func (r *VersionRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM future_state_versions WHERE session_id = $1", sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count versions: %w", err)
	}

	return count, nil
}

func (r *VersionRepository) scanVersionBase(scanner interface {
	Scan(dest ...any) error
}) (*models.FutureStateVersion, error) {
	var version models.FutureStateVersion

	err := scanner.Scan(
		&version.ID,
		&version.SessionID,
		&version.ParentVersionID,
		&version.Version,
		&version.Name,
		&version.Description,
		&version.Status,
		&version.IsLocked,
		&version.CreatedBy,
		&version.CreatedAt,
		&version.UpdatedAt,
		&version.PublishedAt,
	)
	if err != nil {
		return nil, err
	}

	return &version, nil
}

func (r *VersionRepository) loadGraphChildren(ctx context.Context, graph *models.VersionGraph) error {
	versionID := graph.Version.ID

	nodesQuery := `
		SELECT id, version_id, source_step_id, name, description, lane, node_type, cycle_time_mins, lead_time_mins, position_x, position_y, action, linked_solution_id, active_step_design_version_id, step_design_status, created_at, updated_at
		FROM future_state_nodes
		WHERE version_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, nodesQuery, versionID)
	if err != nil {
		return fmt.Errorf("failed to query nodes: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	nodes := make([]*models.Node, 0)

	for rows.Next() {
		var node models.Node

		err := rows.Scan(
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
			return fmt.Errorf("failed to scan node: %w", err)
		}

		nodes = append(nodes, &node)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating nodes: %w", err)
	}

	graph.Nodes = nodes

	edgesQuery := `
		SELECT id, version_id, from_node_id, to_node_id, label, order_index, created_at
		FROM future_state_edges
		WHERE version_id = $1
		ORDER BY order_index, created_at, id
	`

	rows, err = r.db.QueryContext(ctx, edgesQuery, versionID)
	if err != nil {
		return fmt.Errorf("failed to query edges: %w", err)
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
			return fmt.Errorf("failed to scan edge: %w", err)
		}

		edges = append(edges, &edge)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating edges: %w", err)
	}

	graph.Edges = edges

	lanesQuery := `
		SELECT id, version_id, name, color, order_index, created_at, updated_at
		FROM future_state_lanes
		WHERE version_id = $1
		ORDER BY order_index, name
	`

	rows, err = r.db.QueryContext(ctx, lanesQuery, versionID)
	if err != nil {
		return fmt.Errorf("failed to query lanes: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	lanes := make([]*models.Lane, 0)

	for rows.Next() {
		var lane models.Lane

		err := rows.Scan(
			&lane.ID,
			&lane.VersionID,
			&lane.Name,
			&lane.Color,
			&lane.OrderIndex,
			&lane.CreatedAt,
			&lane.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan lane: %w", err)
		}

		lanes = append(lanes, &lane)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating lanes: %w", err)
	}

	graph.Lanes = lanes

	annotationsQuery := `
		SELECT id, version_id, node_id, kind, body, position_x, position_y, created_by, created_at, updated_at
		FROM future_state_annotations
		WHERE version_id = $1
		ORDER BY created_at, id
	`

	rows, err = r.db.QueryContext(ctx, annotationsQuery, versionID)
	if err != nil {
		return fmt.Errorf("failed to query annotations: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	annotations := make([]*models.Annotation, 0)

	for rows.Next() {
		var annotation models.Annotation

		err := rows.Scan(
			&annotation.ID,
			&annotation.VersionID,
			&annotation.NodeID,
			&annotation.Kind,
			&annotation.Body,
			&annotation.PositionX,
			&annotation.PositionY,
			&annotation.CreatedBy,
			&annotation.CreatedAt,
			&annotation.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan annotation: %w", err)
		}

		annotations = append(annotations, &annotation)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating annotations: %w", err)
	}

	graph.Annotations = annotations

	return nil
}

// saveGraphLanes inserts the lanes of a cloned graph.
func (r *VersionRepository) saveGraphLanes(ctx context.Context, tx *sql.Tx, graph *models.VersionGraph) error {
	now := time.Now().UTC()

	for _, lane := range graph.Lanes {
		query := `
			INSERT INTO future_state_lanes (id, version_id, name, color, order_index, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err := tx.ExecContext(ctx, query,
			lane.ID,
			graph.Version.ID,
			lane.Name,
			lane.Color,
			lane.OrderIndex,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to save lane: %w", mapConstraintError(err))
		}
	}

	return nil
}

// saveGraphNodes inserts the nodes of a cloned graph.
func (r *VersionRepository) saveGraphNodes(ctx context.Context, tx *sql.Tx, graph *models.VersionGraph) error {
	now := time.Now().UTC()

	for _, node := range graph.Nodes {
		query := `
			INSERT INTO future_state_nodes (id, version_id, source_step_id, name, description, lane, node_type, cycle_time_mins, lead_time_mins, position_x, position_y, action, linked_solution_id, active_step_design_version_id, step_design_status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`

		_, err := tx.ExecContext(ctx, query,
			node.ID,
			graph.Version.ID,
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
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to save node: %w", err)
		}
	}

	return nil
}

// saveGraphEdges inserts the edges of a cloned graph.
func (r *VersionRepository) saveGraphEdges(ctx context.Context, tx *sql.Tx, graph *models.VersionGraph) error {
	now := time.Now().UTC()

	for _, edge := range graph.Edges {
		query := `
			INSERT INTO future_state_edges (id, version_id, from_node_id, to_node_id, label, order_index, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err := tx.ExecContext(ctx, query,
			edge.ID,
			graph.Version.ID,
			edge.FromNodeID,
			edge.ToNodeID,
			edge.Label,
			edge.OrderIndex,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to save edge: %w", err)
		}
	}

	return nil
}

// saveGraphAnnotations inserts the annotations of a cloned graph.
func (r *VersionRepository) saveGraphAnnotations(ctx context.Context, tx *sql.Tx, graph *models.VersionGraph) error {
	now := time.Now().UTC()

	for _, annotation := range graph.Annotations {
		query := `
			INSERT INTO future_state_annotations (id, version_id, node_id, kind, body, position_x, position_y, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`

		_, err := tx.ExecContext(ctx, query,
			annotation.ID,
			graph.Version.ID,
			annotation.NodeID,
			annotation.Kind,
			annotation.Body,
			annotation.PositionX,
			annotation.PositionY,
			annotation.CreatedBy,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to save annotation: %w", err)
		}
	}

	return nil
}
