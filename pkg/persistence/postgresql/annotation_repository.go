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

// AnnotationRepository handles annotation database operations.
type AnnotationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAnnotationRepository creates a new annotation repository.
func NewAnnotationRepository(db *sql.DB, logger *slog.Logger) *AnnotationRepository {
	return &AnnotationRepository{db: db, logger: logger}
}

// Create inserts an annotation.
func (r *AnnotationRepository) Create(ctx context.Context, annotation *models.Annotation) error {
	now := time.Now().UTC()

	if annotation.ID == "" {
		annotation.ID = uuid.New().String()
	}

	if annotation.CreatedAt.IsZero() {
		annotation.CreatedAt = now
	}

	annotation.UpdatedAt = now

	query := `
		INSERT INTO future_state_annotations (id, version_id, node_id, kind, body, position_x, position_y, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		annotation.ID,
		annotation.VersionID,
		annotation.NodeID,
		annotation.Kind,
		annotation.Body,
		annotation.PositionX,
		annotation.PositionY,
		annotation.CreatedBy,
		annotation.CreatedAt,
		annotation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save annotation: %w", err)
	}

	return nil
}

// GetByID returns an annotation by its ID, or nil when it does not exist.
func (r *AnnotationRepository) GetByID(ctx context.Context, id string) (*models.Annotation, error) {
	query := `
		SELECT id, version_id, node_id, kind, body, position_x, position_y, created_by, created_at, updated_at
		FROM future_state_annotations
		WHERE id = $1
	`

	annotation, err := r.scanAnnotation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan annotation: %w", err)
	}

	return annotation, nil
}

// ListByVersion returns all annotations of a version in insertion order.
func (r *AnnotationRepository) ListByVersion(ctx context.Context, versionID string) ([]*models.Annotation, error) {
	query := `
		SELECT id, version_id, node_id, kind, body, position_x, position_y, created_by, created_at, updated_at
		FROM future_state_annotations
		WHERE version_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	annotations := make([]*models.Annotation, 0)

	for rows.Next() {
		annotation, err := r.scanAnnotation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}

		annotations = append(annotations, annotation)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating annotations: %w", err)
	}

	return annotations, nil
}

// Update rewrites the mutable fields of an annotation.
func (r *AnnotationRepository) Update(ctx context.Context, annotation *models.Annotation) error {
	annotation.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE future_state_annotations
		SET node_id = $2, kind = $3, body = $4, position_x = $5, position_y = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		annotation.ID,
		annotation.NodeID,
		annotation.Kind,
		annotation.Body,
		annotation.PositionX,
		annotation.PositionY,
		annotation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update annotation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("update annotation %s: %w", annotation.ID, persistence.ErrAnnotationNotFound)
	}

	return nil
}

// Delete removes an annotation.
func (r *AnnotationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM future_state_annotations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete annotation %s: %w", id, persistence.ErrAnnotationNotFound)
	}

	return nil
}

// DetachNode clears the node anchor on every annotation referencing the node.
func (r *AnnotationRepository) DetachNode(ctx context.Context, nodeID string) error {
	query := `
		UPDATE future_state_annotations
		SET node_id = NULL, updated_at = $2
		WHERE node_id = $1
	`

	_, err := r.db.ExecContext(ctx, query, nodeID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to detach annotations from node: %w", err)
	}

	return nil
}

func (r *AnnotationRepository) scanAnnotation(scanner interface {
	Scan(dest ...any) error
}) (*models.Annotation, error) {
	var annotation models.Annotation

	err := scanner.Scan(
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
		return nil, err
	}

	return &annotation, nil
}
