package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leanworks/futurestate/pkg/models"
)

// ProcessStepRepository handles as-is process step database operations.
type ProcessStepRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProcessStepRepository creates a new process step repository.
func NewProcessStepRepository(db *sql.DB, logger *slog.Logger) *ProcessStepRepository {
	return &ProcessStepRepository{db: db, logger: logger}
}

// Save upserts a process step snapshot.
func (r *ProcessStepRepository) Save(ctx context.Context, step *models.ProcessStep) error {
	if step.CreatedAt.IsZero() {
		step.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO process_steps (id, session_id, name, description, lane, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			lane = EXCLUDED.lane,
			order_index = EXCLUDED.order_index
	`

	_, err := r.db.ExecContext(ctx, query,
		step.ID,
		step.SessionID,
		step.Name,
		step.Description,
		step.Lane,
		step.OrderIndex,
		step.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save process step: %w", err)
	}

	return nil
}

// GetByID returns a process step by its ID, or nil when it does not exist.
func (r *ProcessStepRepository) GetByID(ctx context.Context, id string) (*models.ProcessStep, error) {
	query := `
		SELECT id, session_id, name, description, lane, order_index, created_at
		FROM process_steps
		WHERE id = $1
	`

	var step models.ProcessStep

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&step.ID,
		&step.SessionID,
		&step.Name,
		&step.Description,
		&step.Lane,
		&step.OrderIndex,
		&step.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan process step: %w", err)
	}

	return &step, nil
}
