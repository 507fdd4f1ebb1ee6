package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence"
)

// SolutionRepository handles solution card database operations.
type SolutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSolutionRepository creates a new solution repository.
func NewSolutionRepository(db *sql.DB, logger *slog.Logger) *SolutionRepository {
	return &SolutionRepository{db: db, logger: logger}
}

// Save upserts a solution card. Solution ids are assigned by the system that
// owns solutions, so the id is the conflict target.
func (r *SolutionRepository) Save(ctx context.Context, solution *models.SolutionCard) error {
	now := time.Now().UTC()

	if solution.CreatedAt.IsZero() {
		solution.CreatedAt = now
	}

	solution.UpdatedAt = now

	if solution.StepDesignStatus == "" {
		solution.StepDesignStatus = models.StepDesignStatusStrategyOnly
	}

	query := `
		INSERT INTO solution_cards (id, session_id, title, summary, step_design_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			step_design_status = EXCLUDED.step_design_status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		solution.ID,
		solution.SessionID,
		solution.Title,
		solution.Summary,
		solution.StepDesignStatus,
		solution.CreatedAt,
		solution.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save solution card: %w", err)
	}

	return nil
}

// GetByID returns a solution card by its ID, or nil when it does not exist.
func (r *SolutionRepository) GetByID(ctx context.Context, id string) (*models.SolutionCard, error) {
	query := `
		SELECT id, session_id, title, summary, step_design_status, created_at, updated_at
		FROM solution_cards
		WHERE id = $1
	`

	var solution models.SolutionCard

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&solution.ID,
		&solution.SessionID,
		&solution.Title,
		&solution.Summary,
		&solution.StepDesignStatus,
		&solution.CreatedAt,
		&solution.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan solution card: %w", err)
	}

	return &solution, nil
}

// List returns all solution cards, newest first.
func (r *SolutionRepository) List(ctx context.Context) ([]*models.SolutionCard, error) {
	query := `
		SELECT id, session_id, title, summary, step_design_status, created_at, updated_at
		FROM solution_cards
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query solution cards: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	solutions := make([]*models.SolutionCard, 0)

	for rows.Next() {
		var solution models.SolutionCard

		err := rows.Scan(
			&solution.ID,
			&solution.SessionID,
			&solution.Title,
			&solution.Summary,
			&solution.StepDesignStatus,
			&solution.CreatedAt,
			&solution.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan solution card: %w", err)
		}

		solutions = append(solutions, &solution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating solution cards: %w", err)
	}

	return solutions, nil
}

// UpdateStatus sets the rolled-up step design status of a solution card.
func (r *SolutionRepository) UpdateStatus(ctx context.Context, id string, status models.StepDesignStatus) error {
	query := `
		UPDATE solution_cards
		SET step_design_status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update solution status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("update solution %s: %w", id, persistence.ErrSolutionNotFound)
	}

	return nil
}
