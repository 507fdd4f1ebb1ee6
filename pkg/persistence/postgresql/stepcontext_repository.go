package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leanworks/futurestate/pkg/models"
)

// StepContextRepository handles step context database operations.
type StepContextRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStepContextRepository creates a new step context repository.
func NewStepContextRepository(db *sql.DB, logger *slog.Logger) *StepContextRepository {
	return &StepContextRepository{db: db, logger: logger}
}

// GetByNodeID returns the context document of a node, or nil when the node has
// none yet.
func (r *StepContextRepository) GetByNodeID(ctx context.Context, nodeID string) (*models.StepContext, error) {
	query := `
		SELECT id, node_id, session_id, future_state_id, context_json, notes, created_at, updated_at
		FROM step_contexts
		WHERE node_id = $1
	`

	var (
		stepContext models.StepContext
		contextJSON []byte
	)

	err := r.db.QueryRowContext(ctx, query, nodeID).Scan(
		&stepContext.ID,
		&stepContext.NodeID,
		&stepContext.SessionID,
		&stepContext.FutureStateID,
		&contextJSON,
		&stepContext.Notes,
		&stepContext.CreatedAt,
		&stepContext.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan step context: %w", err)
	}

	if contextJSON != nil {
		err := json.Unmarshal(contextJSON, &stepContext.Context)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal context document: %w", err)
		}
	}

	return &stepContext, nil
}

// Save upserts the context document of a node. The node id is the conflict
// target, so there is at most one document per node.
func (r *StepContextRepository) Save(ctx context.Context, stepContext *models.StepContext) error {
	now := time.Now().UTC()

	if stepContext.ID == "" {
		stepContext.ID = uuid.New().String()
	}

	if stepContext.CreatedAt.IsZero() {
		stepContext.CreatedAt = now
	}

	stepContext.UpdatedAt = now

	contextJSON, err := json.Marshal(stepContext.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context document: %w", err)
	}

	query := `
		INSERT INTO step_contexts (id, node_id, session_id, future_state_id, context_json, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (node_id) DO UPDATE SET
			context_json = EXCLUDED.context_json,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		stepContext.ID,
		stepContext.NodeID,
		stepContext.SessionID,
		stepContext.FutureStateID,
		contextJSON,
		stepContext.Notes,
		stepContext.CreatedAt,
		stepContext.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save step context: %w", err)
	}

	return nil
}
