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
	"github.com/leanworks/futurestate/pkg/persistence"
)

// DesignRepository handles step design version, option, and assumption
// database operations.
type DesignRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDesignRepository creates a new design repository.
func NewDesignRepository(db *sql.DB, logger *slog.Logger) *DesignRepository {
	return &DesignRepository{db: db, logger: logger}
}

// CreateVersionBatch inserts a design version with all of its options and
// assumptions in a single transaction.
func (r *DesignRepository) CreateVersionBatch(ctx context.Context, version *models.StepDesignVersion, options []*models.StepDesignOption, assumptions []*models.DesignAssumption) error {
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
		INSERT INTO step_design_versions (id, node_id, session_id, future_state_id, version, status, selected_option_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.ExecContext(ctx, versionQuery,
		version.ID,
		version.NodeID,
		version.SessionID,
		version.FutureStateID,
		version.Version,
		version.Status,
		version.SelectedOptionID,
		version.CreatedBy,
		version.CreatedAt,
		version.UpdatedAt,
	)
	if err != nil {
		return persistence.NewDesignError("CreateVersionBatch", version.NodeID, version.ID, mapConstraintError(err))
	}

	for _, option := range options {
		if err = r.insertOption(ctx, tx, version.ID, option); err != nil {
			return persistence.NewDesignError("CreateVersionBatch", version.NodeID, version.ID, err)
		}
	}

	for _, assumption := range assumptions {
		if err = r.insertAssumption(ctx, tx, assumption); err != nil {
			return persistence.NewDesignError("CreateVersionBatch", version.NodeID, version.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetVersion returns a design version by its ID, or nil when it does not exist.
func (r *DesignRepository) GetVersion(ctx context.Context, id string) (*models.StepDesignVersion, error) {
	query := `
		SELECT id, node_id, session_id, future_state_id, version, status, selected_option_id, created_by, created_at, updated_at
		FROM step_design_versions
		WHERE id = $1
	`

	version, err := r.scanVersion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan design version: %w", err)
	}

	return version, nil
}

// ListVersionsByNode returns all design versions of a node ordered by version
// number descending.
func (r *DesignRepository) ListVersionsByNode(ctx context.Context, nodeID string) ([]*models.StepDesignVersion, error) {
	query := `
		SELECT id, node_id, session_id, future_state_id, version, status, selected_option_id, created_by, created_at, updated_at
		FROM step_design_versions
		WHERE node_id = $1
		ORDER BY version DESC
	`

	rows, err := r.db.QueryContext(ctx, query, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query design versions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	versions := make([]*models.StepDesignVersion, 0)

	for rows.Next() {
		version, err := r.scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan design version: %w", err)
		}

		versions = append(versions, version)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating design versions: %w", err)
	}

	return versions, nil
}

// UpdateVersion rewrites the mutable fields of a design version: status and
// selected option.
func (r *DesignRepository) UpdateVersion(ctx context.Context, version *models.StepDesignVersion) error {
	version.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE step_design_versions
		SET status = $2, selected_option_id = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		version.ID,
		version.Status,
		version.SelectedOptionID,
		version.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update design version: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewDesignError("UpdateVersion", version.NodeID, version.ID, persistence.ErrDesignVersionNotFound)
	}

	return nil
}

// MaxVersionNumber returns the highest design version number of a node, or 0
// when the node has none.
func (r *DesignRepository) MaxVersionNumber(ctx context.Context, nodeID string) (int, error) {
	var maxVersion int

	query := "SELECT COALESCE(MAX(version), 0) FROM step_design_versions WHERE node_id = $1"

	err := r.db.QueryRowContext(ctx, query, nodeID).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to query max design version number: %w", err)
	}

	return maxVersion, nil
}

// GetAcceptedVersion returns the accepted design version of a node, or nil
// when the node has none. At most one exists at any time.
func (r *DesignRepository) GetAcceptedVersion(ctx context.Context, nodeID string) (*models.StepDesignVersion, error) {
	query := `
		SELECT id, node_id, session_id, future_state_id, version, status, selected_option_id, created_by, created_at, updated_at
		FROM step_design_versions
		WHERE node_id = $1 AND status = 'accepted'
		ORDER BY version DESC
		LIMIT 1
	`

	version, err := r.scanVersion(r.db.QueryRowContext(ctx, query, nodeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan accepted design version: %w", err)
	}

	return version, nil
}

// GetOption returns a design option by its ID, or nil when it does not exist.
func (r *DesignRepository) GetOption(ctx context.Context, id string) (*models.StepDesignOption, error) {
	query := `
		SELECT id, design_version_id, title, summary, changes, wastes_addressed, risks, dependencies, patterns, confidence, design, research_mode_used, created_at
		FROM step_design_options
		WHERE id = $1
	`

	option, err := r.scanOption(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan design option: %w", err)
	}

	return option, nil
}

// ListOptionsByVersion returns all options of a design version in insertion
// order.
func (r *DesignRepository) ListOptionsByVersion(ctx context.Context, designVersionID string) ([]*models.StepDesignOption, error) {
	query := `
		SELECT id, design_version_id, title, summary, changes, wastes_addressed, risks, dependencies, patterns, confidence, design, research_mode_used, created_at
		FROM step_design_options
		WHERE design_version_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, designVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query design options: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	options := make([]*models.StepDesignOption, 0)

	for rows.Next() {
		option, err := r.scanOption(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan design option: %w", err)
		}

		options = append(options, option)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating design options: %w", err)
	}

	return options, nil
}

// ListAssumptionsByOption returns all assumptions of a design option in
// insertion order.
func (r *DesignRepository) ListAssumptionsByOption(ctx context.Context, optionID string) ([]*models.DesignAssumption, error) {
	query := `
		SELECT id, option_id, assumption, risk_if_wrong, validation_method, created_at
		FROM design_assumptions
		WHERE option_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, optionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query design assumptions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	assumptions := make([]*models.DesignAssumption, 0)

	for rows.Next() {
		var assumption models.DesignAssumption

		err := rows.Scan(
			&assumption.ID,
			&assumption.OptionID,
			&assumption.Assumption,
			&assumption.RiskIfWrong,
			&assumption.ValidationMethod,
			&assumption.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan design assumption: %w", err)
		}

		assumptions = append(assumptions, &assumption)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating design assumptions: %w", err)
	}

	return assumptions, nil
}

// insertOption inserts a design option inside the batch transaction.
func (r *DesignRepository) insertOption(ctx context.Context, tx *sql.Tx, designVersionID string, option *models.StepDesignOption) error {
	if option.ID == "" {
		option.ID = uuid.New().String()
	}

	option.DesignVersionID = designVersionID

	if option.CreatedAt.IsZero() {
		option.CreatedAt = time.Now().UTC()
	}

	changesJSON, err := json.Marshal(option.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}

	wastesJSON, err := json.Marshal(option.WastesAddressed)
	if err != nil {
		return fmt.Errorf("failed to marshal wastes addressed: %w", err)
	}

	risksJSON, err := json.Marshal(option.Risks)
	if err != nil {
		return fmt.Errorf("failed to marshal risks: %w", err)
	}

	dependenciesJSON, err := json.Marshal(option.Dependencies)
	if err != nil {
		return fmt.Errorf("failed to marshal dependencies: %w", err)
	}

	patternsJSON, err := json.Marshal(option.Patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}

	designJSON, err := json.Marshal(option.Design)
	if err != nil {
		return fmt.Errorf("failed to marshal design payload: %w", err)
	}

	query := `
		INSERT INTO step_design_options (id, design_version_id, title, summary, changes, wastes_addressed, risks, dependencies, patterns, confidence, design, research_mode_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = tx.ExecContext(ctx, query,
		option.ID,
		option.DesignVersionID,
		option.Title,
		option.Summary,
		changesJSON,
		wastesJSON,
		risksJSON,
		dependenciesJSON,
		patternsJSON,
		option.Confidence,
		designJSON,
		option.ResearchModeUsed,
		option.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save design option: %w", err)
	}

	return nil
}

// insertAssumption inserts a design assumption inside the batch transaction.
func (r *DesignRepository) insertAssumption(ctx context.Context, tx *sql.Tx, assumption *models.DesignAssumption) error {
	if assumption.ID == "" {
		assumption.ID = uuid.New().String()
	}

	if assumption.CreatedAt.IsZero() {
		assumption.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO design_assumptions (id, option_id, assumption, risk_if_wrong, validation_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.ExecContext(ctx, query,
		assumption.ID,
		assumption.OptionID,
		assumption.Assumption,
		assumption.RiskIfWrong,
		assumption.ValidationMethod,
		assumption.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save design assumption: %w", err)
	}

	return nil
}

func (r *DesignRepository) scanVersion(scanner interface {
	Scan(dest ...any) error
}) (*models.StepDesignVersion, error) {
	var version models.StepDesignVersion

	err := scanner.Scan(
		&version.ID,
		&version.NodeID,
		&version.SessionID,
		&version.FutureStateID,
		&version.Version,
		&version.Status,
		&version.SelectedOptionID,
		&version.CreatedBy,
		&version.CreatedAt,
		&version.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &version, nil
}

func (r *DesignRepository) scanOption(scanner interface {
	Scan(dest ...any) error
}) (*models.StepDesignOption, error) {
	var option models.StepDesignOption

	var changesJSON, wastesJSON, risksJSON, dependenciesJSON, patternsJSON, designJSON []byte

	err := scanner.Scan(
		&option.ID,
		&option.DesignVersionID,
		&option.Title,
		&option.Summary,
		&changesJSON,
		&wastesJSON,
		&risksJSON,
		&dependenciesJSON,
		&patternsJSON,
		&option.Confidence,
		&designJSON,
		&option.ResearchModeUsed,
		&option.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		raw    []byte
		target any
	}{
		{changesJSON, &option.Changes},
		{wastesJSON, &option.WastesAddressed},
		{risksJSON, &option.Risks},
		{dependenciesJSON, &option.Dependencies},
		{patternsJSON, &option.Patterns},
		{designJSON, &option.Design},
	}

	for _, field := range fields {
		if field.raw == nil {
			continue
		}

		if err := json.Unmarshal(field.raw, field.target); err != nil {
			return nil, fmt.Errorf("failed to unmarshal design option field: %w", err)
		}
	}

	return &option, nil
}
