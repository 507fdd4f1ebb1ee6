// Package postgresql provides PostgreSQL persistence for future-state version
// graphs, step contexts, and step designs.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/leanworks/futurestate/pkg/persistence"
	"github.com/leanworks/futurestate/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db              *sql.DB
	logger          *slog.Logger
	versionRepo     *VersionRepository
	nodeRepo        *NodeRepository
	edgeRepo        *EdgeRepository
	laneRepo        *LaneRepository
	annotationRepo  *AnnotationRepository
	stepContextRepo *StepContextRepository
	designRepo      *DesignRepository
	solutionRepo    *SolutionRepository
	processStepRepo *ProcessStepRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:              database,
		logger:          logger,
		versionRepo:     NewVersionRepository(database, logger),
		nodeRepo:        NewNodeRepository(database, logger),
		edgeRepo:        NewEdgeRepository(database, logger),
		laneRepo:        NewLaneRepository(database, logger),
		annotationRepo:  NewAnnotationRepository(database, logger),
		stepContextRepo: NewStepContextRepository(database, logger),
		designRepo:      NewDesignRepository(database, logger),
		solutionRepo:    NewSolutionRepository(database, logger),
		processStepRepo: NewProcessStepRepository(database, logger),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// VersionRepository returns the future-state version repository.
func (p *Persistence) VersionRepository() persistence.VersionRepository {
	return p.versionRepo
}

// NodeRepository returns the node repository.
func (p *Persistence) NodeRepository() persistence.NodeRepository {
	return p.nodeRepo
}

// EdgeRepository returns the edge repository.
func (p *Persistence) EdgeRepository() persistence.EdgeRepository {
	return p.edgeRepo
}

// LaneRepository returns the lane repository.
func (p *Persistence) LaneRepository() persistence.LaneRepository {
	return p.laneRepo
}

// AnnotationRepository returns the annotation repository.
func (p *Persistence) AnnotationRepository() persistence.AnnotationRepository {
	return p.annotationRepo
}

// StepContextRepository returns the step context repository.
func (p *Persistence) StepContextRepository() persistence.StepContextRepository {
	return p.stepContextRepo
}

// DesignRepository returns the step design repository.
func (p *Persistence) DesignRepository() persistence.DesignRepository {
	return p.designRepo
}

// SolutionRepository returns the solution card repository.
func (p *Persistence) SolutionRepository() persistence.SolutionRepository {
	return p.solutionRepo
}

// ProcessStepRepository returns the process step repository.
func (p *Persistence) ProcessStepRepository() persistence.ProcessStepRepository {
	return p.processStepRepo
}

// mapConstraintError translates PostgreSQL unique violations into the shared
// persistence sentinels, keyed by the violated index name. Other errors pass
// through unchanged.
func mapConstraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code.Name() != "unique_violation" {
		return err
	}

	switch pqErr.Constraint {
	case "idx_future_state_versions_session_version", "idx_step_design_versions_node_version":
		return persistence.ErrDuplicateVersionNumber
	case "idx_future_state_lanes_version_name":
		return persistence.ErrDuplicateLaneName
	default:
		return err
	}
}
