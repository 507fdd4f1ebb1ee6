// Package file provides file-based persistence for future-state versions and
// step designs. Every entity is stored as a standalone JSON document, which
// keeps the backend useful for local development and tests without a database.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/leanworks/futurestate/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root            string
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

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	nodeRepo := NewNodeRepository(cleanRoot)
	edgeRepo := NewEdgeRepository(cleanRoot)
	laneRepo := NewLaneRepository(cleanRoot)
	annotationRepo := NewAnnotationRepository(cleanRoot)

	return &Persistence{
		root:            cleanRoot,
		versionRepo:     NewVersionRepository(cleanRoot, nodeRepo, edgeRepo, laneRepo, annotationRepo),
		nodeRepo:        nodeRepo,
		edgeRepo:        edgeRepo,
		laneRepo:        laneRepo,
		annotationRepo:  annotationRepo,
		stepContextRepo: NewStepContextRepository(cleanRoot),
		designRepo:      NewDesignRepository(cleanRoot),
		solutionRepo:    NewSolutionRepository(cleanRoot),
		processStepRepo: NewProcessStepRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// VersionRepository returns the future-state version repository implementation for file persistence.
func (fp *Persistence) VersionRepository() persistence.VersionRepository {
	return fp.versionRepo
}

// NodeRepository returns the node repository implementation for file persistence.
func (fp *Persistence) NodeRepository() persistence.NodeRepository {
	return fp.nodeRepo
}

// EdgeRepository returns the edge repository implementation for file persistence.
func (fp *Persistence) EdgeRepository() persistence.EdgeRepository {
	return fp.edgeRepo
}

// LaneRepository returns the lane repository implementation for file persistence.
func (fp *Persistence) LaneRepository() persistence.LaneRepository {
	return fp.laneRepo
}

// AnnotationRepository returns the annotation repository implementation for file persistence.
func (fp *Persistence) AnnotationRepository() persistence.AnnotationRepository {
	return fp.annotationRepo
}

// StepContextRepository returns the step context repository implementation for file persistence.
func (fp *Persistence) StepContextRepository() persistence.StepContextRepository {
	return fp.stepContextRepo
}

// DesignRepository returns the step design repository implementation for file persistence.
func (fp *Persistence) DesignRepository() persistence.DesignRepository {
	return fp.designRepo
}

// SolutionRepository returns the solution card repository implementation for file persistence.
func (fp *Persistence) SolutionRepository() persistence.SolutionRepository {
	return fp.solutionRepo
}

// ProcessStepRepository returns the process step repository implementation for file persistence.
func (fp *Persistence) ProcessStepRepository() persistence.ProcessStepRepository {
	return fp.processStepRepo
}
