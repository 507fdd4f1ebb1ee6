package postgresql_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leanworks/futurestate/pkg/models"
)

// Exercises the full storage lifecycle across repositories: an initial graph,
// a design iteration on one node, acceptance, and a cloned second version that
// shares the accepted design lineage.
func TestRepositoryIntegration_VersionAndDesignLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	sessionID := uuid.New().String()

	// External references this session works against
	solution := &models.SolutionCard{ID: "sol-intake", SessionID: sessionID, Title: "Faster intake"}
	require.NoError(t, p.SolutionRepository().Save(ctx, solution))

	sourceStep := &models.ProcessStep{ID: "asis-intake", SessionID: sessionID, Name: "Manual intake", Lane: "Ops"}
	require.NoError(t, p.ProcessStepRepository().Save(ctx, sourceStep))

	// Initial version with a two-node graph
	version := newTestVersion(sessionID, 1)
	nodeA := uuid.New().String()
	nodeB := uuid.New().String()

	graph := &models.VersionGraph{
		Version: version,
		Lanes: []*models.Lane{
			{ID: uuid.New().String(), VersionID: version.ID, Name: "Ops"},
		},
		Nodes: []*models.Node{
			{
				ID:               nodeA,
				VersionID:        version.ID,
				SourceStepID:     &sourceStep.ID,
				Name:             "Automated intake",
				Lane:             "Ops",
				Type:             "process",
				LinkedSolutionID: &solution.ID,
				StepDesignStatus: models.StepDesignStatusStrategyOnly,
			},
			{
				ID:               nodeB,
				VersionID:        version.ID,
				Name:             "Review",
				Lane:             "Ops",
				Type:             "process",
				StepDesignStatus: models.StepDesignStatusStrategyOnly,
			},
		},
		Edges: []*models.Edge{
			{ID: uuid.New().String(), VersionID: version.ID, FromNodeID: nodeA, ToNodeID: nodeB},
		},
	}

	require.NoError(t, p.VersionRepository().CreateWithGraph(ctx, graph))

	// Design iteration on node A
	stepContext := &models.StepContext{
		NodeID:        nodeA,
		SessionID:     sessionID,
		FutureStateID: version.ID,
		Context:       map[string]any{"questions": []any{}},
	}
	require.NoError(t, p.StepContextRepository().Save(ctx, stepContext))

	designVersion := &models.StepDesignVersion{
		NodeID:        nodeA,
		SessionID:     sessionID,
		FutureStateID: version.ID,
		Version:       1,
		Status:        models.DesignVersionStatusDraft,
		CreatedBy:     "test-user",
	}
	option := &models.StepDesignOption{
		ID:         uuid.New().String(),
		Title:      "Form-based intake",
		Confidence: 0.7,
	}
	require.NoError(t, p.DesignRepository().CreateVersionBatch(ctx, designVersion, []*models.StepDesignOption{option}, nil))

	// Accept the design and point the node at it
	designVersion.Status = models.DesignVersionStatusAccepted
	designVersion.SelectedOptionID = &option.ID
	require.NoError(t, p.DesignRepository().UpdateVersion(ctx, designVersion))

	node, err := p.NodeRepository().GetByID(ctx, nodeA)
	require.NoError(t, err)
	require.NotNil(t, node)

	node.ActiveStepDesignVersionID = &designVersion.ID
	node.StepDesignStatus = models.StepDesignStatusComplete
	require.NoError(t, p.NodeRepository().Update(ctx, node))

	require.NoError(t, p.SolutionRepository().UpdateStatus(ctx, solution.ID, models.StepDesignStatusNeeded))

	// Clone into version 2 with remapped node ids; scalar fields carry over,
	// including the pointer into the design lineage.
	cloneSource, err := p.VersionRepository().GetGraph(ctx, version.ID)
	require.NoError(t, err)
	require.NotNil(t, cloneSource)

	second := newTestVersion(sessionID, 2)
	second.ParentVersionID = &version.ID

	idMap := make(map[string]string, len(cloneSource.Nodes))
	clonedNodes := make([]*models.Node, 0, len(cloneSource.Nodes))

	for _, source := range cloneSource.Nodes {
		cloned := *source
		cloned.ID = uuid.New().String()
		cloned.VersionID = second.ID
		idMap[source.ID] = cloned.ID
		clonedNodes = append(clonedNodes, &cloned)
	}

	clonedEdges := make([]*models.Edge, 0, len(cloneSource.Edges))
	for _, source := range cloneSource.Edges {
		cloned := *source
		cloned.ID = uuid.New().String()
		cloned.VersionID = second.ID
		cloned.FromNodeID = idMap[source.FromNodeID]
		cloned.ToNodeID = idMap[source.ToNodeID]
		clonedEdges = append(clonedEdges, &cloned)
	}

	clonedLanes := make([]*models.Lane, 0, len(cloneSource.Lanes))
	for _, source := range cloneSource.Lanes {
		cloned := *source
		cloned.ID = uuid.New().String()
		cloned.VersionID = second.ID
		clonedLanes = append(clonedLanes, &cloned)
	}

	require.NoError(t, p.VersionRepository().CreateWithGraph(ctx, &models.VersionGraph{
		Version: second,
		Nodes:   clonedNodes,
		Edges:   clonedEdges,
		Lanes:   clonedLanes,
	}))

	secondGraph, err := p.VersionRepository().GetGraph(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, secondGraph)
	require.Len(t, secondGraph.Nodes, 2)

	var clonedA *models.Node

	for _, candidate := range secondGraph.Nodes {
		if candidate.SourceStepID != nil && *candidate.SourceStepID == sourceStep.ID {
			clonedA = candidate
		}
	}

	require.NotNil(t, clonedA)
	assert.NotEqual(t, nodeA, clonedA.ID)
	assert.Equal(t, models.StepDesignStatusComplete, clonedA.StepDesignStatus)
	require.NotNil(t, clonedA.ActiveStepDesignVersionID)
	assert.Equal(t, designVersion.ID, *clonedA.ActiveStepDesignVersionID)

	// Both nodes link the solution now, across versions
	linked, err := p.NodeRepository().ListBySolution(ctx, solution.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 2)

	// Deleting the first version keeps design lineage intact
	require.NoError(t, p.VersionRepository().Delete(ctx, version.ID))

	accepted, err := p.DesignRepository().GetAcceptedVersion(ctx, nodeA)
	require.NoError(t, err)
	require.NotNil(t, accepted)
	assert.Equal(t, designVersion.ID, accepted.ID)

	survivor, err := p.VersionRepository().GetByID(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, survivor)
	assert.Nil(t, survivor.ParentVersionID, "lineage pointer clears when the parent goes away")
}
