package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leanworks/futurestate/pkg/models"
)

func TestGraphService_CreateNode(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")

	node, err := f.graph.CreateNode(t.Context(), &models.Node{VersionID: version.ID, Name: "Intake"})
	require.NoError(t, err)
	assert.NotEmpty(t, node.ID)
	assert.Equal(t, models.StepDesignStatusStrategyOnly, node.StepDesignStatus)

	_, err = f.graph.CreateNode(t.Context(), &models.Node{VersionID: version.ID})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = f.graph.CreateNode(t.Context(), &models.Node{VersionID: "missing", Name: "Orphan"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGraphService_LockBlocksEveryMutation(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")
	node := f.createNode(t, version.ID, "Intake", "")

	locked := true
	_, err := f.versions.UpdateVersion(t.Context(), version.ID, &models.VersionUpdate{IsLocked: &locked})
	require.NoError(t, err)

	_, err = f.graph.CreateNode(t.Context(), &models.Node{VersionID: version.ID, Name: "Late"})
	assert.True(t, IsLocked(err))

	_, err = f.graph.UpdateNode(t.Context(), &models.Node{ID: node.ID, Name: "Renamed"})
	assert.True(t, IsLocked(err))

	err = f.graph.DeleteNode(t.Context(), node.ID)
	assert.True(t, IsLocked(err))

	_, err = f.graph.CreateEdge(t.Context(), &models.Edge{VersionID: version.ID, FromNodeID: node.ID, ToNodeID: node.ID})
	assert.True(t, IsLocked(err))

	_, err = f.graph.CreateLane(t.Context(), &models.Lane{VersionID: version.ID, Name: "Operations"})
	assert.True(t, IsLocked(err))

	_, err = f.graph.CreateAnnotation(t.Context(), &models.Annotation{VersionID: version.ID, Body: "Note"})
	assert.True(t, IsLocked(err))

	// Reads stay open while locked.
	graph, err := f.graph.GetGraph(t.Context(), version.ID)
	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 1)
}

func TestGraphService_UpdateNode_KeepsDesignLifecycleFields(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")
	node := f.createNode(t, version.ID, "Intake", "Operations")

	designVersionID := "design-3"
	node.ActiveStepDesignVersionID = &designVersionID
	node.StepDesignStatus = models.StepDesignStatusComplete
	require.NoError(t, f.persistence.NodeRepository().Update(t.Context(), node))

	updated, err := f.graph.UpdateNode(t.Context(), &models.Node{
		ID:   node.ID,
		Name: "Intake v2",
		Lane: "Support",
	})
	require.NoError(t, err)

	assert.Equal(t, "Intake v2", updated.Name)
	assert.Equal(t, "Support", updated.Lane)
	require.NotNil(t, updated.ActiveStepDesignVersionID)
	assert.Equal(t, "design-3", *updated.ActiveStepDesignVersionID)
	assert.Equal(t, models.StepDesignStatusComplete, updated.StepDesignStatus)
}

func TestGraphService_DeleteNode_CleansUpReferences(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")
	intake := f.createNode(t, version.ID, "Intake", "")
	triage := f.createNode(t, version.ID, "Triage", "")

	_, err := f.graph.CreateEdge(t.Context(), &models.Edge{VersionID: version.ID, FromNodeID: intake.ID, ToNodeID: triage.ID})
	require.NoError(t, err)

	annotation, err := f.graph.CreateAnnotation(t.Context(), &models.Annotation{VersionID: version.ID, NodeID: &intake.ID, Body: "Anchored"})
	require.NoError(t, err)

	require.NoError(t, f.graph.DeleteNode(t.Context(), intake.ID))

	graph, err := f.graph.GetGraph(t.Context(), version.ID)
	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 1)
	assert.Empty(t, graph.Edges)

	detached, err := f.persistence.AnnotationRepository().GetByID(t.Context(), annotation.ID)
	require.NoError(t, err)
	require.NotNil(t, detached)
	assert.Nil(t, detached.NodeID)

	err = f.graph.DeleteNode(t.Context(), intake.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGraphService_CreateEdge_ValidatesEndpoints(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")
	node := f.createNode(t, version.ID, "Intake", "")

	other, err := f.versions.CreateVersion(t.Context(), "session-1", version.ID, "Branch", "", "user-1")
	require.NoError(t, err)

	foreign := f.createNode(t, other.Version.ID, "Foreign", "")

	_, err = f.graph.CreateEdge(t.Context(), &models.Edge{VersionID: version.ID, FromNodeID: node.ID, ToNodeID: foreign.ID})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = f.graph.CreateEdge(t.Context(), &models.Edge{VersionID: version.ID, FromNodeID: node.ID, ToNodeID: "missing"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestGraphService_Lanes(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")

	operations, err := f.graph.CreateLane(t.Context(), &models.Lane{VersionID: version.ID, Name: "Operations"})
	require.NoError(t, err)
	assert.Equal(t, 0, operations.OrderIndex)

	support, err := f.graph.CreateLane(t.Context(), &models.Lane{VersionID: version.ID, Name: "Support"})
	require.NoError(t, err)
	assert.Equal(t, 1, support.OrderIndex)

	_, err = f.graph.CreateLane(t.Context(), &models.Lane{VersionID: version.ID, Name: "Operations"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestGraphService_RenameLane_CascadesToNodes(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")

	lane, err := f.graph.CreateLane(t.Context(), &models.Lane{VersionID: version.ID, Name: "Operations"})
	require.NoError(t, err)
	_, err = f.graph.CreateLane(t.Context(), &models.Lane{VersionID: version.ID, Name: "Support"})
	require.NoError(t, err)

	for range 3 {
		f.createNode(t, version.ID, "Step", "Operations")
	}

	f.createNode(t, version.ID, "Other", "Support")

	renamed, count, err := f.graph.RenameLane(t.Context(), lane.ID, "Fulfillment")
	require.NoError(t, err)
	assert.Equal(t, "Fulfillment", renamed.Name)
	assert.Equal(t, 3, count)

	nodes, err := f.persistence.NodeRepository().ListByVersion(t.Context(), version.ID)
	require.NoError(t, err)

	moved := 0

	for _, node := range nodes {
		if node.Lane == "Fulfillment" {
			moved++
		}

		assert.NotEqual(t, "Operations", node.Lane)
	}

	assert.Equal(t, 3, moved)

	// Renaming to the current name is a no-op.
	_, count, err = f.graph.RenameLane(t.Context(), lane.ID, "Fulfillment")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Renaming onto an existing lane is rejected.
	_, _, err = f.graph.RenameLane(t.Context(), lane.ID, "Support")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestGraphService_DeleteLane_RefusesOccupied(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")

	lane, err := f.graph.CreateLane(t.Context(), &models.Lane{VersionID: version.ID, Name: "Operations"})
	require.NoError(t, err)

	f.createNode(t, version.ID, "Intake", "Operations")

	err = f.graph.DeleteLane(t.Context(), lane.ID)
	require.Error(t, err)
	assert.True(t, IsNotEmpty(err))

	empty, err := f.graph.CreateLane(t.Context(), &models.Lane{VersionID: version.ID, Name: "Unused"})
	require.NoError(t, err)
	require.NoError(t, f.graph.DeleteLane(t.Context(), empty.ID))
}

func TestGraphService_Annotations(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")
	node := f.createNode(t, version.ID, "Intake", "")

	other, err := f.versions.CreateVersion(t.Context(), "session-1", version.ID, "Branch", "", "user-1")
	require.NoError(t, err)

	foreign := f.createNode(t, other.Version.ID, "Foreign", "")

	// Anchors must live in the annotation's own version.
	_, err = f.graph.CreateAnnotation(t.Context(), &models.Annotation{VersionID: version.ID, NodeID: &foreign.ID, Body: "Wrong anchor"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	annotation, err := f.graph.CreateAnnotation(t.Context(), &models.Annotation{VersionID: version.ID, NodeID: &node.ID, Body: "Looks slow"})
	require.NoError(t, err)
	assert.Equal(t, models.AnnotationKindComment, annotation.Kind)

	annotation.Body = "Still slow"
	annotation.Kind = models.AnnotationKindFlag

	updated, err := f.graph.UpdateAnnotation(t.Context(), annotation)
	require.NoError(t, err)
	assert.Equal(t, "Still slow", updated.Body)
	assert.Equal(t, models.AnnotationKindFlag, updated.Kind)

	require.NoError(t, f.graph.DeleteAnnotation(t.Context(), annotation.ID))

	err = f.graph.DeleteAnnotation(t.Context(), annotation.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
