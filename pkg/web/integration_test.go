package web_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/services"
	"github.com/leanworks/futurestate/pkg/web"
)

// TestAPI_FullLifecycle drives a whole improvement round through the HTTP
// surface only: build a graph, capture context, generate and accept a design,
// branch the version, and check that the clone carries the design state while
// the original stays protected.
func TestAPI_FullLifecycle(t *testing.T) {
	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodPost, "/sessions/session-1/versions",
		web.CreateVersionRequest{Name: "Future state v1"}, "facilitator")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	version := decodeBody[models.FutureStateVersion](t, resp)

	resp = doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/lanes",
		web.CreateLaneRequest{Name: "Operations"}, "facilitator")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/nodes",
		web.CreateNodeRequest{Name: "Intake", Lane: "Operations", Action: "automate"}, "facilitator")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	intake := decodeBody[models.Node](t, resp)

	resp = doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/nodes",
		web.CreateNodeRequest{Name: "Resolve", Lane: "Operations"}, "facilitator")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resolve := decodeBody[models.Node](t, resp)

	resp = doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/edges",
		web.CreateEdgeRequest{FromNodeID: intake.ID, ToNodeID: resolve.ID}, "facilitator")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/annotations",
		web.CreateAnnotationRequest{Body: "Intake needs the SLA decision", NodeID: &intake.ID}, "facilitator")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPut, "/nodes/"+intake.ID+"/context",
		web.UpsertContextRequest{
			SessionID:     "session-1",
			FutureStateID: version.ID,
			Context:       map[string]any{"volume": "120/day"},
		}, "facilitator")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.agent.On("ProposeDesigns", mock.Anything, mock.Anything).
		Return(agentResult("Automate intake triage"), nil)

	resp = doJSON(t, env.app, http.MethodPost, "/nodes/"+intake.ID+"/design/generate",
		web.GenerateDesignsRequest{ResearchMode: true}, "facilitator")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	generated := decodeBody[services.GenerationResult](t, resp)

	resp = doJSON(t, env.app, http.MethodPost, "/design-versions/"+generated.Version.ID+"/select-option",
		web.SelectOptionRequest{OptionID: generated.Options[0].ID}, "facilitator")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodGet, "/nodes/"+intake.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	designed := decodeBody[models.Node](t, resp)
	assert.Equal(t, models.StepDesignStatusComplete, designed.StepDesignStatus)
	require.NotNil(t, designed.ActiveStepDesignVersionID)

	// Branch the designed version and make sure the clone is a faithful,
	// independent copy.
	resp = doJSON(t, env.app, http.MethodPost, "/sessions/session-1/versions",
		web.CreateVersionRequest{Name: "Future state v2", SourceVersionID: version.ID}, "facilitator")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	branch := decodeBody[models.VersionGraph](t, resp)

	assert.Equal(t, 2, branch.Version.Version)
	assert.Len(t, branch.Nodes, 2)
	assert.Len(t, branch.Edges, 1)
	assert.Len(t, branch.Lanes, 1)
	assert.Len(t, branch.Annotations, 1)

	var clonedIntake *models.Node

	for _, node := range branch.Nodes {
		assert.NotEqual(t, intake.ID, node.ID)
		assert.NotEqual(t, resolve.ID, node.ID)

		if node.Name == "Intake" {
			clonedIntake = node
		}
	}

	require.NotNil(t, clonedIntake)
	assert.Equal(t, models.StepDesignStatusComplete, clonedIntake.StepDesignStatus)
	require.NotNil(t, clonedIntake.ActiveStepDesignVersionID)
	assert.Equal(t, *designed.ActiveStepDesignVersionID, *clonedIntake.ActiveStepDesignVersionID)

	// Publish and lock the original; it is now safe from deletion and edits.
	published := models.VersionStatusPublished
	locked := true
	resp = doJSON(t, env.app, http.MethodPatch, "/versions/"+version.ID,
		models.VersionUpdate{Status: &published, IsLocked: &locked}, "facilitator")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sealed := decodeBody[models.FutureStateVersion](t, resp)
	assert.NotNil(t, sealed.PublishedAt)

	resp = doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/nodes",
		web.CreateNodeRequest{Name: "Late addition"}, "facilitator")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodDelete, "/versions/"+version.ID, nil, "facilitator")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The branch is still a draft and can be deleted now that the session has
	// two versions.
	resp = doJSON(t, env.app, http.MethodDelete, "/versions/"+branch.Version.ID, nil, "facilitator")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
