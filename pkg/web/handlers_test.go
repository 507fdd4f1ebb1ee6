package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leanworks/futurestate/pkg/designagent"
	"github.com/leanworks/futurestate/pkg/mocks"
	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence"
	"github.com/leanworks/futurestate/pkg/persistence/file"
	"github.com/leanworks/futurestate/pkg/services"
	"github.com/leanworks/futurestate/pkg/web"
)

type testEnv struct {
	app         *fiber.App
	agent       *mocks.MockAgent
	persistence persistence.Persistence
	versions    *services.VersionService
	graph       *services.GraphService
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	bus := mocks.NewRelaxedEventBus()
	agent := &mocks.MockAgent{}

	versionService := services.NewVersionService(p, bus, logger)
	graphService := services.NewGraphService(p, logger)
	contextService := services.NewStepContextService(p, logger)
	statusService := services.NewStatusService(p, bus, logger)
	designService := services.NewDesignService(p, agent, statusService, bus, logger)

	handlers := web.NewAPIHandlers(
		versionService,
		graphService,
		contextService,
		designService,
		statusService,
		p,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()
	handlers.Register(app)

	return &testEnv{
		app:         app,
		agent:       agent,
		persistence: p,
		versions:    versionService,
		graph:       graphService,
	}
}

// doJSON performs a request against the app, attaching the user header unless
// userID is empty.
func doJSON(t *testing.T, app *fiber.App, method, path string, payload any, userID string) *http.Response {
	t.Helper()

	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

// problemBody is the subset of an RFC 7807 response the tests care about.
type problemBody struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (env *testEnv) createSession(t *testing.T, sessionID string) *models.FutureStateVersion {
	t.Helper()

	version, err := env.versions.CreateInitialVersion(t.Context(), sessionID, "Baseline", "user-1")
	require.NoError(t, err)

	return version
}

func (env *testEnv) createNode(t *testing.T, versionID, name string) *models.Node {
	t.Helper()

	node, err := env.graph.CreateNode(t.Context(), &models.Node{VersionID: versionID, Name: name})
	require.NoError(t, err)

	return node
}

func agentResult(titles ...string) *designagent.Result {
	result := &designagent.Result{}

	for _, title := range titles {
		result.Options = append(result.Options, designagent.OptionProposal{
			Title:      title,
			Summary:    title + " summary",
			Confidence: 0.7,
		})
	}

	return result
}

func TestAPI_CreateVersion(t *testing.T) {
	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodPost, "/sessions/session-1/versions",
		web.CreateVersionRequest{Name: "Baseline"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	problem := decodeBody[problemBody](t, resp)
	assert.Equal(t, "validation_error", problem.Type)

	resp = doJSON(t, env.app, http.MethodPost, "/sessions/session-1/versions",
		web.CreateVersionRequest{}, "user-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPost, "/sessions/session-1/versions",
		web.CreateVersionRequest{Name: "Baseline"}, "user-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	initial := decodeBody[models.FutureStateVersion](t, resp)
	assert.Equal(t, 1, initial.Version)
	assert.Equal(t, models.VersionStatusDraft, initial.Status)
	assert.Equal(t, "user-1", initial.CreatedBy)

	// A second initial version is a conflict; the session must branch instead.
	resp = doJSON(t, env.app, http.MethodPost, "/sessions/session-1/versions",
		web.CreateVersionRequest{Name: "Another baseline"}, "user-1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	problem = decodeBody[problemBody](t, resp)
	assert.Equal(t, "conflict", problem.Type)

	resp = doJSON(t, env.app, http.MethodPost, "/sessions/session-1/versions",
		web.CreateVersionRequest{Name: "Branch", SourceVersionID: initial.ID}, "user-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	branch := decodeBody[models.VersionGraph](t, resp)
	assert.Equal(t, 2, branch.Version.Version)
	require.NotNil(t, branch.Version.ParentVersionID)
	assert.Equal(t, initial.ID, *branch.Version.ParentVersionID)

	resp = doJSON(t, env.app, http.MethodPost, "/sessions/session-1/versions",
		web.CreateVersionRequest{Name: "Orphan", SourceVersionID: "missing"}, "user-1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodGet, "/sessions/session-1/versions", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listing := decodeBody[struct {
		Versions []*models.FutureStateVersion `json:"versions"`
	}](t, resp)
	assert.Len(t, listing.Versions, 2)
}

func TestAPI_VersionLockGuards(t *testing.T) {
	env := setupTestApp(t)
	version := env.createSession(t, "session-1")

	locked := true
	resp := doJSON(t, env.app, http.MethodPatch, "/versions/"+version.ID,
		models.VersionUpdate{IsLocked: &locked}, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/nodes",
		web.CreateNodeRequest{Name: "Intake"}, "user-1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	problem := decodeBody[problemBody](t, resp)
	assert.Equal(t, "version_locked", problem.Type)

	name := "Renamed"
	resp = doJSON(t, env.app, http.MethodPatch, "/versions/"+version.ID,
		models.VersionUpdate{Name: &name}, "user-1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unlocking may ride along with other changes in the same update.
	unlocked := false
	resp = doJSON(t, env.app, http.MethodPatch, "/versions/"+version.ID,
		models.VersionUpdate{Name: &name, IsLocked: &unlocked}, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[models.FutureStateVersion](t, resp)
	assert.Equal(t, "Renamed", updated.Name)
	assert.False(t, updated.IsLocked)

	resp = doJSON(t, env.app, http.MethodDelete, "/versions/"+version.ID, nil, "user-1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	problem = decodeBody[problemBody](t, resp)
	assert.Equal(t, "sole_version", problem.Type)
}

func TestAPI_NodeEndpoints(t *testing.T) {
	env := setupTestApp(t)
	version := env.createSession(t, "session-1")

	resp := doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/nodes",
		web.CreateNodeRequest{Name: "Intake", Lane: "Operations", PositionX: 10, PositionY: 20}, "user-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	node := decodeBody[models.Node](t, resp)
	assert.NotEmpty(t, node.ID)
	assert.Equal(t, models.StepDesignStatusStrategyOnly, node.StepDesignStatus)

	x := 42
	resp = doJSON(t, env.app, http.MethodPatch, "/nodes/"+node.ID,
		web.UpdateNodeRequest{PositionX: &x}, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decodeBody[models.Node](t, resp)
	assert.Equal(t, 42, moved.PositionX)
	assert.Equal(t, "Intake", moved.Name, "fields absent from the patch keep their values")
	assert.Equal(t, 20, moved.PositionY)

	resp = doJSON(t, env.app, http.MethodDelete, "/nodes/"+node.ID, nil, "user-1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodGet, "/nodes/"+node.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_EdgeEndpoints(t *testing.T) {
	env := setupTestApp(t)
	version := env.createSession(t, "session-1")
	intake := env.createNode(t, version.ID, "Intake")
	triage := env.createNode(t, version.ID, "Triage")

	resp := doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/edges",
		web.CreateEdgeRequest{FromNodeID: intake.ID, ToNodeID: "missing"}, "user-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/edges",
		web.CreateEdgeRequest{FromNodeID: intake.ID, ToNodeID: triage.ID, Label: "handoff"}, "user-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	edge := decodeBody[models.Edge](t, resp)
	assert.Equal(t, "handoff", edge.Label)

	resp = doJSON(t, env.app, http.MethodDelete, "/edges/"+edge.ID, nil, "user-1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodDelete, "/edges/"+edge.ID, nil, "user-1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_LaneEndpoints(t *testing.T) {
	env := setupTestApp(t)
	version := env.createSession(t, "session-1")

	resp := doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/lanes",
		web.CreateLaneRequest{Name: "Operations", Color: "#ff8800"}, "user-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	lane := decodeBody[models.Lane](t, resp)

	resp = doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/lanes",
		web.CreateLaneRequest{Name: "Operations"}, "user-1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	node, err := env.graph.CreateNode(t.Context(), &models.Node{
		VersionID: version.ID, Name: "Intake", Lane: "Operations",
	})
	require.NoError(t, err)

	resp = doJSON(t, env.app, http.MethodPost, "/lanes/"+lane.ID+"/rename",
		web.RenameLaneRequest{Name: "Intake Team"}, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	renamed := decodeBody[web.RenameLaneResponse](t, resp)
	assert.Equal(t, "Intake Team", renamed.Lane.Name)
	assert.Equal(t, 1, renamed.NodesRenamed)

	moved, err := env.graph.GetNode(t.Context(), node.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intake Team", moved.Lane)

	resp = doJSON(t, env.app, http.MethodDelete, "/lanes/"+lane.ID, nil, "user-1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	problem := decodeBody[problemBody](t, resp)
	assert.Equal(t, "lane_not_empty", problem.Type)

	color := "#00ff00"
	resp = doJSON(t, env.app, http.MethodPatch, "/lanes/"+lane.ID,
		web.UpdateLaneRequest{Color: &color}, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	recolored := decodeBody[models.Lane](t, resp)
	assert.Equal(t, "#00ff00", recolored.Color)
	assert.Equal(t, "Intake Team", recolored.Name)
}

func TestAPI_AnnotationEndpoints(t *testing.T) {
	env := setupTestApp(t)
	version := env.createSession(t, "session-1")
	node := env.createNode(t, version.ID, "Intake")

	foreign := "not-a-node"
	resp := doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/annotations",
		web.CreateAnnotationRequest{Body: "Check this", NodeID: &foreign}, "user-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPost, "/versions/"+version.ID+"/annotations",
		web.CreateAnnotationRequest{Body: "Check this", NodeID: &node.ID}, "user-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	annotation := decodeBody[models.Annotation](t, resp)
	assert.Equal(t, models.AnnotationKindComment, annotation.Kind)
	assert.Equal(t, "user-1", annotation.CreatedBy)

	resp = doJSON(t, env.app, http.MethodPatch, "/annotations/"+annotation.ID,
		web.UpdateAnnotationRequest{Body: "Escalate", Kind: "flag"}, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[models.Annotation](t, resp)
	assert.Equal(t, "Escalate", updated.Body)
	assert.Equal(t, models.AnnotationKindFlag, updated.Kind)

	resp = doJSON(t, env.app, http.MethodDelete, "/annotations/"+annotation.ID, nil, "user-1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_StepContextEndpoints(t *testing.T) {
	env := setupTestApp(t)
	version := env.createSession(t, "session-1")
	node := env.createNode(t, version.ID, "Intake")

	resp := doJSON(t, env.app, http.MethodGet, "/nodes/"+node.ID+"/context", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPut, "/nodes/"+node.ID+"/context",
		web.UpsertContextRequest{Context: map[string]any{"sla": "24h"}}, "user-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "first write needs session and future state ids")

	resp = doJSON(t, env.app, http.MethodPut, "/nodes/"+node.ID+"/context",
		web.UpsertContextRequest{
			SessionID:     "session-1",
			FutureStateID: version.ID,
			Context: map[string]any{
				"sla": "24h",
				"questions": []map[string]any{
					{"id": "q-sla", "question": "Is the SLA confirmed?", "source": "user"},
				},
			},
		}, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decodeBody[models.StepContext](t, resp)
	assert.Equal(t, "24h", doc.Context["sla"])

	resp = doJSON(t, env.app, http.MethodPost, "/nodes/"+node.ID+"/context/answers",
		web.AnswerQuestionRequest{QuestionID: "q-sla", Answer: "Yes, 24 hours."}, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	answered := decodeBody[models.StepContext](t, resp)
	questions := answered.Questions()
	require.Len(t, questions, 1)
	assert.Equal(t, "Yes, 24 hours.", questions[0].Answer)
	assert.Equal(t, "user-1", questions[0].AnsweredBy)

	resp = doJSON(t, env.app, http.MethodPost, "/nodes/other-node/context/answers",
		web.AnswerQuestionRequest{QuestionID: "q-sla", Answer: "n/a"}, "user-1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_DesignEndpoints(t *testing.T) {
	env := setupTestApp(t)
	version := env.createSession(t, "session-1")
	node := env.createNode(t, version.ID, "Intake")

	env.agent.On("ProposeDesigns", mock.Anything, mock.Anything).
		Return(agentResult("Automate triage", "Merge with intake"), nil)

	resp := doJSON(t, env.app, http.MethodPost, "/nodes/"+node.ID+"/design/generate", nil, "user-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	generated := decodeBody[services.GenerationResult](t, resp)
	assert.Equal(t, 1, generated.Version.Version)
	require.Len(t, generated.Options, 2)

	resp = doJSON(t, env.app, http.MethodGet, "/nodes/"+node.ID+"/design", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bundle := decodeBody[models.StepDesignBundle](t, resp)
	require.Len(t, bundle.Versions, 1)
	assert.Len(t, bundle.Versions[0].Options, 2)

	resp = doJSON(t, env.app, http.MethodPost, "/design-versions/"+generated.Version.ID+"/select-option",
		web.SelectOptionRequest{OptionID: "not-an-option"}, "user-1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPost, "/design-versions/"+generated.Version.ID+"/select-option",
		web.SelectOptionRequest{OptionID: generated.Options[0].ID}, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accepted := decodeBody[models.StepDesignVersion](t, resp)
	assert.Equal(t, models.DesignVersionStatusAccepted, accepted.Status)

	resp = doJSON(t, env.app, http.MethodGet, "/nodes/"+node.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	designed := decodeBody[models.Node](t, resp)
	assert.Equal(t, models.StepDesignStatusComplete, designed.StepDesignStatus)
}

func TestAPI_GenerateMapsAgentFailureToBadGateway(t *testing.T) {
	env := setupTestApp(t)
	version := env.createSession(t, "session-1")
	node := env.createNode(t, version.ID, "Intake")

	env.agent.On("ProposeDesigns", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	resp := doJSON(t, env.app, http.MethodPost, "/nodes/"+node.ID+"/design/generate", nil, "user-1")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	problem := decodeBody[problemBody](t, resp)
	assert.Equal(t, "agent_failure", problem.Type)
}

func TestAPI_SolutionEndpoints(t *testing.T) {
	env := setupTestApp(t)
	version := env.createSession(t, "session-1")

	solution := &models.SolutionCard{ID: "solution-1", SessionID: "session-1", Title: "Faster intake"}
	require.NoError(t, env.persistence.SolutionRepository().Save(t.Context(), solution))

	_, err := env.graph.CreateNode(t.Context(), &models.Node{
		VersionID:        version.ID,
		Name:             "Intake",
		LinkedSolutionID: &solution.ID,
		StepDesignStatus: models.StepDesignStatusComplete,
	})
	require.NoError(t, err)

	resp := doJSON(t, env.app, http.MethodGet, "/solutions/solution-1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	card := decodeBody[models.SolutionCard](t, resp)
	assert.Equal(t, "Faster intake", card.Title)
	assert.Equal(t, models.StepDesignStatusStrategyOnly, card.StepDesignStatus)

	resp = doJSON(t, env.app, http.MethodPost, "/solutions/solution-1/recompute", nil, "user-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	recomputed := decodeBody[web.RecomputeResponse](t, resp)
	assert.Equal(t, models.StepDesignStatusComplete, recomputed.Status)

	resp = doJSON(t, env.app, http.MethodGet, "/solutions", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listing := decodeBody[struct {
		Solutions []*models.SolutionCard `json:"solutions"`
	}](t, resp)
	assert.Len(t, listing.Solutions, 1)

	resp = doJSON(t, env.app, http.MethodGet, "/solutions/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_HealthCheck(t *testing.T) {
	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
