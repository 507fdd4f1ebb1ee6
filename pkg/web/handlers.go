// Package web provides the REST endpoints for future-state versions, graph
// mutations, step contexts, design generation, and solution cards.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence"
	"github.com/leanworks/futurestate/pkg/services"
)

// headerUserID carries the authenticated user. Mutating endpoints reject
// requests without it.
const headerUserID = "X-User-ID"

type APIHandlers struct {
	versions    *services.VersionService
	graph       *services.GraphService
	contexts    *services.StepContextService
	designs     *services.DesignService
	status      *services.StatusService
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewAPIHandlers(
	versions *services.VersionService,
	graph *services.GraphService,
	contexts *services.StepContextService,
	designs *services.DesignService,
	status *services.StatusService,
	persistence persistence.Persistence,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		versions:    versions,
		graph:       graph,
		contexts:    contexts,
		designs:     designs,
		status:      status,
		persistence: persistence,
		validator:   validator,
	}
}

// Register mounts every API route on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	sessions := app.Group("/sessions/:sessionId/versions")
	sessions.Get("/", h.ListVersions)
	sessions.Post("/", h.CreateVersion)

	versions := app.Group("/versions")
	versions.Get("/:id", h.GetVersion)
	versions.Patch("/:id", h.UpdateVersion)
	versions.Delete("/:id", h.DeleteVersion)
	versions.Get("/:id/graph", h.GetVersionGraph)
	versions.Post("/:id/nodes", h.CreateNode)
	versions.Post("/:id/edges", h.CreateEdge)
	versions.Post("/:id/lanes", h.CreateLane)
	versions.Post("/:id/annotations", h.CreateAnnotation)

	nodes := app.Group("/nodes")
	nodes.Get("/:id", h.GetNode)
	nodes.Patch("/:id", h.UpdateNode)
	nodes.Delete("/:id", h.DeleteNode)
	nodes.Get("/:id/context", h.GetStepContext)
	nodes.Put("/:id/context", h.UpsertStepContext)
	nodes.Post("/:id/context/answers", h.AnswerQuestion)
	nodes.Get("/:id/design", h.GetDesignBundle)
	nodes.Post("/:id/design/generate", h.GenerateDesigns)

	app.Delete("/edges/:id", h.DeleteEdge)

	lanes := app.Group("/lanes")
	lanes.Patch("/:id", h.UpdateLane)
	lanes.Post("/:id/rename", h.RenameLane)
	lanes.Delete("/:id", h.DeleteLane)

	annotations := app.Group("/annotations")
	annotations.Patch("/:id", h.UpdateAnnotation)
	annotations.Delete("/:id", h.DeleteAnnotation)

	app.Post("/design-versions/:id/select-option", h.SelectDesignOption)

	solutions := app.Group("/solutions")
	solutions.Get("/", h.ListSolutions)
	solutions.Get("/:id", h.GetSolution)
	solutions.Post("/:id/recompute", h.RecomputeSolution)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "FutureState API is healthy"
	httpStatus := http.StatusOK

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "FutureState API is unhealthy: " + err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) ListVersions(c fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	versions, err := h.versions.ListVersions(c.Context(), sessionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"versions": versions})
}

// CreateVersion creates a version in a session. With a source version id the
// response is the cloned graph; without one it is the bare initial version.
func (h *APIHandlers) CreateVersion(c fiber.Ctx) error {
	userID := c.Get(headerUserID)
	if userID == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req CreateVersionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	sessionID := c.Params("sessionId")

	if req.SourceVersionID == "" {
		version, err := h.versions.CreateInitialVersion(c.Context(), sessionID, req.Name, userID)
		if err != nil {
			return handleServiceError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(version)
	}

	graph, err := h.versions.CreateVersion(c.Context(), sessionID, req.SourceVersionID, req.Name, req.Description, userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(graph)
}

func (h *APIHandlers) GetVersion(c fiber.Ctx) error {
	version, err := h.versions.GetVersion(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(version)
}

func (h *APIHandlers) GetVersionGraph(c fiber.Ctx) error {
	graph, err := h.graph.GetGraph(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(graph)
}

func (h *APIHandlers) UpdateVersion(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req models.VersionUpdate
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	version, err := h.versions.UpdateVersion(c.Context(), c.Params("id"), &req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(version)
}

func (h *APIHandlers) DeleteVersion(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	if err := h.versions.DeleteVersion(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetNode(c fiber.Ctx) error {
	node, err := h.graph.GetNode(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) CreateNode(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req CreateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node := &models.Node{
		VersionID:        c.Params("id"),
		Name:             req.Name,
		Description:      req.Description,
		Lane:             req.Lane,
		Type:             req.Type,
		CycleTimeMins:    req.CycleTimeMins,
		LeadTimeMins:     req.LeadTimeMins,
		PositionX:        req.PositionX,
		PositionY:        req.PositionY,
		Action:           req.Action,
		SourceStepID:     req.SourceStepID,
		LinkedSolutionID: req.LinkedSolutionID,
	}

	created, err := h.graph.CreateNode(c.Context(), node)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req UpdateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.graph.GetNode(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		node.Name = *req.Name
	}

	if req.Description != nil {
		node.Description = *req.Description
	}

	if req.Lane != nil {
		node.Lane = *req.Lane
	}

	if req.Type != nil {
		node.Type = *req.Type
	}

	if req.CycleTimeMins != nil {
		node.CycleTimeMins = req.CycleTimeMins
	}

	if req.LeadTimeMins != nil {
		node.LeadTimeMins = req.LeadTimeMins
	}

	if req.PositionX != nil {
		node.PositionX = *req.PositionX
	}

	if req.PositionY != nil {
		node.PositionY = *req.PositionY
	}

	if req.Action != nil {
		node.Action = *req.Action
	}

	if req.SourceStepID != nil {
		node.SourceStepID = req.SourceStepID
	}

	if req.LinkedSolutionID != nil {
		node.LinkedSolutionID = req.LinkedSolutionID
	}

	updated, err := h.graph.UpdateNode(c.Context(), node)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	if err := h.graph.DeleteNode(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateEdge(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req CreateEdgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	edge := &models.Edge{
		VersionID:  c.Params("id"),
		FromNodeID: req.FromNodeID,
		ToNodeID:   req.ToNodeID,
		Label:      req.Label,
		OrderIndex: req.OrderIndex,
	}

	created, err := h.graph.CreateEdge(c.Context(), edge)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteEdge(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	if err := h.graph.DeleteEdge(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateLane(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req CreateLaneRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	lane := &models.Lane{
		VersionID: c.Params("id"),
		Name:      req.Name,
		Color:     req.Color,
	}

	created, err := h.graph.CreateLane(c.Context(), lane)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateLane(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req UpdateLaneRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	lane, err := h.graph.GetLane(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Color != nil {
		lane.Color = *req.Color
	}

	if req.OrderIndex != nil {
		lane.OrderIndex = *req.OrderIndex
	}

	updated, err := h.graph.UpdateLane(c.Context(), lane)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) RenameLane(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req RenameLaneRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	lane, renamed, err := h.graph.RenameLane(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(RenameLaneResponse{Lane: lane, NodesRenamed: renamed})
}

func (h *APIHandlers) DeleteLane(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	if err := h.graph.DeleteLane(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateAnnotation(c fiber.Ctx) error {
	userID := c.Get(headerUserID)
	if userID == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req CreateAnnotationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	annotation := &models.Annotation{
		VersionID: c.Params("id"),
		Body:      req.Body,
		Kind:      models.AnnotationKind(req.Kind),
		NodeID:    req.NodeID,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
		CreatedBy: userID,
	}

	created, err := h.graph.CreateAnnotation(c.Context(), annotation)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateAnnotation(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req UpdateAnnotationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	annotation := &models.Annotation{
		ID:        c.Params("id"),
		Body:      req.Body,
		Kind:      models.AnnotationKind(req.Kind),
		NodeID:    req.NodeID,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
	}

	updated, err := h.graph.UpdateAnnotation(c.Context(), annotation)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteAnnotation(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	if err := h.graph.DeleteAnnotation(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetStepContext(c fiber.Ctx) error {
	doc, err := h.contexts.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if doc == nil {
		return notFound(c, "No context document for this node")
	}

	return c.JSON(doc)
}

func (h *APIHandlers) UpsertStepContext(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req UpsertContextRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	doc, err := h.contexts.Upsert(c.Context(), c.Params("id"), services.ContextUpsert{
		SessionID:     req.SessionID,
		FutureStateID: req.FutureStateID,
		Context:       req.Context,
		Notes:         req.Notes,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) AnswerQuestion(c fiber.Ctx) error {
	userID := c.Get(headerUserID)
	if userID == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req AnswerQuestionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	doc, err := h.contexts.AnswerQuestion(c.Context(), c.Params("id"), req.QuestionID, req.Answer, userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) GetDesignBundle(c fiber.Ctx) error {
	bundle, err := h.designs.GetBundle(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(bundle)
}

func (h *APIHandlers) GenerateDesigns(c fiber.Ctx) error {
	userID := c.Get(headerUserID)
	if userID == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	// The body is optional: a bare POST generates with defaults.
	var req GenerateDesignsRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	result, err := h.designs.Generate(c.Context(), services.GenerateInput{
		NodeID:        c.Params("id"),
		SessionID:     req.SessionID,
		FutureStateID: req.FutureStateID,
		UserID:        userID,
		ResearchMode:  req.ResearchMode,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *APIHandlers) SelectDesignOption(c fiber.Ctx) error {
	userID := c.Get(headerUserID)
	if userID == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	var req SelectOptionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	version, err := h.designs.SelectOption(c.Context(), c.Params("id"), req.OptionID, userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(version)
}

func (h *APIHandlers) ListSolutions(c fiber.Ctx) error {
	solutions, err := h.status.ListSolutions(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"solutions": solutions})
}

func (h *APIHandlers) GetSolution(c fiber.Ctx) error {
	solution, err := h.status.GetSolution(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(solution)
}

func (h *APIHandlers) RecomputeSolution(c fiber.Ctx) error {
	if c.Get(headerUserID) == "" {
		return badRequest(c, "X-User-ID header is required")
	}

	status, err := h.status.RecomputeSolutionStatus(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(RecomputeResponse{Status: status})
}
