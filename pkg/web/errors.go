package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/leanworks/futurestate/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType(services.CodeValidation).
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(services.CodeNotFound).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType(services.CodeInternal).
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps the service error taxonomy onto problem responses.
// Every kind keeps its own problem type so clients can branch without parsing
// the detail text.
func handleServiceError(c fiber.Ctx, err error) error {
	problemType := services.CodeInternal
	detail := err.Error()

	var serviceErr *services.ServiceError
	if errors.As(err, &serviceErr) {
		problemType = serviceErr.Code

		if serviceErr.Message != "" {
			detail = serviceErr.Message
		}
	}

	status := fiber.StatusInternalServerError

	switch {
	case services.IsValidation(err):
		status = fiber.StatusBadRequest
	case services.IsNotFound(err):
		status = fiber.StatusNotFound
	case services.IsConflict(err),
		services.IsLocked(err),
		services.IsPublished(err),
		services.IsSoleVersion(err),
		services.IsNotEmpty(err):
		status = fiber.StatusConflict
	case services.IsAgentFailure(err):
		status = fiber.StatusBadGateway
	case services.IsCloneFailed(err):
		status = fiber.StatusInternalServerError
	}

	problem := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(problem)
}
