// Package main provides the FutureState API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/leanworks/futurestate/pkg/designagent"
	"github.com/leanworks/futurestate/pkg/eventbus"
	"github.com/leanworks/futurestate/pkg/persistence"
	"github.com/leanworks/futurestate/pkg/services"
	"github.com/leanworks/futurestate/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	agent       designagent.Agent
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	agent designagent.Agent,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		agent:       agent,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	statusService := services.NewStatusService(a.persistence, a.eventBus, a.logger)
	versionService := services.NewVersionService(a.persistence, a.eventBus, a.logger)
	graphService := services.NewGraphService(a.persistence, a.logger)
	contextService := services.NewStepContextService(a.persistence, a.logger)
	designService := services.NewDesignService(a.persistence, a.agent, statusService, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(
		versionService,
		graphService,
		contextService,
		designService,
		statusService,
		a.persistence,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("FutureState API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
