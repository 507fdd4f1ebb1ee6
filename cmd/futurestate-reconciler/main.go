package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/leanworks/futurestate/pkg/cmd"
	"github.com/leanworks/futurestate/pkg/log"
	"github.com/leanworks/futurestate/pkg/otelhelper"
	"github.com/leanworks/futurestate/pkg/services"
)

func main() {
	app := &cli.Command{
		Name:                  "futurestate-reconciler",
		Usage:                 "Sweep solution cards and repair drifted step-design statuses",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "reconciler-id",
				Usage:   "Unique reconciler instance ID",
				Sources: cli.EnvVars("RECONCILER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "sweep-cron",
				Usage:   "Cron schedule for solution sweeps",
				Value:   "*/5 * * * *",
				Sources: cli.EnvVars("SWEEP_CRON"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			if _, err := otelhelper.NewTracer(ctx, "futurestate-reconciler"); err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

			reconcilerID := command.String("reconciler-id")
			if reconcilerID == "" {
				reconcilerID = fmt.Sprintf("reconciler-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("futurestate-reconciler").With("reconciler_id", reconcilerID)

			logger.InfoContext(ctx, "Initializing FutureState Reconciler")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "futurestate-reconciler", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			statusService := services.NewStatusService(persistence, eventBus, logger)

			reconciler := NewReconciler(reconcilerID, command.String("sweep-cron"), statusService, logger)

			return reconciler.Start(ctx)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
