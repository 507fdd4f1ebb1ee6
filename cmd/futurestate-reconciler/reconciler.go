// Package main provides the status reconciler daemon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/leanworks/futurestate/pkg/services"
)

// Reconciler periodically sweeps every solution card, rederiving node and
// solution statuses to repair drift left by missed events or out-of-band
// writes.
type Reconciler struct {
	id       string
	schedule string
	status   *services.StatusService
	logger   *slog.Logger
	cron     *cron.Cron
}

func NewReconciler(id, schedule string, status *services.StatusService, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		id:       id,
		schedule: schedule,
		status:   status,
		logger:   logger.With("module", "reconciler"),
	}
}

// Start sweeps once immediately, then on the cron schedule until the context
// is cancelled or a termination signal arrives.
func (r *Reconciler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.logger.InfoContext(runCtx, "Starting status reconciler", "reconciler_id", r.id, "schedule", r.schedule)

	r.sweep(runCtx)

	r.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := r.cron.AddFunc(r.schedule, func() { r.sweep(runCtx) }); err != nil {
		return fmt.Errorf("failed to schedule solution sweep: %w", err)
	}

	r.cron.Start()

	r.handleSignals(cancel)

	<-runCtx.Done()
	r.stop()

	return nil
}

func (r *Reconciler) handleSignals(cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		r.logger.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()
}

// stop halts the schedule and waits for a sweep already in flight.
func (r *Reconciler) stop() {
	r.logger.Info("Stopping status reconciler")

	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	changed, err := r.status.SweepSolutions(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Solution sweep failed", "error", err)

		return
	}

	if changed > 0 {
		r.logger.InfoContext(ctx, "Solution sweep repaired drifted statuses", "changed", changed)

		return
	}

	r.logger.DebugContext(ctx, "Solution sweep found no drift")
}
