package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leanworks/futurestate/pkg/mocks"
	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence/file"
	"github.com/leanworks/futurestate/pkg/services"
	"github.com/leanworks/futurestate/pkg/testutil"
)

func TestReconciler_SweepRepairsDrift(t *testing.T) {
	ctx := t.Context()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	persistence := file.NewPersistence(t.TempDir())
	status := services.NewStatusService(persistence, mocks.NewRelaxedEventBus(), logger)

	solution := testutil.CreateTestSolution(
		testutil.WithSolutionSession("session-1"),
		testutil.WithSolutionStatus(models.StepDesignStatusComplete),
	)
	require.NoError(t, persistence.SolutionRepository().Save(ctx, solution))

	version := testutil.CreateTestVersion(testutil.WithSession("session-1"))
	require.NoError(t, persistence.VersionRepository().Create(ctx, version))

	// No design versions exist, so the complete statuses below are drift.
	node := testutil.CreateTestNode(version.ID,
		testutil.WithName("Intake"),
		testutil.WithLinkedSolution(solution.ID),
		testutil.WithStepDesignStatus(models.StepDesignStatusComplete),
	)
	require.NoError(t, persistence.NodeRepository().Create(ctx, node))

	reconciler := NewReconciler("reconciler-test", "* * * * *", status, logger)
	reconciler.sweep(ctx)

	repaired, err := persistence.SolutionRepository().GetByID(ctx, solution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepDesignStatusStrategyOnly, repaired.StepDesignStatus)

	repairedNode, err := persistence.NodeRepository().GetByID(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepDesignStatusStrategyOnly, repairedNode.StepDesignStatus)
}

func TestReconciler_StartRejectsBadSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	persistence := file.NewPersistence(t.TempDir())
	status := services.NewStatusService(persistence, mocks.NewRelaxedEventBus(), logger)

	reconciler := NewReconciler("reconciler-test", "not a schedule", status, logger)

	err := reconciler.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule solution sweep")
}
