package services

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leanworks/futurestate/pkg/designagent"
	"github.com/leanworks/futurestate/pkg/mocks"
	"github.com/leanworks/futurestate/pkg/models"
	"github.com/leanworks/futurestate/pkg/persistence"
	"github.com/leanworks/futurestate/pkg/persistence/file"
)

// fixture wires every service against a throwaway file backend, a relaxed
// event bus, and a mock design agent.
type fixture struct {
	persistence persistence.Persistence
	bus         *mocks.MockEventBus
	agent       *mocks.MockAgent
	graph       *GraphService
	versions    *VersionService
	contexts    *StepContextService
	status      *StatusService
	designs     *DesignService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	bus := mocks.NewRelaxedEventBus()
	agent := &mocks.MockAgent{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	status := NewStatusService(p, bus, logger)

	return &fixture{
		persistence: p,
		bus:         bus,
		agent:       agent,
		graph:       NewGraphService(p, logger),
		versions:    NewVersionService(p, bus, logger),
		contexts:    NewStepContextService(p, logger),
		status:      status,
		designs:     NewDesignService(p, agent, status, bus, logger),
	}
}

func (f *fixture) createSession(t *testing.T, sessionID string) *models.FutureStateVersion {
	t.Helper()

	version, err := f.versions.CreateInitialVersion(t.Context(), sessionID, "Baseline", "user-1")
	require.NoError(t, err)

	return version
}

func (f *fixture) createNode(t *testing.T, versionID, name, lane string) *models.Node {
	t.Helper()

	node, err := f.graph.CreateNode(t.Context(), &models.Node{
		VersionID: versionID,
		Name:      name,
		Lane:      lane,
	})
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
