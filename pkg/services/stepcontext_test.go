package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leanworks/futurestate/pkg/models"
)

func TestStepContextService_UpsertCreatesAndMerges(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")
	node := f.createNode(t, version.ID, "Intake", "")

	_, err := f.contexts.Upsert(t.Context(), node.ID, ContextUpsert{
		Context: map[string]any{"sla": "24h"},
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err), "creation without session and future state ids must fail")

	doc, err := f.contexts.Upsert(t.Context(), node.ID, ContextUpsert{
		SessionID:     "session-1",
		FutureStateID: version.ID,
		Context:       map[string]any{"sla": "24h", "volume": float64(120)},
	})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "session-1", doc.SessionID)
	assert.Equal(t, version.ID, doc.FutureStateID)
	assert.False(t, doc.CreatedAt.IsZero())

	// Subsequent patches merge shallowly and need no ids.
	notes := "Confirmed with operations."
	merged, err := f.contexts.Upsert(t.Context(), node.ID, ContextUpsert{
		Context: map[string]any{"sla": "12h", "owner": "ops"},
		Notes:   &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, doc.ID, merged.ID)
	assert.Equal(t, doc.CreatedAt, merged.CreatedAt)
	assert.Equal(t, "12h", merged.Context["sla"])
	assert.Equal(t, "ops", merged.Context["owner"])
	assert.Equal(t, float64(120), merged.Context["volume"])
	assert.Equal(t, "Confirmed with operations.", merged.Notes)

	// A nil notes pointer leaves the stored notes alone.
	kept, err := f.contexts.Upsert(t.Context(), node.ID, ContextUpsert{
		Context: map[string]any{"owner": "intake team"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Confirmed with operations.", kept.Notes)
	assert.Equal(t, "intake team", kept.Context["owner"])

	stored, err := f.contexts.Get(t.Context(), node.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "12h", stored.Context["sla"])
}

func TestStepContextService_GetMissingIsNotAnError(t *testing.T) {
	f := newFixture(t)

	doc, err := f.contexts.Get(t.Context(), "node-without-context")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestStepContextService_AnswerQuestion(t *testing.T) {
	f := newFixture(t)
	version := f.createSession(t, "session-1")
	node := f.createNode(t, version.ID, "Intake", "")

	doc, err := f.contexts.Upsert(t.Context(), node.ID, ContextUpsert{
		SessionID:     "session-1",
		FutureStateID: version.ID,
	})
	require.NoError(t, err)

	doc.SetQuestions([]models.ContextQuestion{
		{ID: "q-sla", Question: "Is there an intake SLA?", Source: "user"},
		{ID: "q-volume", Question: "What is the daily volume?", Source: "agent"},
	})
	_, err = f.contexts.Upsert(t.Context(), node.ID, ContextUpsert{Context: doc.Context})
	require.NoError(t, err)

	answered, err := f.contexts.AnswerQuestion(t.Context(), node.ID, "q-sla", "Yes, 24 hours.", "user-1")
	require.NoError(t, err)

	questions := answered.Questions()
	require.Len(t, questions, 2)
	assert.Equal(t, "Yes, 24 hours.", questions[0].Answer)
	assert.Equal(t, "user-1", questions[0].AnsweredBy)
	require.NotNil(t, questions[0].AnsweredAt)
	assert.Empty(t, questions[1].Answer)

	// Unknown question ids are tolerated and change nothing.
	unchanged, err := f.contexts.AnswerQuestion(t.Context(), node.ID, "q-unknown", "n/a", "user-1")
	require.NoError(t, err)
	assert.Empty(t, unchanged.Questions()[1].Answer)

	_, err = f.contexts.AnswerQuestion(t.Context(), node.ID, "", "n/a", "user-1")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = f.contexts.AnswerQuestion(t.Context(), "node-without-context", "q-sla", "n/a", "user-1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
