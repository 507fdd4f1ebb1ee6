package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepContext_Questions_MissingArray(t *testing.T) {
	ctx := &StepContext{Context: map[string]any{"summary": "warehouse intake"}}

	assert.Empty(t, ctx.Questions())
}

func TestStepContext_Questions_MalformedArray(t *testing.T) {
	ctx := &StepContext{Context: map[string]any{"questions": "not-an-array"}}

	assert.Empty(t, ctx.Questions())
}

func TestStepContext_SetQuestions_RoundTrip(t *testing.T) {
	ctx := &StepContext{}
	ctx.SetQuestions([]ContextQuestion{
		{ID: "q-1", Question: "Who owns the handoff?", Source: "agent"},
		{ID: "q-2", Question: "Is the scanner shared?", Source: "user"},
	})

	questions := ctx.Questions()
	require.Len(t, questions, 2)
	assert.Equal(t, "q-1", questions[0].ID)
	assert.Equal(t, "Who owns the handoff?", questions[0].Question)

	// The stored value must stay a plain JSON array, not a typed slice.
	_, isPlain := ctx.Context["questions"].([]any)
	assert.True(t, isPlain)
}

func TestStepContext_MergePatch_ShallowOverwrite(t *testing.T) {
	ctx := &StepContext{Context: map[string]any{
		"summary":   "old",
		"questions": []any{map[string]any{"id": "q-1", "question": "old question"}},
	}}

	ctx.MergePatch(map[string]any{
		"summary":   "new",
		"questions": []any{},
	})

	assert.Equal(t, "new", ctx.Context["summary"])
	// A new questions array replaces the old one wholesale.
	assert.Empty(t, ctx.Questions())
}

func TestStepContext_MergeQuestions_DedupesByID(t *testing.T) {
	ctx := &StepContext{}
	ctx.SetQuestions([]ContextQuestion{
		{ID: "q-1", Question: "original wording", Answer: "yes", AnsweredBy: "user-1"},
	})

	added := ctx.MergeQuestions([]ContextQuestion{
		{ID: "q-1", Question: "rephrased wording"},
		{ID: "q-2", Question: "brand new"},
		{ID: "", Question: "no id, skipped"},
	})

	assert.Equal(t, 1, added)

	questions := ctx.Questions()
	require.Len(t, questions, 2)
	// The existing entry keeps its original text and answer.
	assert.Equal(t, "original wording", questions[0].Question)
	assert.Equal(t, "yes", questions[0].Answer)
	assert.Equal(t, "q-2", questions[1].ID)
}

func TestStepContext_AnswerQuestion(t *testing.T) {
	ctx := &StepContext{}
	ctx.SetQuestions([]ContextQuestion{
		{ID: "q-1", Question: "Who approves?"},
		{ID: "q-2", Question: "Which system?"},
	})

	answeredAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	matched := ctx.AnswerQuestion("q-2", "The WMS", "user-7", answeredAt)
	require.True(t, matched)

	questions := ctx.Questions()
	assert.Empty(t, questions[0].Answer)
	assert.Equal(t, "The WMS", questions[1].Answer)
	assert.Equal(t, "user-7", questions[1].AnsweredBy)
	require.NotNil(t, questions[1].AnsweredAt)
	assert.True(t, answeredAt.Equal(*questions[1].AnsweredAt))
}

func TestStepContext_AnswerQuestion_UnmatchedIDIsNoOp(t *testing.T) {
	ctx := &StepContext{}
	ctx.SetQuestions([]ContextQuestion{{ID: "q-1", Question: "Who approves?"}})

	matched := ctx.AnswerQuestion("q-404", "answer", "user-7", time.Now())

	assert.False(t, matched)
	assert.Empty(t, ctx.Questions()[0].Answer)
}
