package models

import (
	"encoding/json"
	"time"
)

// StepContext holds the free-form Q&A/notes document attached to a single node,
// independent of design iterations. Created lazily on first write.
type StepContext struct {
	ID            string         `json:"id"`
	NodeID        string         `json:"node_id"         validate:"required"`
	SessionID     string         `json:"session_id"      validate:"required"`
	FutureStateID string         `json:"future_state_id" validate:"required"`
	Context       map[string]any `json:"context_json"`
	Notes         string         `json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ContextQuestion is one entry of the questions array inside the context document.
type ContextQuestion struct {
	ID         string     `json:"id"`
	Question   string     `json:"question"`
	Source     string     `json:"source,omitempty"` // "user" or "agent"
	Answer     string     `json:"answer,omitempty"`
	AnsweredBy string     `json:"answered_by,omitempty"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// Questions decodes the questions array from the context document. A missing or
// malformed array decodes as empty.
func (c *StepContext) Questions() []ContextQuestion {
	raw, ok := c.Context["questions"]
	if !ok {
		return nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	var questions []ContextQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil
	}

	return questions
}

// SetQuestions writes the questions array back into the context document as
// plain JSON values.
func (c *StepContext) SetQuestions(questions []ContextQuestion) {
	data, err := json.Marshal(questions)
	if err != nil {
		return
	}

	var plain []any
	if err := json.Unmarshal(data, &plain); err != nil {
		return
	}

	if c.Context == nil {
		c.Context = make(map[string]any)
	}

	c.Context["questions"] = plain
}

// MergePatch merges a context patch shallowly: top-level keys overwrite, so a
// new questions array replaces the old one wholesale.
func (c *StepContext) MergePatch(patch map[string]any) {
	if len(patch) == 0 {
		return
	}

	if c.Context == nil {
		c.Context = make(map[string]any, len(patch))
	}

	for key, value := range patch {
		c.Context[key] = value
	}
}

// MergeQuestions appends questions whose ids are not already present. Existing
// entries are never overwritten. Returns the number of questions added.
func (c *StepContext) MergeQuestions(incoming []ContextQuestion) int {
	if len(incoming) == 0 {
		return 0
	}

	existing := c.Questions()
	seen := make(map[string]bool, len(existing))

	for _, q := range existing {
		seen[q.ID] = true
	}

	added := 0

	for _, q := range incoming {
		if q.ID == "" || seen[q.ID] {
			continue
		}

		seen[q.ID] = true
		existing = append(existing, q)
		added++
	}

	if added > 0 {
		c.SetQuestions(existing)
	}

	return added
}

// AnswerQuestion records an answer on the question with the given id. Unmatched
// ids are a no-op; the caller decides whether that matters.
func (c *StepContext) AnswerQuestion(questionID, answer, userID string, answeredAt time.Time) bool {
	questions := c.Questions()

	for i := range questions {
		if questions[i].ID != questionID {
			continue
		}

		questions[i].Answer = answer
		questions[i].AnsweredBy = userID
		questions[i].AnsweredAt = &answeredAt
		c.SetQuestions(questions)

		return true
	}

	return false
}
