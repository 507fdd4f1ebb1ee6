// Package designagent defines the external design-agent capability that
// proposes step design options for future-state nodes, plus its HTTP and
// caching implementations.
package designagent

import "context"

// Agent proposes design options for one node. Implementations may cache
// results by identity of inputs; callers treat the result as immutable.
type Agent interface {
	ProposeDesigns(ctx context.Context, input Input) (*Result, error)
}

// Input carries everything the agent sees about a node: its own fields, the
// linked solution and source step summaries, the context document, open
// questions, and summaries of previously accepted designs.
type Input struct {
	NodeID                string         `json:"node_id"`
	SessionID             string         `json:"session_id"`
	FutureStateID         string         `json:"future_state_id"`
	NodeName              string         `json:"node_name"`
	NodeDescription       string         `json:"node_description,omitempty"`
	Lane                  string         `json:"lane,omitempty"`
	Action                string         `json:"action,omitempty"`
	SolutionTitle         string         `json:"solution_title,omitempty"`
	SolutionSummary       string         `json:"solution_summary,omitempty"`
	SourceStepName        string         `json:"source_step_name,omitempty"`
	SourceStepDescription string         `json:"source_step_description,omitempty"`
	Context               map[string]any `json:"context,omitempty"`
	OpenQuestions         []string       `json:"open_questions,omitempty"`
	History               []PriorDesign  `json:"history,omitempty"`
	ResearchMode          bool           `json:"research_mode"`
}

// PriorDesign summarizes one previously accepted design iteration.
type PriorDesign struct {
	Version int    `json:"version"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

// Result is the agent's typed response.
type Result struct {
	Options       []OptionProposal   `json:"options"`
	Questions     []QuestionProposal `json:"questions,omitempty"`
	ContextNeeded bool               `json:"context_needed,omitempty"`

	// Cached is set by the caching decorator on hits; it never serializes.
	Cached bool `json:"-"`
}

// OptionProposal is one candidate design as proposed by the agent.
type OptionProposal struct {
	Title           string               `json:"title"`
	Summary         string               `json:"summary,omitempty"`
	Changes         []string             `json:"changes,omitempty"`
	WastesAddressed []string             `json:"wastes_addressed,omitempty"`
	Risks           []string             `json:"risks,omitempty"`
	Dependencies    []string             `json:"dependencies,omitempty"`
	Confidence      float64              `json:"confidence"`
	Patterns        []string             `json:"patterns,omitempty"`
	Design          map[string]any       `json:"design,omitempty"`
	Assumptions     []AssumptionProposal `json:"assumptions,omitempty"`
}

// AssumptionProposal is one assumption attached to an option proposal.
type AssumptionProposal struct {
	Assumption       string `json:"assumption"`
	RiskIfWrong      string `json:"risk_if_wrong,omitempty"`
	ValidationMethod string `json:"validation_method,omitempty"`
}

// QuestionProposal is a clarifying question the agent wants answered.
type QuestionProposal struct {
	ID       string `json:"id,omitempty"`
	Question string `json:"question"`
}
