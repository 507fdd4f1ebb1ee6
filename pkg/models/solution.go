package models

import "time"

// SolutionCard is an improvement-solution entity linked from zero or more nodes.
// The card itself is owned elsewhere; this core owns its step_design_status,
// which the aggregator recomputes from the linked nodes.
type SolutionCard struct {
	ID               string           `json:"id"`
	SessionID        string           `json:"session_id" validate:"required"`
	Title            string           `json:"title"      validate:"required"`
	Summary          string           `json:"summary,omitempty"`
	StepDesignStatus StepDesignStatus `json:"step_design_status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
