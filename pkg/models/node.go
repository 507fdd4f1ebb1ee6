// Package models defines graph node models for future-state design work.
package models

import "time"

// StepDesignStatus tracks how far a node has progressed through step design.
type StepDesignStatus string

const (
	StepDesignStatusStrategyOnly StepDesignStatus = "strategy_only"        // No design iterations yet
	StepDesignStatusNeeded       StepDesignStatus = "needs_step_design"    // Iterations exist, none accepted as latest
	StepDesignStatusComplete     StepDesignStatus = "step_design_complete" // Latest iteration accepted
)

// Node is one step in a future-state graph. Lanes are referenced by name, not
// id, so lane renames cascade to the Lane field.
type Node struct {
	ID                        string           `json:"id"`
	VersionID                 string           `json:"version_id"  validate:"required"`
	SourceStepID              *string          `json:"source_step_id,omitempty"` // As-is process step this node evolved from
	Name                      string           `json:"name"        validate:"required,min=1"`
	Description               string           `json:"description,omitempty"`
	Lane                      string           `json:"lane,omitempty"`
	Type                      string           `json:"type,omitempty"`
	CycleTimeMins             *float64         `json:"cycle_time_mins,omitempty"`
	LeadTimeMins              *float64         `json:"lead_time_mins,omitempty"`
	PositionX                 int              `json:"position_x"`
	PositionY                 int              `json:"position_y"`
	Action                    string           `json:"action,omitempty"` // Improvement action note (eliminate, automate, ...)
	LinkedSolutionID          *string          `json:"linked_solution_id,omitempty"`
	ActiveStepDesignVersionID *string          `json:"active_step_design_version_id,omitempty"` // Currently accepted design version
	StepDesignStatus          StepDesignStatus `json:"step_design_status"`
	CreatedAt                 time.Time        `json:"created_at"`
	UpdatedAt                 time.Time        `json:"updated_at"`
}

// HasLinkedSolution reports whether the node rolls its status up to a solution card.
func (n *Node) HasLinkedSolution() bool {
	return n.LinkedSolutionID != nil && *n.LinkedSolutionID != ""
}
