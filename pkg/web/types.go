// Package web provides HTTP request and response types for the future-state API.
package web

import "github.com/leanworks/futurestate/pkg/models"

// CreateVersionRequest represents the request body for creating a version.
// With a source version id the new version is a structure-preserving clone of
// the source graph; without one it becomes the session's initial empty version.
type CreateVersionRequest struct {
	Name            string `json:"name"                        validate:"required,min=1"`
	Description     string `json:"description,omitempty"`
	SourceVersionID string `json:"source_version_id,omitempty"`
}

// CreateNodeRequest represents the request body for adding a node to a version.
type CreateNodeRequest struct {
	Name             string   `json:"name"       validate:"required,min=1"`
	Description      string   `json:"description,omitempty"`
	Lane             string   `json:"lane,omitempty"`
	Type             string   `json:"type,omitempty"`
	CycleTimeMins    *float64 `json:"cycle_time_mins,omitempty"`
	LeadTimeMins     *float64 `json:"lead_time_mins,omitempty"`
	PositionX        int      `json:"position_x"`
	PositionY        int      `json:"position_y"`
	Action           string   `json:"action,omitempty"`
	SourceStepID     *string  `json:"source_step_id,omitempty"`
	LinkedSolutionID *string  `json:"linked_solution_id,omitempty"`
}

// UpdateNodeRequest represents the request body for updating a node. Nil fields
// keep their stored values. The design lifecycle fields are not editable here.
type UpdateNodeRequest struct {
	Name             *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Description      *string  `json:"description,omitempty"`
	Lane             *string  `json:"lane,omitempty"`
	Type             *string  `json:"type,omitempty"`
	CycleTimeMins    *float64 `json:"cycle_time_mins,omitempty"`
	LeadTimeMins     *float64 `json:"lead_time_mins,omitempty"`
	PositionX        *int     `json:"position_x,omitempty"`
	PositionY        *int     `json:"position_y,omitempty"`
	Action           *string  `json:"action,omitempty"`
	SourceStepID     *string  `json:"source_step_id,omitempty"`
	LinkedSolutionID *string  `json:"linked_solution_id,omitempty"`
}

// CreateEdgeRequest represents the request body for connecting two nodes.
type CreateEdgeRequest struct {
	FromNodeID string `json:"from_node_id" validate:"required"`
	ToNodeID   string `json:"to_node_id"   validate:"required"`
	Label      string `json:"label,omitempty"`
	OrderIndex int    `json:"order_index"`
}

// CreateLaneRequest represents the request body for adding a swimlane. The
// order index is assigned server-side after the version's last lane.
type CreateLaneRequest struct {
	Name  string `json:"name"  validate:"required,min=1"`
	Color string `json:"color,omitempty"`
}

// UpdateLaneRequest updates a lane's color and ordering. Renames have their own
// endpoint because they cascade to nodes.
type UpdateLaneRequest struct {
	Color      *string `json:"color,omitempty"`
	OrderIndex *int    `json:"order_index,omitempty"`
}

// RenameLaneRequest represents the request body for renaming a lane.
type RenameLaneRequest struct {
	Name string `json:"name" validate:"required,min=1"`
}

// RenameLaneResponse reports the renamed lane and how many nodes moved with it.
type RenameLaneResponse struct {
	Lane         *models.Lane `json:"lane"`
	NodesRenamed int          `json:"nodes_renamed"`
}

// CreateAnnotationRequest represents the request body for adding a comment or
// flag, optionally anchored to a node of the same version.
type CreateAnnotationRequest struct {
	Body      string  `json:"body"           validate:"required,min=1"`
	Kind      string  `json:"kind,omitempty" validate:"omitempty,oneof=comment flag"`
	NodeID    *string `json:"node_id,omitempty"`
	PositionX int     `json:"position_x"`
	PositionY int     `json:"position_y"`
}

// UpdateAnnotationRequest replaces an annotation's editable fields wholesale.
type UpdateAnnotationRequest struct {
	Body      string  `json:"body"           validate:"required,min=1"`
	Kind      string  `json:"kind,omitempty" validate:"omitempty,oneof=comment flag"`
	NodeID    *string `json:"node_id,omitempty"`
	PositionX int     `json:"position_x"`
	PositionY int     `json:"position_y"`
}

// UpsertContextRequest represents the request body for patching a node's
// context document. Session and future state ids are only required on first
// write; a nil notes field keeps the stored notes.
type UpsertContextRequest struct {
	SessionID     string         `json:"session_id,omitempty"`
	FutureStateID string         `json:"future_state_id,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
}

// AnswerQuestionRequest represents the request body for answering one open
// question of a node's context document.
type AnswerQuestionRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer"      validate:"required"`
}

// GenerateDesignsRequest represents the request body for a design generation
// run. Session and future state ids default to the node's own when omitted.
type GenerateDesignsRequest struct {
	ResearchMode  bool   `json:"research_mode"`
	SessionID     string `json:"session_id,omitempty"`
	FutureStateID string `json:"future_state_id,omitempty"`
}

// SelectOptionRequest represents the request body for accepting one option of
// a design version.
type SelectOptionRequest struct {
	OptionID string `json:"option_id" validate:"required"`
}

// RecomputeResponse carries the derived status after a recompute.
type RecomputeResponse struct {
	Status models.StepDesignStatus `json:"status"`
}
