package models

import "time"

// DesignVersionStatus represents the lifecycle state of one design iteration.
type DesignVersionStatus string

const (
	DesignVersionStatusDraft    DesignVersionStatus = "draft"    // Generated, no option accepted
	DesignVersionStatusAccepted DesignVersionStatus = "accepted" // An option was selected; at most one per node
	DesignVersionStatusArchived DesignVersionStatus = "archived" // Superseded by a later acceptance
)

// StepDesignVersion is one generation cycle of AI-proposed options for a single
// node. Version numbers strictly increase per node.
type StepDesignVersion struct {
	ID               string              `json:"id"`
	NodeID           string              `json:"node_id"         validate:"required"`
	SessionID        string              `json:"session_id"      validate:"required"`
	FutureStateID    string              `json:"future_state_id" validate:"required"`
	Version          int                 `json:"version"         validate:"required,min=1"`
	Status           DesignVersionStatus `json:"status"`
	SelectedOptionID *string             `json:"selected_option_id,omitempty"`
	CreatedBy        string              `json:"created_by"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// StepDesignOption is one candidate design belonging to a design version.
type StepDesignOption struct {
	ID               string         `json:"id"`
	DesignVersionID  string         `json:"design_version_id" validate:"required"`
	Title            string         `json:"title"             validate:"required"`
	Summary          string         `json:"summary"`
	Changes          []string       `json:"changes,omitempty"`
	WastesAddressed  []string       `json:"wastes_addressed,omitempty"`
	Risks            []string       `json:"risks,omitempty"`
	Dependencies     []string       `json:"dependencies,omitempty"`
	Confidence       float64        `json:"confidence"`
	Patterns         []string       `json:"patterns,omitempty"`
	Design           map[string]any `json:"design,omitempty"` // Full design payload
	ResearchModeUsed bool           `json:"research_mode_used"`
	CreatedAt        time.Time      `json:"created_at"`
}

// DesignAssumption belongs to exactly one option.
type DesignAssumption struct {
	ID               string    `json:"id"`
	OptionID         string    `json:"option_id"  validate:"required"`
	Assumption       string    `json:"assumption" validate:"required"`
	RiskIfWrong      string    `json:"risk_if_wrong,omitempty"`
	ValidationMethod string    `json:"validation_method,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
