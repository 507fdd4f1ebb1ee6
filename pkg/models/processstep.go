package models

import "time"

// ProcessStep is an as-is (current-state) process step. Nodes may point back to
// the step they evolved from; this core only reads them for design bundles.
type ProcessStep struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id" validate:"required"`
	Name        string    `json:"name"       validate:"required"`
	Description string    `json:"description,omitempty"`
	Lane        string    `json:"lane,omitempty"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
}
