package models

import "time"

// Edge is a directed connection between two nodes of the same version.
type Edge struct {
	ID         string    `json:"id"`
	VersionID  string    `json:"version_id"   validate:"required"`
	FromNodeID string    `json:"from_node_id" validate:"required"`
	ToNodeID   string    `json:"to_node_id"   validate:"required"`
	Label      string    `json:"label,omitempty"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}
