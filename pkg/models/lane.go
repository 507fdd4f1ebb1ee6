package models

import "time"

// Lane is a named swimlane scoped to one version. Nodes carry the lane name in
// their Lane field, so a rename must cascade to every node that used the old name.
type Lane struct {
	ID         string    `json:"id"`
	VersionID  string    `json:"version_id" validate:"required"`
	Name       string    `json:"name"       validate:"required,min=1"`
	Color      string    `json:"color,omitempty"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
