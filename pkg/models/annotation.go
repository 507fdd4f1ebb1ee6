package models

import "time"

// AnnotationKind distinguishes free comments from flags raised on the graph.
type AnnotationKind string

const (
	AnnotationKindComment AnnotationKind = "comment"
	AnnotationKindFlag    AnnotationKind = "flag"
)

// Annotation is a comment or flag scoped to one version, optionally anchored to
// a node. Anchors left dangling by a clone are cleared rather than remapped blindly.
type Annotation struct {
	ID        string         `json:"id"`
	VersionID string         `json:"version_id" validate:"required"`
	NodeID    *string        `json:"node_id,omitempty"`
	Kind      AnnotationKind `json:"kind"`
	Body      string         `json:"body"       validate:"required"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
	CreatedBy string         `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
