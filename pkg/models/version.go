// Package models defines the core domain models for future-state version graphs
// and the step-design lifecycle.
package models

import "time"

// VersionStatus represents the lifecycle state of a future-state version.
type VersionStatus string

const (
	VersionStatusDraft     VersionStatus = "draft"     // Editable unless locked
	VersionStatusPublished VersionStatus = "published" // Shared, protected from deletion
)

// FutureStateVersion is one named, numbered snapshot of a session's
// process-improvement graph. Version numbers strictly increase per session and a
// session always keeps at least one version.
type FutureStateVersion struct {
	ID              string        `json:"id"`
	SessionID       string        `json:"session_id"         validate:"required"`
	ParentVersionID *string       `json:"parent_version_id,omitempty"` // Lineage pointer to the cloned source
	Version         int           `json:"version"            validate:"required,min=1"`
	Name            string        `json:"name"               validate:"required,min=1"`
	Description     string        `json:"description,omitempty"`
	Status          VersionStatus `json:"status"             validate:"required"`
	IsLocked        bool          `json:"is_locked"`
	CreatedBy       string        `json:"created_by"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	PublishedAt     *time.Time    `json:"published_at,omitempty"`
}

// VersionGraph bundles a version with everything it owns.
type VersionGraph struct {
	Version     *FutureStateVersion `json:"version"`
	Nodes       []*Node             `json:"nodes"`
	Edges       []*Edge             `json:"edges"`
	Lanes       []*Lane             `json:"lanes"`
	Annotations []*Annotation       `json:"annotations"`
}

// VersionUpdate carries the mutable fields of a version. Nil fields are left
// untouched. Setting IsLocked to false is the only mutation allowed on a locked
// version.
type VersionUpdate struct {
	Name        *string        `json:"name,omitempty"        validate:"omitempty,min=1"`
	Description *string        `json:"description,omitempty"`
	Status      *VersionStatus `json:"status,omitempty"      validate:"omitempty,oneof=draft published"`
	IsLocked    *bool          `json:"is_locked,omitempty"`
}

// Unlocks reports whether the update flips is_locked to false. An update that
// unlocks is accepted on a locked version; everything else is rejected.
func (u *VersionUpdate) Unlocks() bool {
	return u.IsLocked != nil && !*u.IsLocked
}
