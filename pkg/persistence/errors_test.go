package persistence_test

import (
	"errors"
	"testing"

	"github.com/leanworks/futurestate/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error constants are available", func(t *testing.T) {
		assert.NotNil(t, persistence.ErrVersionNotFound)
		assert.NotNil(t, persistence.ErrNodeNotFound)
		assert.NotNil(t, persistence.ErrEdgeNotFound)
		assert.NotNil(t, persistence.ErrLaneNotFound)
		assert.NotNil(t, persistence.ErrAnnotationNotFound)
		assert.NotNil(t, persistence.ErrDesignVersionNotFound)
		assert.NotNil(t, persistence.ErrSolutionNotFound)
		assert.NotNil(t, persistence.ErrDuplicateVersionNumber)
		assert.NotNil(t, persistence.ErrDuplicateLaneName)
	})

	t.Run("error checking functions work correctly", func(t *testing.T) {
		versionErr := persistence.NewVersionError("GetByID", "version-123", persistence.ErrVersionNotFound)
		sessionErr := persistence.NewSessionError("CreateWithGraph", "session-456", persistence.ErrDuplicateVersionNumber)

		assert.True(t, persistence.IsVersionNotFound(versionErr))
		assert.True(t, persistence.IsDuplicateVersionNumber(sessionErr))

		// Test error unwrapping
		assert.True(t, errors.Is(versionErr, persistence.ErrVersionNotFound))
		assert.True(t, errors.Is(sessionErr, persistence.ErrDuplicateVersionNumber))
	})

	t.Run("version error contains context", func(t *testing.T) {
		err := persistence.NewVersionError("Update", "version-123", persistence.ErrVersionNotFound)

		assert.Contains(t, err.Error(), "Update")
		assert.Contains(t, err.Error(), "version-123")
		assert.Contains(t, err.Error(), "version not found")
	})

	t.Run("session error contains context", func(t *testing.T) {
		err := persistence.NewSessionError("CreateWithGraph", "session-456", persistence.ErrDuplicateVersionNumber)

		assert.Contains(t, err.Error(), "CreateWithGraph")
		assert.Contains(t, err.Error(), "session-456")
		assert.Contains(t, err.Error(), "version number already exists")
	})

	t.Run("node error contains both identifiers", func(t *testing.T) {
		err := persistence.NewNodeError("Delete", "version-123", "node-789", persistence.ErrNodeNotFound)

		assert.Contains(t, err.Error(), "node-789")
		assert.Contains(t, err.Error(), "version-123")
		assert.True(t, persistence.IsNodeNotFound(err))
	})

	t.Run("design error unwraps to sentinel", func(t *testing.T) {
		err := persistence.NewDesignError("UpdateVersion", "node-789", "design-1", persistence.ErrDesignVersionNotFound)

		assert.True(t, persistence.IsDesignVersionNotFound(err))
		assert.Contains(t, err.Error(), "design-1")
	})
}
