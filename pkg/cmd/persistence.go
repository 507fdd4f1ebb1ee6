// Package cmd provides shared initialization for the command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leanworks/futurestate/pkg/persistence"
	"github.com/leanworks/futurestate/pkg/persistence/file"
	"github.com/leanworks/futurestate/pkg/persistence/postgresql"
)

// NewPersistence picks the store from the database URL scheme. Postgres URLs
// get the SQL store, everything else the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create postgresql persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}
