package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Optimize runs PRAGMA optimize with the analysis limit recommended for connections that are about
// to close. See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) Optimize(ctx context.Context) error {
	start := time.Now()
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA analysis_limit = 400; PRAGMA optimize;"); err != nil {
		return fmt.Errorf("optimize database: %w", err)
	}
	db.logger.LogAttrs(ctx, slog.LevelDebug, "optimized database", slog.Duration("duration", time.Since(start)))
	return nil
}
