package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ErrBackupExists is returned when the backup target already exists.
var ErrBackupExists = errors.New("backup file already exists")

// BackupTo writes a consistent copy of the whole database to path and returns its absolute path.
// An existing file is never overwritten.
func (db *Database) BackupTo(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve backup path: %w", err)
	}
	if _, err = os.Stat(abs); err == nil {
		return "", fmt.Errorf("%s: %w", abs, ErrBackupExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat backup path: %w", err)
	}

	start := time.Now()
	// VACUUM INTO reads a single snapshot of the database and writes a compacted copy.
	if _, err = db.ReadWrite.ExecContext(ctx, "VACUUM INTO ?", abs); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", abs, err)
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "backed up database",
		slog.String("path", abs), slog.Duration("duration", time.Since(start)))
	return abs, nil
}
