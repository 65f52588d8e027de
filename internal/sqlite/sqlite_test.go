package sqlite_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/myrjola/liftlog/internal/sqlite"
	"github.com/myrjola/liftlog/internal/testhelpers"
)

func newDatabase(t *testing.T, url string) *sqlite.Database {
	t.Helper()
	db, err := sqlite.NewDatabase(t.Context(), url, testhelpers.NewLogger(testhelpers.NewWriter(t)))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return db
}

func TestNewDatabase_Schema(t *testing.T) {
	ctx := t.Context()
	db := newDatabase(t, ":memory:")

	if _, err := db.ReadWrite.ExecContext(ctx, `INSERT INTO snapshots (id, document) VALUES (1, '{}')`); err != nil {
		t.Fatalf("insert snapshot: %v", err)
	}
	if _, err := db.ReadWrite.ExecContext(ctx, `INSERT INTO snapshots (id, document) VALUES (2, '{}')`); err == nil {
		t.Error("expected a second snapshot row to be rejected")
	}
	if _, err := db.ReadWrite.ExecContext(ctx, `UPDATE snapshots SET document = 'not json' WHERE id = 1`); err == nil {
		t.Error("expected invalid JSON to be rejected")
	}

	var count int
	if err := db.ReadOnly.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		t.Fatalf("read-only query: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if _, err := db.ReadOnly.ExecContext(ctx, "DELETE FROM snapshots"); err == nil {
		t.Error("expected the read-only pool to reject writes")
	}
}

func TestNewDatabase_BackupsArePruned(t *testing.T) {
	ctx := t.Context()
	db := newDatabase(t, ":memory:")
	for range 25 {
		if _, err := db.ReadWrite.ExecContext(ctx,
			`INSERT INTO snapshot_backups (document, version, reason) VALUES ('{}', 1, 'test')`); err != nil {
			t.Fatalf("insert backup: %v", err)
		}
	}
	var count int
	if err := db.ReadOnly.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshot_backups").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 20 {
		t.Errorf("backups = %d, want 20", count)
	}
}

func TestDatabase_BackupTo(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()
	db := newDatabase(t, filepath.Join(dir, "live.sqlite3"))
	if _, err := db.ReadWrite.ExecContext(ctx, `INSERT INTO snapshots (id, document) VALUES (1, '{"exercises":[]}')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Optimize(ctx); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	target := filepath.Join(dir, "copy.sqlite3")
	path, err := db.BackupTo(ctx, target)
	if err != nil {
		t.Fatalf("BackupTo: %v", err)
	}
	if path != target {
		t.Errorf("path = %q, want %q", path, target)
	}

	restored := newDatabase(t, path)
	var document string
	if err = restored.ReadOnly.QueryRowContext(ctx, "SELECT document FROM snapshots").Scan(&document); err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if document != `{"exercises":[]}` {
		t.Errorf("document = %s", document)
	}

	if _, err = db.BackupTo(ctx, target); !errors.Is(err, sqlite.ErrBackupExists) {
		t.Errorf("second backup: err = %v, want ErrBackupExists", err)
	}
}
