package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/liftlog/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

// Repository stores the document as a single snapshot row.
type Repository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

// NewRepository creates a snapshot repository on db.
func NewRepository(db *sqlite.Database, logger *slog.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Load returns the stored document. A database without one is seeded first.
func (r *Repository) Load(ctx context.Context) (Document, error) {
	var data string
	err := r.db.ReadOnly.QueryRowContext(ctx, `SELECT document FROM snapshots WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		// Update seeds inside its write transaction.
		return r.Update(ctx, func(doc Document) (Document, error) { return doc, nil })
	}
	if err != nil {
		return Document{}, fmt.Errorf("query snapshot: %w", err)
	}
	doc, err := Decode([]byte(data))
	if err != nil {
		return Document{}, fmt.Errorf("load snapshot: %w", err)
	}
	return doc, nil
}

// Update reads the document, applies updateFn and stores the result in one write transaction.
// Nothing is stored when updateFn fails.
func (r *Repository) Update(ctx context.Context, updateFn func(doc Document) (Document, error)) (_ Document, err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()

	current, version, err := r.current(ctx, tx)
	if err != nil {
		return Document{}, err
	}

	updated, err := updateFn(current.Clone())
	if err != nil {
		return Document{}, fmt.Errorf("update function: %w", err)
	}

	if err = r.store(ctx, tx, updated, version+1); err != nil {
		return Document{}, err
	}
	if err = tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("commit transaction: %w", err)
	}
	return updated, nil
}

// Replace stores doc wholesale, keeping the document it replaces as a backup.
func (r *Repository) Replace(ctx context.Context, doc Document, reason string) (err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_backups (document, version, reason)
		SELECT document, version, ? FROM snapshots WHERE id = 1`, reason)
	if err != nil {
		return fmt.Errorf("back up snapshot: %w", err)
	}
	backedUp, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT version FROM snapshots WHERE id = 1`).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query version: %w", err)
	}
	if err = r.store(ctx, tx, doc, version+1); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "replaced snapshot",
		slog.String("reason", reason), slog.Bool("backedUp", backedUp > 0), slog.Int("version", version+1))
	return nil
}

// Backup describes a replaced snapshot.
type Backup struct {
	ID        int
	Version   int
	Reason    string
	CreatedAt time.Time
}

// Backups lists the kept backups, newest first.
func (r *Repository) Backups(ctx context.Context) (_ []Backup, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, version, reason, created_at
		FROM snapshot_backups
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query backups: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var backups []Backup
	for rows.Next() {
		var (
			b         Backup
			createdAt string
		)
		if err = rows.Scan(&b.ID, &b.Version, &b.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan backup row: %w", err)
		}
		if b.CreatedAt, err = time.Parse(timestampFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		backups = append(backups, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return backups, nil
}

// RestoreBackup makes a backup the current document. The document it replaces is backed up too.
func (r *Repository) RestoreBackup(ctx context.Context, id int) (Document, error) {
	var data string
	err := r.db.ReadOnly.QueryRowContext(ctx, `SELECT document FROM snapshot_backups WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("backup %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("query backup %d: %w", id, err)
	}
	doc, err := Decode([]byte(data))
	if err != nil {
		return Document{}, fmt.Errorf("backup %d: %w", id, err)
	}
	if err = r.Replace(ctx, doc, fmt.Sprintf("restore backup %d", id)); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// current reads the stored document inside tx, seeding it when the table is empty.
func (r *Repository) current(ctx context.Context, tx *sql.Tx) (Document, int, error) {
	var (
		data    string
		version int
	)
	err := tx.QueryRowContext(ctx, `SELECT document, version FROM snapshots WHERE id = 1`).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		doc, seedErr := Seed()
		if seedErr != nil {
			return Document{}, 0, seedErr
		}
		r.logger.LogAttrs(ctx, slog.LevelInfo, "seeding empty database",
			slog.Int("exercises", len(doc.Exercises)), slog.Int("workouts", len(doc.Library)))
		return doc, 0, nil
	}
	if err != nil {
		return Document{}, 0, fmt.Errorf("query snapshot: %w", err)
	}
	doc, err := Decode([]byte(data))
	if err != nil {
		return Document{}, 0, fmt.Errorf("read snapshot: %w", err)
	}
	return doc, version, nil
}

func (r *Repository) store(ctx context.Context, tx *sql.Tx, doc Document, version int) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, document, version, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			document = excluded.document,
			version = excluded.version,
			updated_at = excluded.updated_at`,
		string(data), version, time.Now().UTC().Format(timestampFormat))
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}
