package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type schemaType string

const (
	schemaTypeTable   schemaType = "table"
	schemaTypeTrigger schemaType = "trigger"
	schemaTypeIndex   schemaType = "index"
)

// changedSchema is an object present in both schemas with differing SQL.
type changedSchema struct {
	name    string
	liveSQL string
	newSQL  string
}

// schemaDiff lists what has to happen to one type of schema object.
type schemaDiff struct {
	removed []string
	added   []string
	changed []changedSchema
}

func (d schemaDiff) size() int {
	return len(d.removed) + len(d.added) + len(d.changed)
}

// migrateTo makes the live schema match schemaDefinition.
//
// The target schema is built in an attached in-memory database and compared object by object
// through sqlite_schema. Tables are dropped, created or rebuilt with the generalized ALTER TABLE
// procedure of https://www.sqlite.org/lang_altertable.html#otheralter, copying the columns both
// versions share. Indexes and triggers are dropped and recreated. The approach follows
// https://david.rothlis.net/declarative-schema-migration-for-sqlite/.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target: %w", err)
	}
	defer detach()

	// foreign_keys is a no-op inside a transaction, so it is toggled around it.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("enable foreign keys: %w", fkErr))
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.rollback(ctx, tx)

	changes := 0
	for _, typ := range []schemaType{schemaTypeTable, schemaTypeTrigger, schemaTypeIndex} {
		var n int
		if n, err = db.migrateType(ctx, tx, typ); err != nil {
			return fmt.Errorf("migrate %ss: %w", typ, err)
		}
		changes += n
	}

	var violations []string
	if violations, err = queryRows(ctx, tx, scanString,
		`SELECT "table" || ' row ' || COALESCE(rowid, '?') FROM pragma_foreign_key_check`); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if len(violations) > 0 {
		return fmt.Errorf("foreign key violations after migration: %s", strings.Join(violations, ", "))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	level := slog.LevelDebug
	if changes > 0 {
		level = slog.LevelInfo
	}
	db.logger.LogAttrs(ctx, level, "migrated database",
		slog.Int("changes", changes), slog.Duration("duration", time.Since(start)))
	return nil
}

// attachSchemaTarget attaches a fresh in-memory database holding schemaDefinition as schemaTarget.
// The returned function detaches it.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open schema target: %w", err)
	}
	// The shared cache keeps the database alive while it is attached to the live connection.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target", slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create schema target: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target", slog.Any("error", detachErr))
		}
	}, nil
}

func (db *Database) rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction", slog.Any("error", err))
	}
}

// migrateType applies the diff of one object type and returns the number of changed objects.
func (db *Database) migrateType(ctx context.Context, tx *sql.Tx, typ schemaType) (int, error) {
	diff, err := db.diffSchema(ctx, tx, typ)
	if err != nil {
		return 0, err
	}
	logger := db.logger.With(slog.String("schemaType", string(typ)))
	keyword := strings.ToUpper(string(typ))

	for _, name := range diff.removed {
		logger.LogAttrs(ctx, slog.LevelInfo, "dropping", slog.String("name", name))
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP %s %q", keyword, name)); err != nil {
			return 0, fmt.Errorf("drop %s: %w", name, err)
		}
	}
	for _, query := range diff.added {
		logger.LogAttrs(ctx, slog.LevelInfo, "creating", slog.String("query", query))
		if _, err = tx.ExecContext(ctx, query); err != nil {
			return 0, fmt.Errorf("create: %w", err)
		}
	}
	for _, c := range diff.changed {
		logger.LogAttrs(ctx, slog.LevelInfo, "recreating",
			slog.String("name", c.name), slog.String("live_sql", c.liveSQL), slog.String("new_sql", c.newSQL))
		if typ == schemaTypeTable {
			err = rebuildTable(ctx, tx, c)
		} else {
			_, err = tx.ExecContext(ctx, fmt.Sprintf("DROP %s %q; %s", keyword, c.name, c.newSQL))
		}
		if err != nil {
			return 0, fmt.Errorf("recreate %s: %w", c.name, err)
		}
	}
	return diff.size(), nil
}

// rebuildTable creates the new definition under a temporary name, copies the shared columns over,
// drops the old table and renames the new one into place.
func rebuildTable(ctx context.Context, tx *sql.Tx, c changedSchema) error {
	tempName := c.name + "_migration_temp"
	if _, err := tx.ExecContext(ctx, strings.Replace(c.newSQL, c.name, tempName, 1)); err != nil {
		return fmt.Errorf("create %s: %w", tempName, err)
	}

	// Column names are quoted because some of them may be keywords.
	columns, err := queryRows(ctx, tx, scanString, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", c.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	if len(columns) > 0 {
		common := strings.Join(columns, ", ")
		copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", //nolint:gosec // names come from sqlite_schema.
			tempName, common, common, c.name)
		if _, err = tx.ExecContext(ctx, copySQL); err != nil {
			return fmt.Errorf("copy rows: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %q", c.name)); err != nil {
		return fmt.Errorf("drop old table: %w", err)
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %q RENAME TO %q", tempName, c.name)); err != nil {
		return fmt.Errorf("rename %s: %w", tempName, err)
	}
	return nil
}

// diffSchema compares live and target objects of type typ. Internal sqlite_ objects are ignored.
func (db *Database) diffSchema(ctx context.Context, tx *sql.Tx, typ schemaType) (schemaDiff, error) {
	var (
		diff schemaDiff
		err  error
	)
	if diff.removed, err = queryRows(ctx, tx, scanString, `SELECT live.name
FROM main.sqlite_schema AS live
LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND target.name IS NULL AND live.name NOT LIKE 'sqlite\_%' ESCAPE '\'`, typ); err != nil {
		return schemaDiff{}, fmt.Errorf("query removed: %w", err)
	}
	if diff.added, err = queryRows(ctx, tx, scanString, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
LEFT JOIN main.sqlite_schema AS live ON live.name = target.name AND live.type = target.type
WHERE target.type = ? AND live.name IS NULL AND target.name NOT LIKE 'sqlite\_%' ESCAPE '\'`, typ); err != nil {
		return schemaDiff{}, fmt.Errorf("query added: %w", err)
	}
	// Renaming a table quotes its name in sqlite_schema, so quotes are ignored when comparing.
	if diff.changed, err = queryRows(ctx, tx, scanChanged, `SELECT live.name, live.sql, target.sql
FROM main.sqlite_schema AS live
JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND live.name NOT LIKE 'sqlite\_%' ESCAPE '\'
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`, typ); err != nil {
		return schemaDiff{}, fmt.Errorf("query changed: %w", err)
	}
	return diff, nil
}

func scanString(rows *sql.Rows) (string, error) {
	var s string
	err := rows.Scan(&s)
	return s, err //nolint:wrapcheck // wrapped by queryRows.
}

func scanChanged(rows *sql.Rows) (changedSchema, error) {
	var c changedSchema
	err := rows.Scan(&c.name, &c.liveSQL, &c.newSQL)
	return c, err //nolint:wrapcheck // wrapped by queryRows.
}

// queryRows runs query in tx and scans every row with scan.
func queryRows[T any](
	ctx context.Context,
	tx *sql.Tx,
	scan func(*sql.Rows) (T, error),
	query string,
	args ...any,
) (_ []T, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	var results []T
	for rows.Next() {
		var v T
		if v, err = scan(rows); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}
