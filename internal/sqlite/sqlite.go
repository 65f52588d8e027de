package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	_ "embed"
)

//go:embed schema.sql
var schemaDefinition string

type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase connects to a database and migrates it to schema.sql.
//
// Writes go through a single-connection pool and reads through a separate read-only pool, see
// https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995.
//
// The url parameter is the path to the SQLite database file or ":memory:" for an in-memory database.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(ctx, url, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), db.Close())
	}
	return db, nil
}

//nolint:gochecknoglobals // the driver may only be registered once per process.
var once sync.Once

const optimizedDriver = "sqlite3optimized"

func registerOptimizedDriver() {
	sql.Register(optimizedDriver,
		&sqlite3.SQLiteDriver{
			Extensions: nil,
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				// Temporary indices in memory and memory-mapped pages save syscalls.
				if _, err := conn.Exec("PRAGMA temp_store = memory; PRAGMA mmap_size = 268435456;", nil); err != nil {
					return fmt.Errorf("exec optimization pragmas: %w", err)
				}
				return nil
			},
		})
}

func connect(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	// In-memory databases need a shared cache so that both pools see the same data. Each one gets a
	// random name so that parallel tests stay isolated, see https://www.sqlite.org/inmemorydb.html.
	inMemoryConfig := ""
	if strings.Contains(url, ":memory:") {
		url = rand.Text()
		inMemoryConfig = "&mode=memory&cache=shared"
	}
	common := strings.Join([]string{
		"_loc=auto",
		"_journal_mode=wal",
		"_busy_timeout=5000",
		"_synchronous=normal",
		"_foreign_keys=on",
	}, "&")

	// Options with a leading underscore are documented at
	// https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open, the rest at https://www.sqlite.org/uri.html.
	// The mode in inMemoryConfig comes last and wins over mode=ro/rwc.
	readConfig := fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&%s%s", url, common, inMemoryConfig)
	readWriteConfig := fmt.Sprintf("file:%s?mode=rwc&_txlock=immediate&%s%s", url, common, inMemoryConfig)

	once.Do(registerOptimizedDriver)

	readWriteDB, err := sql.Open(optimizedDriver, readWriteConfig)
	if err != nil {
		return nil, fmt.Errorf("open read-write database: %w", err)
	}
	readWriteDB.SetMaxOpenConns(1)
	readWriteDB.SetMaxIdleConns(1)
	readWriteDB.SetConnMaxLifetime(time.Hour)
	readWriteDB.SetConnMaxIdleTime(time.Hour)

	// sql.DB is lazy. The ping creates the file and keeps a shared in-memory database alive.
	if err = readWriteDB.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping read-write database: %w", err), readWriteDB.Close())
	}
	logger.LogAttrs(ctx, slog.LevelDebug, "opened database", slog.String("sqlDsn", readWriteConfig))

	readDB, err := sql.Open(optimizedDriver, readConfig)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open read database: %w", err), readWriteDB.Close())
	}
	maxReadConns := 4
	readDB.SetMaxOpenConns(maxReadConns)
	readDB.SetMaxIdleConns(maxReadConns)
	readDB.SetConnMaxLifetime(time.Hour)
	readDB.SetConnMaxIdleTime(time.Hour)

	return &Database{
		ReadWrite: readWriteDB,
		ReadOnly:  readDB,
		logger:    logger,
	}, nil
}

// Close closes the database connections.
func (db *Database) Close() error {
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}
