package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const queryTimeout = 5 * time.Second

// ErrRestrictedQuery is returned for ad hoc queries that could escape the read-only pool.
var ErrRestrictedQuery = errors.New("query contains restricted operations")

// PRAGMA could switch query_only off and ATTACH could open another file for writing.
var restrictedQuery = regexp.MustCompile(`(?i)\b(PRAGMA|ATTACH)\b`)

// QueryResult holds the rows of an ad hoc query with BLOBs converted to strings.
type QueryResult struct {
	Columns []string
	Rows    [][]any
	// Truncated is set when more than the requested number of rows matched.
	Truncated bool
}

// Query runs an ad hoc read-only statement such as a json_extract over the snapshot and returns at
// most maxRows rows.
func (db *Database) Query(ctx context.Context, query string, maxRows int) (_ QueryResult, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return QueryResult{}, errors.New("empty query")
	}
	if restrictedQuery.MatchString(query) {
		return QueryResult{}, ErrRestrictedQuery
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.ReadOnly.QueryContext(ctx, query)
	if err != nil {
		return QueryResult{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	columns, err := rows.Columns()
	if err != nil {
		return QueryResult{}, fmt.Errorf("columns: %w", err)
	}
	result := QueryResult{Columns: columns, Rows: [][]any{}, Truncated: false}
	for rows.Next() {
		if len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}
		row, scanErr := scanAny(rows, len(columns))
		if scanErr != nil {
			return QueryResult{}, scanErr
		}
		result.Rows = append(result.Rows, row)
	}
	if err = rows.Err(); err != nil {
		return QueryResult{}, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func scanAny(rows *sql.Rows, n int) ([]any, error) {
	values := make([]any, n)
	dest := make([]any, n)
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values, nil
}
