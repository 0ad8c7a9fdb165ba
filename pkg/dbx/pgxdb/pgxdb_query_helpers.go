package pgxdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/pkg/errors"
)

// QueryAndMap uses pgx's struct scanning to map rows directly to a slice of structs.
//
// It's the read side of the bulk insert: after copying entities into a table, QueryAndMap reads them
// back by column name into T (`db` tags are honored by pgx).
//
// Arguments:
//   - mgr: The instance manager responsible for managing the database connection.
//   - ctx: The context for the query execution, which can manage cancellation and deadlines.
//   - query: The SQL query to be executed.
//   - args: The variadic arguments for the SQL query, if any.
//
// Returns:
//   - []T: A slice of the struct type T, representing the mapped results from the query.
//   - error: Any error encountered during query execution or row mapping.
func QueryAndMap[T any](mgr dbx.InstanceManager, ctx context.Context, query string, args ...interface{}) ([]T, error) {
	conn, rows, err := mgr.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pgxRows := rows.(pgx.Rows)
	pgxConn := conn.(*pgxpool.Conn)

	defer func() {
		pgxRows.Close()
		pgxConn.Release()
	}()

	results, err := pgx.CollectRows(pgxRows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return results, nil
}
