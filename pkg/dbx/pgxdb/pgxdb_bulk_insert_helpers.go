package pgxdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/marcodd23/go-bulkcopy/pkg/errorx"
)

// copyFromConn is the subset of pgx connections able to run the COPY protocol.
// Both *pgx.Conn and *pgxpool.Conn satisfy it.
type copyFromConn interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// pgxCopyConn adapts a pgx connection to dbx.CopyConn.
type pgxCopyConn struct {
	conn    copyFromConn
	release func(ctx context.Context) error
}

// CopyFrom streams the rows with pgx.CopyFrom (COPY ... FROM STDIN BINARY).
func (c *pgxCopyConn) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	identifier, err := splitTableName(table)
	if err != nil {
		return 0, err
	}

	return c.conn.CopyFrom(ctx, identifier, columns, pgx.CopyFromRows(rows))
}

// Close releases the connection (back to the pool, or closing it for standalone connections).
func (c *pgxCopyConn) Close(ctx context.Context) error {
	return c.release(ctx)
}

func newPoolCopyConn(conn *pgxpool.Conn) *pgxCopyConn {
	return &pgxCopyConn{
		conn: conn,
		release: func(context.Context) error {
			conn.Release()
			return nil
		},
	}
}

// ConnStringSession is a dbx.Session opening a dedicated connection for every bulk insert.
//
// The connection is established with pgx.Connect from the connection string and closed when the
// transfer ends, without any pool involved.
type ConnStringSession struct {
	connString string
}

// NewConnStringSession creates a ConnStringSession for the given postgres connection string (URL or DSN).
func NewConnStringSession(connString string) *ConnStringSession {
	return &ConnStringSession{connString: connString}
}

// NewConnStringSessionFromConfig creates a ConnStringSession from a dbx.ConnConfig.
func NewConnStringSessionFromConfig(dbConf dbx.ConnConfig) (*ConnStringSession, error) {
	if _, err := createConnectionConfiguration(dbConf); err != nil {
		return nil, err
	}

	return NewConnStringSession(dbConf.ConnString()), nil
}

// Open connects to the database.
func (s *ConnStringSession) Open(ctx context.Context) (dbx.CopyConn, error) {
	conn, err := pgx.Connect(ctx, s.connString)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "error connecting to database")
	}

	return &pgxCopyConn{conn: conn, release: conn.Close}, nil
}

// BulkInsertEntities bulk copies the entities through the instance manager pool.
//
// It's a shorthand for dbx.BulkInsert using a pooled connection.
//
// Arguments:
//   - mgr: The instance manager responsible for managing the database connection.
//   - ctx: The context for the copy execution, which can be used to control cancellation and deadlines.
//   - mapping: The destination table (CASE SENSITIVE, optionally schema qualified) and the columns.
//   - entities: The entities to insert.
//
// Returns:
//   - int64: The number of rows successfully inserted.
//   - error: Any error encountered during the bulk insert, a *errorx.BulkTransferError when the copy fails.
func BulkInsertEntities[T any](mgr dbx.InstanceManager, ctx context.Context, mapping *dbx.Mapping[T], entities []T, opts ...dbx.BulkOption) (int64, error) {
	return dbx.BulkInsert(ctx, mgr, mapping, entities, opts...)
}

// BulkInsertEntitiesWithTags bulk copies structs deriving the columns from their `db` tags (or field names).
func BulkInsertEntitiesWithTags[T any](mgr dbx.InstanceManager, ctx context.Context, tableName string, entities []T, opts ...dbx.BulkOption) (int64, error) {
	mapping, err := dbx.DeriveMapping[T](tableName, "db")
	if err != nil {
		return 0, err
	}

	return dbx.BulkInsert(ctx, mgr, mapping, entities, opts...)
}

func splitTableName(tableName string) (pgx.Identifier, error) {
	parts, err := dbx.SplitTableName(tableName)
	if err != nil {
		return nil, err
	}

	return pgx.Identifier(parts), nil
}
