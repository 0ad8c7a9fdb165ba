package dbx

import (
	"context"
)

// Session hands out connections able to bulk copy rows into a table.
//
// The session is supplied explicitly by the caller: it owns the connection settings (a pool, a
// connection string, a cloud client) and nothing is derived by introspection. Each call to Open
// must be paired with exactly one CopyConn.Close.
type Session interface {
	Open(ctx context.Context) (CopyConn, error)
}

// CopyConn is a single connection on which a bulk copy can be performed.
//
// CopyFrom streams rows into the destination table, mapping each entry of columns to the
// destination column with the identical name. table may be schema qualified ("schema.table").
// It returns the number of rows the underlying facility reports as copied.
type CopyConn interface {
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Close(ctx context.Context) error
}

// Committer is implemented by connections whose copies become durable only once the transfer is
// finished, e.g. a COPY running inside a transaction. BulkInsert calls Commit once, after the last
// CopyFrom succeeded; on any failure Commit is not called and Close discards the copied rows.
type Committer interface {
	Commit(ctx context.Context) error
}
