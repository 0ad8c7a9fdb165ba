// Package pqdb implements the bulk copy session on top of database/sql and the lib/pq driver.
//
// The copy runs inside a transaction: for every batch the COPY ... FROM STDIN statement built by
// pq.CopyIn is prepared, each row is sent with an Exec and a final empty Exec flushes the data.
// The transaction is committed once, after the last batch. Closing a connection that wasn't
// committed rolls it back.
package pqdb

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/marcodd23/go-bulkcopy/pkg/errorx"
	"github.com/marcodd23/go-bulkcopy/pkg/logx"
	"github.com/pkg/errors"
)

// Session is a dbx.Session backed by a *sql.DB using the postgres driver.
type Session struct {
	db *sql.DB
}

// NewSession wraps an existing *sql.DB.
func NewSession(db *sql.DB) *Session {
	return &Session{db: db}
}

// Open opens a *sql.DB on the given connection string with the lib/pq driver.
func Open(connString string) (*Session, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "error opening database")
	}

	return NewSession(db), nil
}

// DB returns the underlying *sql.DB.
func (s *Session) DB() *sql.DB {
	return s.db
}

// Close closes the underlying *sql.DB.
func (s *Session) Close() error {
	return s.db.Close()
}

// Open starts the transaction the copy will run in.
func (s *Session) Open(ctx context.Context) (dbx.CopyConn, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "error starting copy transaction")
	}

	return &copyConn{tx: tx}, nil
}

var _ dbx.Committer = (*copyConn)(nil)

type copyConn struct {
	tx        *sql.Tx
	committed bool
}

// CopyFrom sends the rows through COPY ... FROM STDIN within the open transaction.
func (c *copyConn) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if c.committed {
		return 0, errors.New("copy transaction already committed")
	}

	query, err := copyStatement(table, columns)
	if err != nil {
		return 0, err
	}

	stmt, err := c.tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, errors.Wrap(err, "error preparing copy statement")
	}

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			return 0, errors.Wrapf(err, "error copying row %d", i)
		}
	}

	// flush
	result, err := stmt.ExecContext(ctx)
	if err != nil {
		_ = stmt.Close()
		return 0, errors.Wrap(err, "error flushing copy data")
	}

	if err := stmt.Close(); err != nil {
		return 0, errors.Wrap(err, "error closing copy statement")
	}

	copied, err := result.RowsAffected()
	if err != nil || copied == 0 {
		// not every driver reports the COPY count on the flush
		copied = int64(len(rows))
	}

	return copied, nil
}

// Commit commits every batch copied so far.
func (c *copyConn) Commit(ctx context.Context) error {
	if c.committed {
		return errors.New("copy transaction already committed")
	}

	if err := c.tx.Commit(); err != nil {
		return errors.Wrap(err, "error committing copy transaction")
	}

	c.committed = true

	return nil
}

// Close rolls back the transaction unless it was committed.
func (c *copyConn) Close(ctx context.Context) error {
	if c.committed {
		return nil
	}

	if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logx.GetLogger().LogWarning(ctx, "error rolling back copy transaction", err)
		return err
	}

	return nil
}

func copyStatement(table string, columns []string) (string, error) {
	parts, err := dbx.SplitTableName(table)
	if err != nil {
		return "", err
	}

	if len(parts) == 1 {
		return pq.CopyIn(parts[0], columns...), nil
	}

	return pq.CopyInSchema(parts[0], parts[1], columns...), nil
}
