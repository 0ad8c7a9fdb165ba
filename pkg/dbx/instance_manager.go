package dbx

import (
	"context"
)

// InstanceManager defines a contract for managing a pooled database instance.
//
// Besides acting as a Session for bulk copies, it exposes the pool lifecycle and the plain Query/Exec
// helpers used to prepare and verify the destination tables.
type InstanceManager interface {
	Session
	GetDbConnPool() (any, error)
	GetConnFromPool(ctx context.Context) (any, error)
	CloseDbConnPool()
	GetConnectionConfig() ConnConfig
	Query(ctx context.Context, query string, args ...interface{}) (conn any, rows any, err error)
	Exec(ctx context.Context, execQuery string, args ...any) (int64, error)
}
