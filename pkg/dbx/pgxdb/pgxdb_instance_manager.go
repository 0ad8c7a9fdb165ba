package pgxdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/marcodd23/go-bulkcopy/pkg/errorx"
	"github.com/marcodd23/go-bulkcopy/pkg/logx"
	"github.com/pkg/errors"
)

//###################################
//#    PostgresDB - dbx manager.     #
//###################################

// PostgresDB - dbx manager.
// It Implements dbx.InstanceManager, so it can be used directly as the dbx.Session of a bulk insert.
type PostgresDB struct {
	pool   *pgxpool.Pool
	dbConf dbx.ConnConfig
}

// SetupPostgresDbManager - setup Postgres DB connection pool.
func SetupPostgresDbManager(ctx context.Context, dbConf dbx.ConnConfig) (*PostgresDB, error) {
	pool, err := newConnectionPool(ctx, dbConf)
	if err != nil {
		logx.GetLogger().LogError(ctx, "connection Pool Error", err)
		return nil, err
	}

	logx.
		GetLogger().
		LogInfo(ctx, fmt.Sprintf("Created new InstanceManager Connection Pool: DB=%s, HOST=%s, PORT=%d",
			pool.Config().ConnConfig.Database,
			pool.Config().ConnConfig.Host,
			pool.Config().ConnConfig.Port))

	return &PostgresDB{
		pool:   pool,
		dbConf: dbConf,
	}, nil
}

func newConnectionPool(ctx context.Context, dbConf dbx.ConnConfig) (*pgxpool.Pool, error) {
	poolConfig, err := createConnectionConfiguration(dbConf)
	if err != nil {
		return nil, fmt.Errorf("error: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error creating New Connection Pool")
	}

	return pool, nil
}

func createConnectionConfiguration(dbConf dbx.ConnConfig) (*pgxpool.Config, error) {
	if dbConf.DBName == "" {
		return nil, errorx.NewDatabaseError("Error creating Connection Pool ConnConfig: DB_Name is EMPTY")
	}

	if dbConf.User == "" {
		return nil, errorx.NewDatabaseError("Error creating Connection Pool ConnConfig: DB_User is EMPTY")
	}

	if dbConf.Password == "" {
		return nil, errorx.NewDatabaseError("Error creating Connection Pool ConnConfig: DB_Password is EMPTY")
	}

	if dbConf.IsLocalEnv || dbConf.VpcDirectConnection {
		logx.
			GetLogger().
			LogDebug(context.TODO(), fmt.Sprintf("Connecting to DB on HOST:%s and PORT:%d",
				dbConf.Host,
				uint16(dbConf.Port)))
	} else {
		// the port is defined in the Unix Socket configuration
		// mounted in the container at runtime (5432)
		logx.GetLogger().LogDebug(context.TODO(), "Connecting to DB trough CLOUD SQL PROXY")
	}

	poolConfig, err := pgxpool.ParseConfig(dbConf.ConnString())
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error parsing Connection Pool ConnConfig")
	}

	maxConn := dbConf.MaxConn
	if maxConn <= 0 {
		maxConn = 1
	}

	poolConfig.MaxConns = int32(runtime.NumCPU()) * maxConn
	poolConfig.MinConns = 0

	return poolConfig, nil
}

func acquireConnectionFromPool(ctx context.Context, db *PostgresDB) (*pgxpool.Conn, error) {
	if db.pool == nil {
		return nil, errorx.NewDatabaseError("error, Connection Pool To DB not initialized")
	}

	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		logx.GetLogger().LogError(ctx, "Error acquiring connection from pool", err)
		return nil, errors.Wrap(err, "Error acquiring connection from pool")
	}

	return conn, nil
}

// Open - acquire a pooled connection for a bulk copy. Closing it releases it back to the pool.
func (dbm *PostgresDB) Open(ctx context.Context) (dbx.CopyConn, error) {
	conn, err := acquireConnectionFromPool(ctx, dbm)
	if err != nil {
		return nil, err
	}

	return newPoolCopyConn(conn), nil
}

// GetDbConnPool - get the connection pool.
func (dbm *PostgresDB) GetDbConnPool() (any, error) {
	if dbm.pool == nil {
		return nil, errorx.NewDatabaseError("error, Connection Pool To DB not initialized")
	}

	return dbm.pool, nil
}

// GetConnFromPool - get a connection from the pool.
func (dbm *PostgresDB) GetConnFromPool(ctx context.Context) (any, error) {
	return acquireConnectionFromPool(ctx, dbm)
}

// CloseDbConnPool - close dbx connection pool.
func (dbm *PostgresDB) CloseDbConnPool() {
	if dbm.pool != nil {
		dbm.pool.Close()
		logx.GetLogger().LogInfo(context.TODO(), "DB Connection Pool Successfully Closed!")
	}
}

// GetConnectionConfig - get Db Connection config.
func (dbm *PostgresDB) GetConnectionConfig() dbx.ConnConfig {
	return dbm.dbConf
}

// Query executes a SQL query and returns both the resulting rows and the database connection.
//
// The connection is returned so that the caller controls its lifecycle: both `rows` and `conn` must be
// closed and released once the rows are consumed.
//
//	conn, rows, err := dbm.Query(ctx, "SELECT * FROM orders WHERE id = $1", 123)
//	if err != nil {
//	    // Handle error
//	}
//	defer rows.(pgx.Rows).Close()
//	defer conn.(*pgxpool.Conn).Release()
func (dbm *PostgresDB) Query(ctx context.Context, query string, args ...interface{}) (conn any, rows any, err error) {
	pgxConn, err := acquireConnectionFromPool(ctx, dbm)
	if err != nil {
		return nil, nil, err
	}

	pgxRows, err := pgxConn.Query(ctx, query, args...)
	if err != nil {
		pgxConn.Release()
		return nil, nil, err
	}

	return pgxConn, pgxRows, nil
}

// Exec executes a SQL statement that does not return rows (DDL, TRUNCATE, ...) and returns the number of rows affected.
// The connection is released back to the pool at the end of the method, regardless of success or failure.
func (dbm *PostgresDB) Exec(ctx context.Context, execQuery string, args ...any) (int64, error) {
	conn, err := acquireConnectionFromPool(ctx, dbm)
	if err != nil {
		return 0, err
	}

	defer conn.Release()

	result, err := conn.Exec(ctx, execQuery, args...)
	if err != nil {
		logx.GetLogger().LogError(ctx, fmt.Sprintf("Error executing query '%s'", execQuery), err)

		return 0, errorx.NewDatabaseErrorWrapper(err, "Error executing query '%s'", execQuery)
	}

	return result.RowsAffected(), nil
}

var _ dbx.InstanceManager = (*PostgresDB)(nil)
