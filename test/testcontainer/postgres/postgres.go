package postgres

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx/pgxdb"
	"github.com/marcodd23/go-bulkcopy/pkg/logx"
	"github.com/marcodd23/go-bulkcopy/test"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresContainerImage = "docker.io/postgres:16-alpine"
	postgresContainerPort  = "5432/tcp"

	MainDbName     = "main-db"
	MainDbUser     = "postgres"
	MainDbPassword = "password"
)

// PostgresContainer represents the postgres Container type used in the module.
type PostgresContainer struct {
	Container  *postgres.PostgresContainer
	MappedPort nat.Port
	Host       string
	DbName     string
	DbUser     string
	DbPassword string
}

// StartPostgresContainer starts a postgres container initialized with test/testcontainer/postgres/init_schema.sql.
func StartPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	pg, err := postgres.Run(ctx,
		postgresContainerImage,
		postgres.WithInitScripts(test.ResourcePath("test", "testcontainer", "postgres", "init_schema.sql")),
		postgres.WithDatabase(MainDbName),
		postgres.WithUsername(MainDbUser),
		postgres.WithPassword(MainDbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)

	require.NoError(t, err)
	require.NotNil(t, pg)

	mappedPort, err := pg.MappedPort(ctx, postgresContainerPort)
	require.NoError(t, err)

	host, err := pg.Host(ctx)
	require.NoError(t, err)

	log.Printf("Postgres running at %s:%s", host, mappedPort.Port())

	return &PostgresContainer{
		Container:  pg,
		MappedPort: mappedPort,
		Host:       host,
		DbName:     MainDbName,
		DbUser:     MainDbUser,
		DbPassword: MainDbPassword,
	}
}

// StopContainer terminates the container.
func (c *PostgresContainer) StopContainer(ctx context.Context, t *testing.T) {
	logx.GetLogger().LogInfo(ctx, "Terminating the Container ....")

	err := c.Container.Terminate(ctx)
	require.NoError(t, err, fmt.Sprintf("error terminating the Container %v", err))
}

// ConnConfig returns the connection configuration pointing at the container.
func (c *PostgresContainer) ConnConfig() dbx.ConnConfig {
	return dbx.ConnConfig{
		IsLocalEnv: true,
		Host:       c.Host,
		Port:       int32(c.MappedPort.Int()),
		DBName:     c.DbName,
		User:       c.DbUser,
		Password:   c.DbPassword,
		MaxConn:    1,
	}
}

// SetupDatabaseConnection - Setup the pooled instance manager for tests.
func SetupDatabaseConnection(ctx context.Context, t *testing.T, container *PostgresContainer) *pgxdb.PostgresDB {
	db, err := pgxdb.SetupPostgresDbManager(ctx, container.ConnConfig())
	require.NoError(t, err)

	return db
}

// WaitForDBReady waits for the database container to accept queries.
func WaitForDBReady(ctx context.Context, t *testing.T, db dbx.InstanceManager) {
	for retries := 0; retries < 20; retries++ {
		_, err := db.Exec(ctx, "SELECT 1")
		if err == nil {
			return
		}
		t.Log(err)
		t.Log("Waiting for database to be ready...")
		time.Sleep(2 * time.Second)
	}

	t.Fatal("Database is not ready after waiting")
}
