package configmgr_test

import (
	"errors"
	"os"
	"testing"

	"github.com/marcodd23/go-bulkcopy/pkg/configmgr"
	"github.com/marcodd23/go-bulkcopy/pkg/validator"
	"github.com/marcodd23/go-bulkcopy/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Shared configuration content
var configContent = `
name: "bulkinsert"
environment: "development"
version: "latest"
logging:
  level: "debug"
gcp:
  projectNumber: 620222630834
  project: test-project
  location: europe-west4
database:
  host: localhost
  port: 5432
  dbName: main-db
  user: postgres
  password: password
  maxConn: 2
  isLocalEnv: true
bulk:
  backend: pgx
  batchSize: 500
  table: public.orders
  columns:
    - id
    - total
  tables:
    order: public.orders
`

type TestConfiguration struct {
	configmgr.BaseConfig `mapstructure:",squash"`
}

func createTestConfigFile(t *testing.T, content string) string {
	file, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}
	defer file.Close()

	_, err = file.WriteString(content)
	if err != nil {
		t.Fatalf("Failed to write to temp config file: %v", err)
	}

	return file.Name()
}

func TestLoadConfigFromFile(t *testing.T) {
	configFilePath := createTestConfigFile(t, configContent)
	defer os.Remove(configFilePath)

	var cfg TestConfiguration
	err := configmgr.ReadConfiguration(configFilePath, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "bulkinsert", cfg.GetServiceName())
	assert.Equal(t, "development", cfg.GetEnvironment())
	assert.True(t, cfg.IsLocalEnvironment())
	assert.NotNil(t, cfg.Logging)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NotNil(t, cfg.Gcp)
	assert.Equal(t, "test-project", cfg.Gcp.ProjectId)
	assert.Equal(t, "620222630834", cfg.Gcp.ProjectNumber)

	require.NotNil(t, cfg.GetDatabaseConfig())
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, int32(5432), cfg.Database.Port)
	assert.Equal(t, "main-db", cfg.Database.DBName)
	assert.Equal(t, int32(2), cfg.Database.MaxConn)
	assert.True(t, cfg.Database.IsLocalEnv)

	require.NotNil(t, cfg.GetBulkConfig())
	assert.Equal(t, "pgx", cfg.Bulk.Backend)
	assert.Equal(t, 500, cfg.Bulk.BatchSize)
	assert.Equal(t, "public.orders", cfg.Bulk.Table)
	assert.Equal(t, []string{"id", "total"}, cfg.Bulk.Columns)
	assert.Equal(t, "public.orders", cfg.Bulk.Tables["order"])
}

func TestEnvVariableOverridesConfig(t *testing.T) {
	configFilePath := createTestConfigFile(t, configContent)
	defer os.Remove(configFilePath)

	// Set environment variable to override the backend
	t.Setenv("BULK_BACKEND", "pq")
	t.Setenv("DATABASE_HOST", "db.internal")

	var cfg TestConfiguration
	err := configmgr.ReadConfiguration(configFilePath, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "pq", cfg.Bulk.Backend) // Expecting overridden value
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 500, cfg.Bulk.BatchSize)
}

func TestInvalidBackendFailsValidation(t *testing.T) {
	configFilePath := createTestConfigFile(t, `
name: "bulkinsert"
bulk:
  backend: oracle
`)
	defer os.Remove(configFilePath)

	var cfg TestConfiguration
	err := configmgr.ReadConfiguration(configFilePath, &cfg)
	require.Error(t, err)

	var valErr *validator.ValidationError
	require.True(t, errors.As(err, &valErr))
	require.Len(t, valErr.GetErrorsDetails(), 1)
	assert.Equal(t, "oneof", valErr.GetErrorsDetails()[0].Tag)
	assert.Contains(t, valErr.GetErrorsDetails()[0].FailedField, "Backend")
}

func TestMissingBulkSectionFailsValidation(t *testing.T) {
	configFilePath := createTestConfigFile(t, `name: "bulkinsert"`)
	defer os.Remove(configFilePath)

	var cfg TestConfiguration
	err := configmgr.ReadConfiguration(configFilePath, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestShippedConfigIsValid(t *testing.T) {
	cfg := &TestConfiguration{}
	require.NoError(t, configmgr.ReadConfiguration(test.ResourcePath("config", "property.yaml"), cfg))

	assert.Equal(t, "pgx", cfg.GetBulkConfig().Backend)
	assert.Equal(t, "analytics", cfg.GetGcpConfig().Dataset)
	assert.True(t, cfg.IsLocalEnvironment())
}
