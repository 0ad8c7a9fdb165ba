package configmgr

// Config - config interface.
type Config interface {
	GetServiceName() string
	GetVersion() string
	GetEnvironment() string
	GetGcpConfig() *GcpConfig
	GetLoggingConfig() *LoggingConfig
	GetDatabaseConfig() *DatabaseConfig
	GetBulkConfig() *BulkConfig
	IsLocalEnvironment() bool
}

// BaseConfig - app config struct.
// This struct represents the base configuration for the application and is expected to be in the following YAML format:
/*
name: "bulkinsert"
environment: "development"
version: "1.0"
logging:
  level: "debug"
gcp:
  project: test-project
  location: europe-west4
database:
  host: localhost
  port: 5432
  dbName: main-db
  user: postgres
  password: password
  maxConn: 1
  isLocalEnv: true
bulk:
  backend: pgx
  batchSize: 0
  table: public.orders
  columns: [id, total]
  tables:
    Order: public.orders
*/
type BaseConfig struct {
	Name        string          `mapstructure:"name" validate:"required"`
	Environment string          `mapstructure:"environment"`
	Version     string          `mapstructure:"version"`
	Logging     *LoggingConfig  `mapstructure:"logging"`
	Gcp         *GcpConfig      `mapstructure:"gcp"`
	Database    *DatabaseConfig `mapstructure:"database"`
	Bulk        *BulkConfig     `mapstructure:"bulk" validate:"required"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

type GcpConfig struct {
	ProjectId     string `mapstructure:"project"`
	ProjectNumber string `mapstructure:"projectNumber"`
	Location      string `mapstructure:"location"`
	Dataset       string `mapstructure:"dataset"`
}

// DatabaseConfig - connection properties for the Postgres backends.
type DatabaseConfig struct {
	VpcDirectConnection bool   `mapstructure:"vpcDirectConnection"`
	Host                string `mapstructure:"host"`
	Port                int32  `mapstructure:"port" validate:"gte=0,lte=65535"`
	DBName              string `mapstructure:"dbName"`
	User                string `mapstructure:"user"`
	Password            string `mapstructure:"password"`
	MaxConn             int32  `mapstructure:"maxConn" validate:"gte=0"`
	IsLocalEnv          bool   `mapstructure:"isLocalEnv"`
}

// BulkConfig - bulk transfer properties.
//
// Tables maps an entity type name to its destination table, and it's the explicit replacement
// for resolving table names from ORM metadata.
type BulkConfig struct {
	Backend   string            `mapstructure:"backend" validate:"required,oneof=pgx pq bigquery"`
	BatchSize int               `mapstructure:"batchSize" validate:"gte=0"`
	Table     string            `mapstructure:"table"`
	Columns   []string          `mapstructure:"columns"`
	Tables    map[string]string `mapstructure:"tables"`
}

func (cfg BaseConfig) GetServiceName() string {
	return cfg.Name
}

func (cfg BaseConfig) GetVersion() string {
	return cfg.Version
}

func (cfg BaseConfig) GetEnvironment() string {
	return cfg.Environment
}

func (cfg BaseConfig) IsLocalEnvironment() bool {
	return checkIfLocalEnv(cfg.Environment)
}

func (cfg BaseConfig) GetGcpConfig() *GcpConfig {
	return cfg.Gcp
}

func (cfg BaseConfig) GetLoggingConfig() *LoggingConfig {
	return cfg.Logging
}

func (cfg BaseConfig) GetDatabaseConfig() *DatabaseConfig {
	return cfg.Database
}

func (cfg BaseConfig) GetBulkConfig() *BulkConfig {
	return cfg.Bulk
}
