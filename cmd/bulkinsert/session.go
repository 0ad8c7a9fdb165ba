package main

import (
	"context"

	"github.com/marcodd23/go-bulkcopy/pkg/configmgr"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx/pgxdb"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx/pqdb"
	gcpbigquery "github.com/marcodd23/go-bulkcopy/pkg/platform/gcp/bigquery"
	"github.com/pkg/errors"
)

// newSession builds the session for the configured backend, along with the function releasing it.
var newSession = openSession

func openSession(ctx context.Context, cfg configmgr.Config) (dbx.Session, func(), error) {
	switch backend := cfg.GetBulkConfig().Backend; backend {
	case "pgx":
		connConfig, err := connConfigOf(cfg)
		if err != nil {
			return nil, nil, err
		}

		db, err := pgxdb.SetupPostgresDbManager(ctx, connConfig)
		if err != nil {
			return nil, nil, err
		}

		return db, db.CloseDbConnPool, nil
	case "pq":
		connConfig, err := connConfigOf(cfg)
		if err != nil {
			return nil, nil, err
		}

		session, err := pqdb.Open(connConfig.ConnString())
		if err != nil {
			return nil, nil, err
		}

		return session, func() { _ = session.Close() }, nil
	case "bigquery":
		gcp := cfg.GetGcpConfig()
		if gcp == nil || gcp.ProjectId == "" {
			return nil, nil, errors.New("bigquery backend requires gcp.project")
		}

		bq := gcpbigquery.NewBigQueryManager(gcp.ProjectId, gcp.Dataset, cfg.IsLocalEnvironment())

		return bq, func() { bq.CloseAll(context.Background()) }, nil
	default:
		return nil, nil, errors.Errorf("unknown backend %q", backend)
	}
}

func connConfigOf(cfg configmgr.Config) (dbx.ConnConfig, error) {
	dbCfg := cfg.GetDatabaseConfig()
	if dbCfg == nil {
		return dbx.ConnConfig{}, errors.New("postgres backends require the database section")
	}

	return dbx.ConnConfig{
		VpcDirectConnection: dbCfg.VpcDirectConnection,
		Host:                dbCfg.Host,
		Port:                dbCfg.Port,
		DBName:              dbCfg.DBName,
		User:                dbCfg.User,
		Password:            dbCfg.Password,
		MaxConn:             dbCfg.MaxConn,
		IsLocalEnv:          dbCfg.IsLocalEnv,
	}, nil
}
