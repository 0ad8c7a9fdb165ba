package bigquery

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/marcodd23/go-bulkcopy/pkg/logx"
	"github.com/marcodd23/go-bulkcopy/pkg/utilx"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// putter is the subset of *bigquery.Inserter used to stream rows.
type putter interface {
	Put(ctx context.Context, src interface{}) error
}

// BqManager is a dbx.Session streaming rows into BigQuery tables.
//
// The BigQuery client is created lazily, once, on the first CopyFrom. Tables are addressed as
// "dataset.table"; a bare "table" resolves against the default dataset.
type BqManager struct {
	client     *bigquery.Client
	projectId  string
	datasetId  string
	isLocalEnv bool
	once       sync.Once
	clientErr  error

	inserter func(ctx context.Context, datasetId, tableId string) (putter, error)
}

// NewBigQueryManager initializes and returns a new BqManager.
//
// Parameters:
// - projectId: The GCP project ID.
// - datasetId: The default dataset for table names without a dataset part. May be empty.
// - isLocalEnv: A boolean indicating if the environment is local (used to determine authentication method).
//
// Returns:
// - A pointer to the initialized BqManager.
func NewBigQueryManager(projectId, datasetId string, isLocalEnv bool) *BqManager {
	bq := &BqManager{
		projectId:  projectId,
		datasetId:  datasetId,
		isLocalEnv: isLocalEnv,
	}
	bq.inserter = bq.clientInserter

	return bq
}

// Open returns a connection streaming through the shared client.
func (bq *BqManager) Open(ctx context.Context) (dbx.CopyConn, error) {
	if bq.projectId == "" {
		return nil, errors.New("missing GCP project id")
	}

	return &streamConn{bq: bq}, nil
}

func (bq *BqManager) clientInserter(ctx context.Context, datasetId, tableId string) (putter, error) {
	client, err := bq.getBigQueryClient(ctx)
	if err != nil {
		return nil, err
	}

	return client.Dataset(datasetId).Table(tableId).Inserter(), nil
}

// getBigQueryClient initializes the BigQuery client if it doesn't exist and returns it.
//
// This method ensures the client is created only once using sync.Once.
func (bq *BqManager) getBigQueryClient(ctx context.Context) (*bigquery.Client, error) {
	bq.once.Do(func() {
		logx.GetLogger().LogInfo(ctx, "Initializing BigQuery client")

		bq.client, bq.clientErr = bq.newBigQueryClient(ctx)
		if bq.clientErr != nil {
			bq.clientErr = errors.WithMessage(bq.clientErr, "error creating BigQuery client")
		}
	})

	return bq.client, bq.clientErr
}

// newBigQueryClient handles authentication based on whether the environment is local or remote.
// For local environments, it uses a credentials file.
func (bq *BqManager) newBigQueryClient(ctx context.Context) (*bigquery.Client, error) {
	var client *bigquery.Client

	var err error

	if bq.isLocalEnv {
		client, err = bigquery.NewClient(ctx, bq.projectId, option.WithCredentialsFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")))
	} else {
		client, err = bigquery.NewClient(ctx, bq.projectId)
	}

	if err != nil {
		return nil, errors.WithMessage(err, "error initializing BigQuery client")
	}

	return client, nil
}

// resolveTable splits "dataset.table", falling back to the default dataset.
func (bq *BqManager) resolveTable(table string) (string, string, error) {
	parts, err := dbx.SplitTableName(table)
	if err != nil {
		return "", "", err
	}

	if len(parts) == 2 {
		return parts[0], parts[1], nil
	}

	if bq.datasetId == "" {
		return "", "", errors.Errorf("table %s has no dataset and no default dataset is configured", table)
	}

	return bq.datasetId, parts[0], nil
}

// CloseAll closes the BigQuery client, if it was ever created.
//
// Once closed, the manager can't create a client anymore and further copies fail.
func (bq *BqManager) CloseAll(ctx context.Context) {
	// waits for a concurrent client initialization, or prevents a later one
	bq.once.Do(func() {
		bq.clientErr = errors.New("BigQuery manager closed")
	})

	if bq.client == nil {
		return
	}

	logx.GetLogger().LogInfo(ctx, "Closing BigQuery client")

	if err := bq.client.Close(); err != nil {
		logx.GetLogger().LogError(ctx, "Error closing BigQuery client", err)
	}
}

type streamConn struct {
	bq *BqManager
}

// CopyFrom streams the rows with a single Put. Each row carries its own insert id so that a
// retried Put is deduplicated by BigQuery.
func (c *streamConn) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	datasetId, tableId, err := c.bq.resolveTable(table)
	if err != nil {
		return 0, err
	}

	ins, err := c.bq.inserter(ctx, datasetId, tableId)
	if err != nil {
		return 0, err
	}

	schema := inferSchema(columns, rows)

	savers := make([]*bigquery.ValuesSaver, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, errors.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}

		values := make([]bigquery.Value, len(row))
		for j, v := range row {
			values[j] = v
		}

		savers[i] = &bigquery.ValuesSaver{
			Schema:   schema,
			InsertID: utilx.GenerateUUID().String(),
			Row:      values,
		}
	}

	if err := ins.Put(ctx, savers); err != nil {
		return 0, errors.Wrapf(err, "error streaming rows into %s.%s", datasetId, tableId)
	}

	logx.GetLogger().LogDebug(ctx, fmt.Sprintf("Streamed %d rows into %s.%s", len(rows), datasetId, tableId))

	return int64(len(rows)), nil
}

// Close is a no-op: the client is shared by the manager.
func (c *streamConn) Close(ctx context.Context) error {
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

// inferSchema types every column after its first non-nil value. Columns that are nil in every row
// default to STRING.
func inferSchema(columns []string, rows [][]any) bigquery.Schema {
	schema := make(bigquery.Schema, len(columns))

	for i, name := range columns {
		fieldType := bigquery.StringFieldType

		for _, row := range rows {
			if i < len(row) && row[i] != nil {
				fieldType = fieldTypeOf(row[i])
				break
			}
		}

		schema[i] = &bigquery.FieldSchema{Name: name, Type: fieldType}
	}

	return schema
}

func fieldTypeOf(v any) bigquery.FieldType {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == timeType {
		return bigquery.TimestampFieldType
	}

	switch t.Kind() {
	case reflect.Bool:
		return bigquery.BooleanFieldType
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return bigquery.IntegerFieldType
	case reflect.Float32, reflect.Float64:
		return bigquery.FloatFieldType
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return bigquery.BytesFieldType
		}
	}

	return bigquery.StringFieldType
}
