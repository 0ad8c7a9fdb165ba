package bigquery

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/marcodd23/go-bulkcopy/pkg/errorx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	savers []*bigquery.ValuesSaver
	err    error
}

func (f *fakePutter) Put(ctx context.Context, src interface{}) error {
	if f.err != nil {
		return f.err
	}

	f.savers = append(f.savers, src.([]*bigquery.ValuesSaver)...)

	return nil
}

type target struct {
	dataset, table string
}

func newTestManager(datasetId string, put *fakePutter, targets *[]target) *BqManager {
	bq := NewBigQueryManager("test-project", datasetId, true)
	bq.inserter = func(ctx context.Context, d, t string) (putter, error) {
		*targets = append(*targets, target{d, t})
		return put, nil
	}

	return bq
}

type Event struct {
	Id        int64     `bq:"id"`
	Name      string    `bq:"name"`
	Score     float64   `bq:"score"`
	Active    bool      `bq:"active"`
	CreatedAt time.Time `bq:"created_at"`
	Payload   []byte    `bq:"payload"`
	Note      *string   `bq:"note"`
}

func TestBulkInsertStreamsValuesSavers(t *testing.T) {
	put := &fakePutter{}
	var targets []target
	bq := newTestManager("", put, &targets)

	mapping, err := dbx.DeriveMapping[Event]("analytics.events", "bq")
	require.NoError(t, err)

	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	events := []Event{
		{Id: 1, Name: "signup", Score: 1.5, Active: true, CreatedAt: createdAt, Payload: []byte("a")},
		{Id: 2, Name: "login", Score: 2, CreatedAt: createdAt},
	}

	rowCount, err := dbx.BulkInsert(context.Background(), bq, mapping, events)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rowCount)

	assert.Equal(t, []target{{"analytics", "events"}}, targets)
	require.Len(t, put.savers, 2)

	schema := put.savers[0].Schema
	require.Len(t, schema, 7)
	assert.Equal(t, "id", schema[0].Name)
	assert.Equal(t, bigquery.IntegerFieldType, schema[0].Type)
	assert.Equal(t, bigquery.StringFieldType, schema[1].Type)
	assert.Equal(t, bigquery.FloatFieldType, schema[2].Type)
	assert.Equal(t, bigquery.BooleanFieldType, schema[3].Type)
	assert.Equal(t, bigquery.TimestampFieldType, schema[4].Type)
	assert.Equal(t, bigquery.BytesFieldType, schema[5].Type)
	// *string typed nil still carries its type
	assert.Equal(t, bigquery.StringFieldType, schema[6].Type)

	assert.Equal(t, bigquery.Value(int64(1)), put.savers[0].Row[0])
	assert.Equal(t, bigquery.Value("login"), put.savers[1].Row[1])
	assert.NotEmpty(t, put.savers[0].InsertID)
	assert.NotEqual(t, put.savers[0].InsertID, put.savers[1].InsertID)
}

func TestCopyFromUsesDefaultDataset(t *testing.T) {
	put := &fakePutter{}
	var targets []target
	bq := newTestManager("analytics", put, &targets)

	conn, err := bq.Open(context.Background())
	require.NoError(t, err)

	n, err := conn.CopyFrom(context.Background(), "events", []string{"id"}, [][]any{{int64(1)}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []target{{"analytics", "events"}}, targets)
	assert.NoError(t, conn.Close(context.Background()))
}

func TestCopyFromWithoutDataset(t *testing.T) {
	var targets []target
	bq := newTestManager("", &fakePutter{}, &targets)

	conn, err := bq.Open(context.Background())
	require.NoError(t, err)

	_, err = conn.CopyFrom(context.Background(), "events", []string{"id"}, [][]any{{int64(1)}})
	assert.Error(t, err)
	assert.Empty(t, targets)
}

func TestPutFailureIsBulkTransferError(t *testing.T) {
	cause := errors.New("quota exceeded")
	var targets []target
	bq := newTestManager("analytics", &fakePutter{err: cause}, &targets)

	mapping, err := dbx.MapColumns("events", "id")
	require.NoError(t, err)

	_, err = dbx.BulkInsert(context.Background(), bq, mapping, []map[string]any{{"id": 1}})
	require.Error(t, err)

	var bulkErr *errorx.BulkTransferError
	require.ErrorAs(t, err, &bulkErr)
	assert.Equal(t, "events", bulkErr.Table)
	assert.ErrorIs(t, err, cause)
}

func TestOpenWithoutProject(t *testing.T) {
	bq := NewBigQueryManager("", "analytics", true)

	_, err := bq.Open(context.Background())
	assert.Error(t, err)
}

func TestInferSchemaAllNil(t *testing.T) {
	schema := inferSchema([]string{"a", "b"}, [][]any{{nil, 1}, {nil, 2}})

	assert.Equal(t, bigquery.StringFieldType, schema[0].Type)
	assert.Equal(t, bigquery.IntegerFieldType, schema[1].Type)
}

func TestCloseAllWithoutClient(t *testing.T) {
	bq := NewBigQueryManager("test-project", "analytics", true)

	bq.CloseAll(context.Background())

	conn, err := bq.Open(context.Background())
	require.NoError(t, err)

	_, err = conn.CopyFrom(context.Background(), "events", []string{"id"}, [][]any{{int64(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BigQuery manager closed")
}
