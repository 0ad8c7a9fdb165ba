package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcodd23/go-bulkcopy/pkg/configmgr"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/marcodd23/go-bulkcopy/pkg/errorx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProperties = `
name: "bulkinsert"
environment: "local"
logging:
  level: "error"
bulk:
  backend: pq
  batchSize: 2
  table: public.orders
  tables:
    invoice: sales.invoices
`

type copyCall struct {
	table   string
	columns []string
	rows    [][]any
}

type recordingSession struct {
	calls   []copyCall
	copyErr error
	closed  int
}

func (s *recordingSession) Open(ctx context.Context) (dbx.CopyConn, error) { return s, nil }

func (s *recordingSession) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if s.copyErr != nil {
		return 0, s.copyErr
	}

	s.calls = append(s.calls, copyCall{table, columns, rows})

	return int64(len(rows)), nil
}

func (s *recordingSession) Close(ctx context.Context) error {
	s.closed++
	return nil
}

func setup(t *testing.T, session *recordingSession, expectSession bool) string {
	t.Helper()
	t.Setenv("ENVIRONMENT", "LOCAL")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "property.yaml"), []byte(testProperties), 0o600))

	released := false
	previous := newSession
	newSession = func(ctx context.Context, cfg configmgr.Config) (dbx.Session, func(), error) {
		assert.Equal(t, "pq", cfg.GetBulkConfig().Backend)
		return session, func() { released = true }, nil
	}

	t.Cleanup(func() {
		newSession = previous
		assert.Equal(t, expectSession, released)
	})

	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestInsertFromStdin(t *testing.T) {
	session := &recordingSession{}
	dir := setup(t, session, true)

	out, err := execute(t, `[{"id": 1, "total": 9.5}, {"id": 2, "total": 3}, {"id": 3, "status": "new"}]`,
		"--config", dir, "--input", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "3 rows inserted into public.orders")

	// batchSize 2 from the configuration
	require.Len(t, session.calls, 2)
	assert.Equal(t, "public.orders", session.calls[0].table)
	assert.Equal(t, []string{"id", "status", "total"}, session.calls[0].columns)
	assert.Equal(t, []any{int64(1), nil, 9.5}, session.calls[0].rows[0])
	assert.Equal(t, []any{int64(3), "new", nil}, session.calls[1].rows[0])
	assert.Equal(t, 1, session.closed)
}

func TestInsertFromFileWithFlags(t *testing.T) {
	session := &recordingSession{}
	dir := setup(t, session, true)

	input := filepath.Join(t.TempDir(), "invoices.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"number": "INV-1", "amount": 10, "ignored": true}]`), 0o600))

	out, err := execute(t, "", "--config", dir, "--input", input,
		"--entity", "Invoice", "--columns", "number,amount", "--batch-size", "0",
		"--memprofile", filepath.Join(t.TempDir(), "mem.pprof"))
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows inserted into sales.invoices")

	require.Len(t, session.calls, 1)
	assert.Equal(t, []string{"number", "amount"}, session.calls[0].columns)
	assert.Equal(t, [][]any{{"INV-1", int64(10)}}, session.calls[0].rows)
}

func TestInsertKeepsLargeIds(t *testing.T) {
	session := &recordingSession{}
	dir := setup(t, session, true)

	_, err := execute(t, `[{"id": 9007199254740993}]`, "--config", dir, "--columns", "id")
	require.NoError(t, err)

	require.Len(t, session.calls, 1)
	assert.Equal(t, []any{int64(9007199254740993)}, session.calls[0].rows[0])
}

func TestInsertFailure(t *testing.T) {
	session := &recordingSession{copyErr: errors.New("duplicate key")}
	dir := setup(t, session, true)

	_, err := execute(t, `[{"id": 1}]`, "--config", dir, "--table", "orders")
	require.Error(t, err)

	var bulkErr *errorx.BulkTransferError
	require.ErrorAs(t, err, &bulkErr)
	assert.Equal(t, "orders", bulkErr.Table)
	assert.Equal(t, 1, session.closed)
}

func TestUnknownEntity(t *testing.T) {
	dir := setup(t, &recordingSession{}, false)

	_, err := execute(t, `[{"id": 1}]`, "--config", dir, "--entity", "Shipment")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Shipment is not mapped")
}
