package dbx

import (
	"context"
	"fmt"
	"reflect"

	"github.com/marcodd23/go-bulkcopy/pkg/errorx"
	"github.com/marcodd23/go-bulkcopy/pkg/logx"
	"github.com/marcodd23/go-bulkcopy/pkg/utilx"
	"github.com/pkg/errors"
)

type bulkOptions struct {
	batchSize int
}

// BulkOption configures a BulkInsert call.
type BulkOption func(*bulkOptions)

// WithBatchSize splits the transfer into CopyFrom calls of at most size rows, all on the same connection.
//
// By default the whole buffer is sent in a single CopyFrom, which is all-or-nothing as far as the
// underlying facility guarantees it. With more batches, atomicity depends on the connection: a
// Committer (pqdb) commits all the batches at once, otherwise a failure in a later batch leaves the
// earlier ones written.
func WithBatchSize(size int) BulkOption {
	return func(o *bulkOptions) {
		o.batchSize = size
	}
}

// BulkInsert materializes the entities through the mapping and bulk copies them into mapping.Table.
//
// The flow is:
//   - every entity becomes a row of a RowBuffer (nil entities are rejected before any I/O);
//   - an empty buffer is a no-op: (0, nil) and no connection is opened;
//   - one connection is opened from the session, the rows are copied with columns mapped 1:1 by
//     name, and the connection is closed exactly once on every exit path.
//
// Arguments:
//   - ctx: The context for the transfer, propagated to the session and the copy facility.
//   - session: The explicit Session providing the connection.
//   - mapping: The destination table and the ordered columns.
//   - entities: The entities to insert.
//   - opts: Optional BulkOption values.
//
// Returns:
//   - int64: The number of rows copied.
//   - error: A *errorx.BulkTransferError when opening the connection or copying fails; mapping and
//     materialization errors are returned as they are.
func BulkInsert[T any](ctx context.Context, session Session, mapping *Mapping[T], entities []T, opts ...BulkOption) (int64, error) {
	if session == nil {
		return 0, errors.New("nil session")
	}

	if mapping == nil {
		return 0, errors.New("nil mapping")
	}

	if err := mapping.validate(); err != nil {
		return 0, err
	}

	options := bulkOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	entityType := reflect.TypeOf((*T)(nil)).Elem()
	logger := logx.GetLogger()

	buf, err := mapping.Materialize(entities)
	if err != nil {
		return 0, errors.Wrap(err, "error materializing entities")
	}

	if buf.Len() == 0 {
		logger.LogDebug(ctx, fmt.Sprintf("No %v entities to insert into %s", entityType, buf.Table))
		return 0, nil
	}

	transferId := utilx.GenerateUUID().String()
	logger.LogDebug(ctx, fmt.Sprintf("Bulk transfer %s: %d %v rows into %s %v",
		transferId, buf.Len(), entityType, buf.Table, buf.Columns))

	conn, err := session.Open(ctx)
	if err != nil {
		bulkErr := errorx.NewBulkTransferError(entityType, buf.Table, err)
		logger.LogError(ctx, fmt.Sprintf("Bulk transfer %s: error opening connection", transferId), bulkErr)

		return 0, bulkErr
	}

	defer func() {
		// Close must run even when ctx is already cancelled.
		if closeErr := conn.Close(context.WithoutCancel(ctx)); closeErr != nil {
			logger.LogWarning(ctx, fmt.Sprintf("Bulk transfer %s: error closing connection", transferId), closeErr)
		}
	}()

	var copied int64
	for _, chunk := range buf.Chunks(options.batchSize) {
		n, err := conn.CopyFrom(ctx, buf.Table, buf.Columns, chunk)
		if err != nil {
			bulkErr := errorx.NewBulkTransferError(entityType, buf.Table, err)
			logger.LogError(ctx, fmt.Sprintf("Bulk transfer %s failed", transferId), bulkErr)

			return 0, bulkErr
		}

		copied += n
	}

	if committer, ok := conn.(Committer); ok {
		if err := committer.Commit(ctx); err != nil {
			bulkErr := errorx.NewBulkTransferError(entityType, buf.Table, err)
			logger.LogError(ctx, fmt.Sprintf("Bulk transfer %s: commit failed", transferId), bulkErr)

			return 0, bulkErr
		}
	}

	logger.LogInfo(ctx, fmt.Sprintf("Bulk transfer %s: copied %d rows into %s", transferId, copied, buf.Table))

	return copied, nil
}
