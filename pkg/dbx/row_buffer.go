package dbx

import (
	"reflect"

	"github.com/pkg/errors"
)

// RowBuffer is the transient tabular representation of a set of entities.
//
// It lives for the duration of a single bulk insert: one row per entity, one value per column,
// values in column order and passed through as read from the entity.
type RowBuffer struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// Len returns the number of buffered rows.
func (b *RowBuffer) Len() int {
	return len(b.Rows)
}

// Chunks splits the rows into consecutive slices of at most size rows.
// A size <= 0 returns all the rows as a single chunk.
func (b *RowBuffer) Chunks(size int) [][][]any {
	if size <= 0 || size >= len(b.Rows) {
		return [][][]any{b.Rows}
	}

	chunks := make([][][]any, 0, (len(b.Rows)+size-1)/size)
	for start := 0; start < len(b.Rows); start += size {
		end := min(start+size, len(b.Rows))
		chunks = append(chunks, b.Rows[start:end])
	}

	return chunks
}

// Materialize copies the entities into a RowBuffer.
//
// Nil entities are rejected, and a row that doesn't match the column count is an error.
func (m *Mapping[T]) Materialize(entities []T) (*RowBuffer, error) {
	buf := &RowBuffer{
		Table:   m.Table,
		Columns: m.ColumnNames(),
		Rows:    make([][]any, 0, len(entities)),
	}

	for i, entity := range entities {
		if isNilEntity(entity) {
			return nil, errors.Errorf("nil entity at index %d", i)
		}

		row := m.rowOf(entity)
		if len(row) != len(buf.Columns) {
			return nil, errors.Errorf("entity at index %d produced %d values for %d columns", i, len(row), len(buf.Columns))
		}

		buf.Rows = append(buf.Rows, row)
	}

	return buf, nil
}

func isNilEntity(entity any) bool {
	v := reflect.ValueOf(entity)
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}

	return false
}
