package dbx

// RowConvertibleEntity defines an interface for converting a struct into a row of values for database insertion.
//
// This interface is intended for structs that know their own column layout and want to skip reflection
// entirely. The values returned by `ToRow()` must follow the order of the columns given to NewRowMapping.
//
// Example:
//
//	type Order struct {
//	    Id    int64
//	    Total float64
//	}
//
//	func (o Order) ToRow() []interface{} {
//	    return []interface{}{o.Id, o.Total}
//	}
//
//	mapping, _ := dbx.NewRowMapping[Order]("orders", "Id", "Total")
type RowConvertibleEntity interface {
	ToRow() []interface{} // Converts the struct to a row of values.
}

// NewRowMapping creates a Mapping whose rows are produced by the entity ToRow method.
//
// Per-column accessors are still provided (each one calls ToRow), but materialization calls ToRow
// only once per entity.
func NewRowMapping[T RowConvertibleEntity](table string, columns ...string) (*Mapping[T], error) {
	cols := make([]Column[T], 0, len(columns))
	for i, name := range columns {
		pos := i
		cols = append(cols, Col(name, func(entity T) any {
			row := entity.ToRow()
			if pos >= len(row) {
				return nil
			}

			return row[pos]
		}))
	}

	m, err := NewMapping(table, cols...)
	if err != nil {
		return nil, err
	}

	m.row = func(entity T) []any { return entity.ToRow() }

	return m, nil
}
