package dbx

import (
	"database/sql/driver"
	"encoding"
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Column maps one destination column to the accessor reading its value from an entity.
type Column[T any] struct {
	Name  string
	Value func(entity T) any
}

// Col is a shorthand to declare a Column.
func Col[T any](name string, value func(entity T) any) Column[T] {
	return Column[T]{Name: name, Value: value}
}

// Mapping describes how entities of type T are turned into rows of the destination Table.
//
// Columns are ordered: the i-th value of every materialized row belongs to Columns[i]. A mapping
// is the explicit counterpart of ORM metadata, so it can be declared by hand (NewMapping),
// derived from struct fields (DeriveMapping), from a RowConvertibleEntity (NewRowMapping), or from
// an external schema source such as gormschema.Derive.
type Mapping[T any] struct {
	Table   string
	Columns []Column[T]

	// row, when set, produces the whole row at once and the column accessors are ignored.
	row func(entity T) []any
}

// NewMapping creates a Mapping, checking that the table is set and column names are non-empty and unique.
func NewMapping[T any](table string, columns ...Column[T]) (*Mapping[T], error) {
	m := &Mapping[T]{Table: table, Columns: columns}
	if err := m.validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// MapColumns creates a Mapping over generic records, reading every column by key.
// Missing keys materialize as nil.
func MapColumns(table string, columns ...string) (*Mapping[map[string]any], error) {
	cols := make([]Column[map[string]any], 0, len(columns))
	for _, name := range columns {
		key := name
		cols = append(cols, Col(key, func(record map[string]any) any { return record[key] }))
	}

	return NewMapping(table, cols...)
}

// ColumnNames returns the destination column names in mapping order.
func (m *Mapping[T]) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, col := range m.Columns {
		names[i] = col.Name
	}

	return names
}

func (m *Mapping[T]) validate() error {
	if strings.TrimSpace(m.Table) == "" {
		return errors.New("mapping has no destination table")
	}

	if len(m.Columns) == 0 {
		return errors.Errorf("mapping for table %s has no columns", m.Table)
	}

	seen := make(map[string]struct{}, len(m.Columns))
	for _, col := range m.Columns {
		if col.Name == "" {
			return errors.Errorf("mapping for table %s has an empty column name", m.Table)
		}

		if col.Value == nil && m.row == nil {
			return errors.Errorf("column %q has no value accessor", col.Name)
		}

		if _, ok := seen[col.Name]; ok {
			return errors.Errorf("mapping for table %s has duplicated column %q", m.Table, col.Name)
		}

		seen[col.Name] = struct{}{}
	}

	return nil
}

func (m *Mapping[T]) rowOf(entity T) []any {
	if m.row != nil {
		return m.row(entity)
	}

	row := make([]any, len(m.Columns))
	for i, col := range m.Columns {
		row[i] = col.Value(entity)
	}

	return row
}

// =====================================
// Reflection based mapping
// =====================================

var (
	timeType          = reflect.TypeOf(time.Time{})
	valuerType        = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

type structField struct {
	name  string
	index []int
}

// DeriveMapping derives a Mapping from the exported fields of the struct T (or *T).
//
// Columns follow the field declaration order and anonymous embedded structs are flattened. The
// column name is the `tagKey` tag name when present, otherwise the Go field name. A field is
// skipped when:
//   - it's unexported;
//   - it's tagged `tagKey:"-"`;
//   - it's a navigation field: a struct, pointer to struct, or slice/array of structs that is not
//     a scalar value type (time.Time, driver.Valuer, encoding.TextMarshaler).
//
// Example:
//
//	type Order struct {
//	    Id       int64
//	    Total    float64
//	    Customer *Customer       // navigation, skipped
//	    Note     string `db:"-"` // not mapped, skipped
//	}
//	mapping, _ := DeriveMapping[Order]("orders", "db")
//	// mapping.ColumnNames() == []string{"Id", "Total"}
func DeriveMapping[T any](table, tagKey string) (*Mapping[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("expected a struct type, got %v", t)
	}

	fields := collectFields(t, nil, tagKey)

	columns := make([]Column[T], 0, len(fields))
	for _, f := range fields {
		index := f.index
		columns = append(columns, Col(f.name, func(entity T) any {
			return fieldValue(reflect.ValueOf(entity), index)
		}))
	}

	return NewMapping(table, columns...)
}

func collectFields(t reflect.Type, parent []int, tagKey string) []structField {
	var fields []structField

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)

		tagName, _, _ := strings.Cut(sf.Tag.Get(tagKey), ",")
		if tagName == "-" {
			continue
		}

		index := append(append([]int(nil), parent...), i)

		if sf.Anonymous && tagName == "" {
			embedded := sf.Type
			if embedded.Kind() == reflect.Ptr {
				embedded = embedded.Elem()
			}

			if embedded.Kind() == reflect.Struct && !isScalarType(embedded) {
				fields = append(fields, collectFields(embedded, index, tagKey)...)
				continue
			}
		}

		if !sf.IsExported() || isNavigation(sf.Type) {
			continue
		}

		if tagName == "" {
			tagName = sf.Name
		}

		fields = append(fields, structField{name: tagName, index: index})
	}

	return fields
}

func fieldValue(v reflect.Value, index []int) any {
	v = reflect.Indirect(v)

	fv, err := v.FieldByIndexErr(index)
	if err != nil {
		// nil embedded pointer
		return nil
	}

	return fv.Interface()
}

func isScalarType(t reflect.Type) bool {
	if t == timeType {
		return true
	}

	return t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType) ||
		t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType)
}

func isNavigation(t reflect.Type) bool {
	if isScalarType(t) {
		return false
	}

	switch t.Kind() {
	case reflect.Ptr:
		return t.Elem().Kind() == reflect.Struct && !isScalarType(t.Elem())
	case reflect.Struct:
		return true
	case reflect.Slice, reflect.Array:
		elem := t.Elem()
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}

		return elem.Kind() == reflect.Struct && !isScalarType(elem)
	}

	return false
}
