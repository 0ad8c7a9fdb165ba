// Package gormschema derives bulk insert mappings from GORM model metadata.
//
// It lets models already annotated for GORM be bulk copied without declaring the columns twice:
// the table name comes from the naming strategy (or the model TableName method) and the columns
// are the creatable fields with a database name, so relations and `gorm:"-"` fields are skipped.
package gormschema

import (
	"context"
	"reflect"
	"sync"

	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/pkg/errors"
	"gorm.io/gorm/schema"
)

// Derive parses the GORM schema of T (a struct or pointer to struct) and builds the matching mapping.
// A nil namer defaults to schema.NamingStrategy{}.
func Derive[T any](namer schema.Namer) (*dbx.Mapping[T], error) {
	sch, err := parse[T](namer)
	if err != nil {
		return nil, err
	}

	return fromSchema[T](sch, sch.Table)
}

// DeriveForTable is Derive with an explicit destination table, overriding the one GORM resolves.
func DeriveForTable[T any](table string, namer schema.Namer) (*dbx.Mapping[T], error) {
	sch, err := parse[T](namer)
	if err != nil {
		return nil, err
	}

	return fromSchema[T](sch, table)
}

func parse[T any](namer schema.Namer) (*schema.Schema, error) {
	if namer == nil {
		namer = schema.NamingStrategy{}
	}

	sch, err := schema.Parse(new(T), &sync.Map{}, namer)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing gorm schema of %v", reflect.TypeOf((*T)(nil)).Elem())
	}

	return sch, nil
}

func fromSchema[T any](sch *schema.Schema, table string) (*dbx.Mapping[T], error) {
	columns := make([]dbx.Column[T], 0, len(sch.Fields))

	for _, field := range sch.Fields {
		if field.DBName == "" || !field.Creatable {
			continue
		}

		f := field
		columns = append(columns, dbx.Col(f.DBName, func(entity T) any {
			value, _ := f.ValueOf(context.Background(), reflect.ValueOf(entity))
			return value
		}))
	}

	return dbx.NewMapping(table, columns...)
}
