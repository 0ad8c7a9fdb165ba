package dbx

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// TableNames maps an entity type name (e.g. "Order") to its destination table (e.g. "public.orders").
//
// It's loaded from configuration and replaces the lookup in the ORM model: lookups are exact first,
// then case-insensitive, since configuration keys are usually lower-cased by the loader.
type TableNames map[string]string

// ResolveTable returns the destination table configured for the entity type T.
func ResolveTable[T any](names TableNames) (string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Name() == "" {
		return "", errors.Errorf("entity type %v has no name", t)
	}

	return names.Lookup(t.Name())
}

// Lookup returns the destination table configured for the given entity name.
func (names TableNames) Lookup(entityName string) (string, error) {
	if table, ok := names[entityName]; ok && table != "" {
		return table, nil
	}

	for key, table := range names {
		if strings.EqualFold(key, entityName) && table != "" {
			return table, nil
		}
	}

	return "", errors.Errorf("entity type %s is not mapped to any table", entityName)
}
