package dbx

import (
	"strings"

	"github.com/marcodd23/go-bulkcopy/pkg/errorx"
)

// SplitTableName splits a table name into its identifier parts.
//
// "table" returns ["table"] and "schema.table" returns ["schema", "table"]. Any other shape
// (empty parts, more than one dot) is an error.
func SplitTableName(tableName string) ([]string, error) {
	parts := strings.Split(tableName, ".")
	if len(parts) > 2 {
		return nil, errorx.NewDatabaseError("Invalid table name format: %s", tableName)
	}

	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil, errorx.NewDatabaseError("Invalid table name format: %s", tableName)
		}
	}

	return parts, nil
}
