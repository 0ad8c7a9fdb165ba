package jsonx

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ParseJSON parses the JSON data into a map
func ParseJSON(jsonData []byte) (map[string]interface{}, error) {
	var event map[string]interface{}
	if err := json.Unmarshal(jsonData, &event); err != nil {
		return nil, errors.WithMessage(err, "failed to parse JSON event")
	}

	return event, nil
}

// ParseJSONRecords parses a JSON array of objects into a slice of records.
// Null array items are rejected, since each record becomes a row.
//
// Integral numbers become int64 so that ids above 2^53 keep their precision, any other number
// becomes float64.
func ParseJSONRecords(jsonData []byte) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()

	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, errors.WithMessage(err, "failed to parse JSON records")
	}

	for i, record := range records {
		if record == nil {
			return nil, errors.Errorf("null record at index %d", i)
		}

		for key, value := range record {
			record[key] = normalizeNumbers(value)
		}
	}

	return records, nil
}

func normalizeNumbers(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}

		if f, err := v.Float64(); err == nil {
			return f
		}

		return v.String()
	case map[string]interface{}:
		for key, item := range v {
			v[key] = normalizeNumbers(item)
		}
	case []interface{}:
		for i, item := range v {
			v[i] = normalizeNumbers(item)
		}
	}

	return value
}
