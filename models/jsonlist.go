package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONList is a slice stored as a JSON array in a TEXT column.
type JSONList[T any] []T

// Value implements driver.Valuer. A nil list is stored as "[]".
func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]T(l))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json list: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner. NULL and empty strings decode to an empty list.
func (l *JSONList[T]) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = JSONList[T]{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported json list source %T", src)
	}
	if len(data) == 0 {
		*l = JSONList[T]{}
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to unmarshal json list: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	*l = out
	return nil
}
