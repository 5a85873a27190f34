package jsoncolumn

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JsonColumn stores a value of T as a JSON encoded column
type JsonColumn[T any] struct {
	V *T
}

// New wraps v for writing
func New[T any](v T) JsonColumn[T] {
	return JsonColumn[T]{V: &v}
}

func (j *JsonColumn[T]) Scan(src any) error {
	if src == nil {
		j.V = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("jsoncolumn: unsupported scan source %T", src)
	}

	j.V = new(T)
	return json.Unmarshal(raw, j.V)
}

func (j JsonColumn[T]) Value() (driver.Value, error) {
	if j.V == nil {
		return nil, nil
	}
	raw, err := json.Marshal(j.V)
	return raw, err
}

func (j *JsonColumn[T]) Get() *T {
	return j.V
}

// Or returns the stored value, or fallback when the column was NULL
func (j JsonColumn[T]) Or(fallback T) T {
	if j.V == nil {
		return fallback
	}
	return *j.V
}
