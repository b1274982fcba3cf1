package v1

import (
	"bytes"
	"encoding/json"
)

// Optional различает отсутствующее поле, явный null и значение.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some возвращает заданное значение.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null возвращает явный null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present сообщает, что поле задано непустым значением.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// Ptr возвращает указатель на значение или nil.
func (o Optional[T]) Ptr() *T {
	if !o.Present() {
		return nil
	}
	v := o.Value
	return &v
}

// IsZero используется тегом omitzero: незаданное поле не сериализуется.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
