package models

import (
	"encoding/json"
	"fmt"
)

// Opt holds a value that may be absent. The zero Opt is absent.
type Opt[T any] struct {
	value T
	set   bool
}

// Some wraps a present value
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// None returns an absent value
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is present
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value is present
func (o Opt[T]) IsSet() bool {
	return o.set
}

// OrElse returns the value, or def when absent
func (o Opt[T]) OrElse(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// String renders the value with %v, or "" when absent
func (o Opt[T]) String() string {
	if !o.set {
		return ""
	}
	return fmt.Sprintf("%v", o.value)
}

// MarshalJSON encodes absent values as null
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as absent
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
