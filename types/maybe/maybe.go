// Package maybe holds optional values, e.g. nullable fields of API responses.
package maybe

type Maybe[T any] struct {
	value T
	valid bool
}

func Some[T any](value T) Maybe[T] {
	return Maybe[T]{value: value, valid: true}
}

func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// FromPtr is None for a nil pointer.
func FromPtr[T any](p *T) Maybe[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Bind applies f to the value, None stays None.
func Bind[T, U any](m Maybe[T], f func(T) Maybe[U]) Maybe[U] {
	if !m.valid {
		return None[U]()
	}
	return f(m.value)
}

func (m Maybe[T]) IsValid() bool {
	return m.valid
}

func (m Maybe[T]) Value() T {
	return m.value
}

func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.valid
}

func (m Maybe[T]) ValueOrDefault(defaultValue T) T {
	if m.valid {
		return m.value
	}
	return defaultValue
}
