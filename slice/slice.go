// Package slice has the functional helpers package slices lacks.
package slice

func Map[T, U any](input []T, fn func(T) U) []U {
	result := make([]U, len(input))
	for i, v := range input {
		result[i] = fn(v)
	}
	return result
}

// Filter keeps the elements pred accepts, in order. The result is never nil.
func Filter[T any](input []T, pred func(T) bool) []T {
	result := make([]T, 0, len(input))
	for _, v := range input {
		if pred(v) {
			result = append(result, v)
		}
	}
	return result
}

// Find returns the first element pred accepts.
func Find[T any](input []T, pred func(T) bool) (T, bool) {
	for _, v := range input {
		if pred(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func Sum[T any](input []T, value func(T) float64) float64 {
	var total float64
	for _, v := range input {
		total += value(v)
	}
	return total
}
