package fastresume

import "fmt"

// Opt holds an optional value. The zero Opt is absent, which is distinct
// from a present zero value: an absent key is not written back on encode.
type Opt[T any] struct {
	val T
	ok  bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{val: v, ok: true}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.val, o.ok
}

// IsSet reports whether the value is present.
func (o Opt[T]) IsSet() bool {
	return o.ok
}

// Value returns the value, or the zero value of T when absent.
func (o Opt[T]) Value() T {
	return o.val
}

func (o Opt[T]) String() string {
	if !o.ok {
		return "<absent>"
	}
	return fmt.Sprint(o.val)
}
