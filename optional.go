package syringe

import (
	"reflect"
	"unsafe"
)

// Optional declares an optional dependency of a struct.
//
// A field of type Optional[T] is filled with a present box when T is
// resolvable and left as an empty box otherwise, so the owning type can be
// constructed either way.
//
// Example:
//
//	type Service struct {
//	    Cache syringe.Optional[*Cache]
//	}
type Optional[T any] struct {
	value   T
	present bool
}

// Get returns the boxed instance, or the zero value when absent.
func (o Optional[T]) Get() T {
	return o.value
}

// Present reports whether a value was resolved into the box.
func (o Optional[T]) Present() bool {
	return o.present
}

// Optional marks this type as optional.
func (o Optional[T]) Optional() {}

// Of returns a present box holding value. It is mostly useful in tests.
func Of[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

// isOptionalType checks and returns the optional box element type.
func isOptionalType(typ reflect.Type) (reflect.Type, bool) {
	if typ.Kind() == reflect.Struct {
		if _, ok := typ.MethodByName("Optional"); ok {
			if methodValue, ok := typ.MethodByName("Get"); ok {
				if methodValue.Type.NumOut() == 1 {
					return methodValue.Type.Out(0), true
				}
			}
		}
	}
	return nil, false
}

// newOptionalValue creates a present optional box with a value.
func newOptionalValue(typ reflect.Type, value reflect.Value) reflect.Value {
	// Prepare boxing struct for value.
	box := reflect.New(typ).Elem()

	// Inject the resolved value into the boxing struct.
	setUnexportedField(box.FieldByName("value"), value)
	setUnexportedField(box.FieldByName("present"), reflect.ValueOf(true))

	return box
}

// setUnexportedField writes an unexported field of an addressable struct.
func setUnexportedField(field reflect.Value, value reflect.Value) {
	pointer := unsafe.Pointer(field.UnsafeAddr())
	public := reflect.NewAt(field.Type(), pointer)
	public.Elem().Set(value)
}
