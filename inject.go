package syringe

import (
	"fmt"
	"reflect"
)

// Inject wraps a function, injecting every parameter the container can
// resolve right now and returning a reduced-arity function that accepts
// only the remaining parameters.
//
// Injectable parameters are re-resolved on every invocation of the wrapped
// function, so mocks and overrides installed after wrapping are honored.
// When a previously injectable parameter can no longer be resolved at call
// time, the wrapped function panics with an *UnknownDependencyError.
//
// Variadic tail parameters are never injected. The returned value is a
// function and must be type-asserted by the caller:
//
//	wrapped, err := c.Inject(func(repo *Repo, name string) string { ... })
//	greet := wrapped.(func(string) string)
func (c *Container) Inject(fn any) (any, error) {
	fnValue := reflect.ValueOf(fn)
	if fnValue.Kind() != reflect.Func {
		return nil, fmt.Errorf("inject target must be a function, got %T", fn)
	}
	fnType := fnValue.Type()

	// Probe which parameters resolve right now. Parameters that miss are
	// kept in the wrapped signature for the caller to supply.
	numIn := fnType.NumIn()
	injectable := make([]bool, numIn)
	kept := make([]reflect.Type, 0, numIn)
	for index := 0; index < numIn; index++ {
		paramType := fnType.In(index)
		if fnType.IsVariadic() && index == numIn-1 {
			kept = append(kept, paramType)
			continue
		}
		_, missed, err := c.active().resolve(c, paramType)
		if err != nil {
			return nil, err
		}
		if missed == nil {
			injectable[index] = true
		} else {
			kept = append(kept, paramType)
		}
	}

	outs := make([]reflect.Type, fnType.NumOut())
	for index := 0; index < fnType.NumOut(); index++ {
		outs[index] = fnType.Out(index)
	}

	wrappedType := reflect.FuncOf(kept, outs, fnType.IsVariadic())
	wrapped := reflect.MakeFunc(wrappedType, func(args []reflect.Value) []reflect.Value {
		full := make([]reflect.Value, numIn)
		supplied := 0
		for index := 0; index < numIn; index++ {
			if !injectable[index] {
				full[index] = args[supplied]
				supplied++
				continue
			}

			paramType := fnType.In(index)
			value, missed, err := c.active().resolve(c, paramType)
			if err != nil {
				panic(err)
			}
			if missed != nil {
				panic(&UnknownDependencyError{Type: paramType, Chain: missed.chain})
			}
			full[index] = valueFor(value, paramType)
		}

		if fnType.IsVariadic() {
			return fnValue.CallSlice(full)
		}
		return fnValue.Call(full)
	})

	return wrapped.Interface(), nil
}
