// Package syringe is a mock-friendly dependency resolution container.
//
// Given a requested type, the container produces a fully constructed
// instance by invoking a registered factory, recursively inferring struct
// fields by their types, substituting a goroutine-local test double, or
// following an alias redirect. Resolution is deterministic, cycle-checked
// and safe for concurrent use from multiple goroutines.
//
// # Quick start
//
//	c, err := syringe.New(
//	    syringe.NewFactory(func() *Database {
//	        return OpenDatabase("sqlite://")
//	    }),
//	)
//
//	svc, err := syringe.Provide[*Service](c)
//
// Types without a factory are constructed by inference: every exported
// struct field is resolved by its type, recursively. Fields tagged
// `inject:"optional"` fall back to their zero value, fields tagged
// `inject:"-"` are never touched, and Optional[T] fields receive a present
// or empty box.
//
// # Testing
//
// Mocks installed with UseMock, or scoped with Override, are visible only
// to the goroutine that installed them, so parallel tests sharing one
// container cannot observe each other's doubles:
//
//	restore := syringe.Override[*Database](c, mockDB)
//	defer restore()
package syringe
