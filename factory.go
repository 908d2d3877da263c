/*
 * SPDX-FileCopyrightText: Copyright (c) 2025 Hugo Chinchilla. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package syringe

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// FactoryFunc declares the type for a service factory function.
// A factory function produces exactly one service instance, optionally
// followed by an error, and may accept the resolving container to provide
// further dependencies. The container validates its signature at runtime
// using reflection.
//
// Valid example signatures:
//
//	// No dependencies, one produced service.
//	func() *Database
//
//	// One produced service, an error.
//	func() (*Database, error)
//
//	// Access to the resolving container for nested provides.
//	func(c *syringe.Container) (*Repo, error)
type FactoryFunc any

// Factory declares a service factory definition used by the container to
// construct services. It wraps a factory function along with its name and
// reflected signature information.
//
// It is created using NewFactory or NewInstance and registered with New.
type Factory struct {
	// Factory function.
	factoryFunc FactoryFunc

	// Factory function name.
	factoryName string

	// Factory function location.
	factorySource string

	// Factory function value.
	factoryValue reflect.Value

	// Factory output type, the binding key.
	factoryOutType reflect.Type

	// Factory accepts the resolving container.
	factoryInContainer bool

	// Factory output error.
	factoryOutError bool

	// Factory is loaded.
	factoryLoaded bool
}

// Name returns factory function name.
func (f *Factory) Name() string {
	return f.factoryName
}

// Source returns factory function source.
func (f *Factory) Source() string {
	return f.factorySource
}

// load initializes factory definition internal values.
func (f *Factory) load() error {
	if f.factoryLoaded {
		return errors.New("invalid factory func: already loaded")
	}

	// Check factory configured.
	if f.factoryFunc == nil {
		return errors.New("invalid factory func: no func specified")
	}

	// Validate factory type and signature.
	factoryType := reflect.TypeOf(f.factoryFunc)
	f.factoryValue = reflect.ValueOf(f.factoryFunc)
	if factoryType.Kind() != reflect.Func {
		return fmt.Errorf("invalid factory func: not a function: %s", factoryType)
	}

	// The single allowed input is the resolving container.
	switch factoryType.NumIn() {
	case 0:
	case 1:
		if factoryType.In(0) != containerType {
			return fmt.Errorf("invalid factory func: argument must be %s: %s", containerType, factoryType)
		}
		f.factoryInContainer = true
	default:
		return fmt.Errorf("invalid factory func: too many arguments: %s", factoryType)
	}

	// The output is one produced service plus an optional error.
	switch factoryType.NumOut() {
	case 1:
		if factoryType.Out(0) == errorType {
			return fmt.Errorf("invalid factory func: no service produced: %s", factoryType)
		}
		f.factoryOutType = factoryType.Out(0)
	case 2:
		if factoryType.Out(1) != errorType {
			return fmt.Errorf("invalid factory func: last result must be an error: %s", factoryType)
		}
		f.factoryOutType = factoryType.Out(0)
		f.factoryOutError = true
	default:
		return fmt.Errorf("invalid factory func: must produce one service: %s", factoryType)
	}

	// Save the factory load status.
	f.factoryLoaded = true
	return nil
}

// call invokes the factory function, passing the currently resolving
// container when the signature asks for it.
func (f *Factory) call(c *Container) (any, error) {
	var in []reflect.Value
	if f.factoryInContainer {
		in = []reflect.Value{reflect.ValueOf(c)}
	}

	out := f.factoryValue.Call(in)
	if f.factoryOutError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// FactoryOpt defines a functional option for configuring a service factory.
type FactoryOpt func(*Factory)

// WithFactoryName overrides the diagnostic name of the factory, used in
// error messages and dependency graphs.
func WithFactoryName(name string) FactoryOpt {
	return func(factory *Factory) {
		factory.factoryName = name
	}
}

// NewInstance creates a factory that always returns the given prebuilt
// value. This is useful for registering constants, externally constructed
// clients, or configuration objects.
//
// Example:
//
//	logger := NewLogger()
//	syringe.NewInstance(logger)
func NewInstance[T any](value T, opts ...FactoryOpt) *Factory {
	dataType := reflect.TypeOf(&value).Elem()
	factory := &Factory{
		factoryFunc:   func() T { return value },
		factoryName:   fmt.Sprintf("Instance[%s]", dataType),
		factorySource: dataType.PkgPath(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// NewFactory creates a new service factory using the provided factory
// function. The declared return type becomes the binding key consulted
// during resolution.
//
// Example:
//
//	syringe.NewFactory(func() *Database {
//	    return OpenDatabase("sqlite://")
//	})
func NewFactory(factoryFn FactoryFunc, opts ...FactoryOpt) *Factory {
	factory := &Factory{factoryFunc: factoryFn}
	if funcValue := reflect.ValueOf(factoryFn); funcValue.Kind() == reflect.Func {
		factory.factoryName = fmt.Sprintf("Factory[%s]", funcValue.Type())
		factory.factorySource = getFuncSource(funcValue)
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// factoryTable indexes loaded factories by their declared return type.
// It is built once per resolver and immutable afterwards.
type factoryTable struct {
	byType  map[reflect.Type]*Factory
	ordered []*Factory
}

// newFactoryTable loads and indexes the given factories. When two factories
// declare the same return type, the later registered one wins.
func newFactoryTable(factories []*Factory) (*factoryTable, error) {
	table := &factoryTable{
		byType:  make(map[reflect.Type]*Factory, len(factories)),
		ordered: make([]*Factory, 0, len(factories)),
	}
	for _, factory := range factories {
		if err := factory.load(); err != nil {
			return nil, fmt.Errorf("failed to register factory: %w", err)
		}
		table.byType[factory.factoryOutType] = factory
		table.ordered = append(table.ordered, factory)
	}
	return table, nil
}

// lookup returns the factory bound to the exact type, or nil.
func (t *factoryTable) lookup(typ reflect.Type) *Factory {
	return t.byType[typ]
}

// getFuncSource returns func source path.
func getFuncSource(funcValue reflect.Value) string {
	fullFuncName := runtime.FuncForPC(funcValue.Pointer()).Name()
	funcPackage, _ := splitFuncName(fullFuncName)
	return funcPackage
}

// splitFuncName splits specified func name to package and a name.
func splitFuncName(funcFullName string) (string, string) {
	// Split the full function name with package by dots.
	fullNameChunks := strings.Split(funcFullName, ".")
	if len(fullNameChunks) < 2 {
		return "", funcFullName
	}

	// Find the index of the last element containing "/".
	lastPackageChunkIndex := len(fullNameChunks) - 1
	for ; lastPackageChunkIndex >= 0; lastPackageChunkIndex-- {
		// Is this chunk the rightest part of a package name with dots?
		if strings.Contains(fullNameChunks[lastPackageChunkIndex], "/") {
			break
		}
	}

	// If the name contains no package path.
	if lastPackageChunkIndex == -1 {
		packageName := fullNameChunks[0]
		funcName := strings.Join(fullNameChunks[1:], ".")
		return packageName, funcName
	}

	// Prepare package name and function name.
	packageName := strings.Join(fullNameChunks[:lastPackageChunkIndex+1], ".")
	funcName := strings.Join(fullNameChunks[lastPackageChunkIndex+1:], ".")
	return packageName, funcName
}
