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
	"log/slog"
	"reflect"
	"sync"
)

// New returns a new container instance with a set of configured factories.
// Factories are optional: a container without any still resolves types via
// inference, aliases and mocks.
//
// When two factories declare the same return type, the later one wins.
func New(factories ...*Factory) (*Container, error) {
	table, err := newFactoryTable(factories)
	if err != nil {
		return nil, err
	}
	return &Container{
		resolver: newResolver(table, newAliasMap(), newBlockList()),
	}, nil
}

// Container is the dependency resolution façade. It owns exactly one active
// resolver at a time; Override and Overrides temporarily swap in a fork.
//
// A single Container is safe for concurrent use from multiple goroutines.
// Mocks and resolution bookkeeping are goroutine-local, so one goroutine's
// test doubles never leak into another's resolutions.
type Container struct {
	mutex    sync.RWMutex
	resolver *resolver
	logger   *slog.Logger
}

// SetLogger installs a structured logger for resolution events. The
// container is silent by default.
func (c *Container) SetLogger(logger *slog.Logger) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.logger = logger
}

// active returns the currently active resolver.
func (c *Container) active() *resolver {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.resolver
}

// Provide produces a fully constructed instance of the requested type, or
// an *UnknownDependencyError describing the deepest missing dependency.
// Terminal failures (*RecursiveResolutionError, *UnresolvableTypeError,
// factory errors) are returned as-is.
//
// Prefer the generic [Provide] helper over calling this method directly.
func (c *Container) Provide(t reflect.Type) (any, error) {
	value, missed, err := c.active().resolve(c, t)
	if err != nil {
		c.log("provide failed", "type", typeName(t), "error", err.Error())
		return nil, err
	}
	if missed != nil {
		err := &UnknownDependencyError{Type: t, Chain: missed.chain}
		c.log("provide failed", "type", typeName(t), "error", err.Error())
		return nil, err
	}
	c.log("provided", "type", typeName(t))
	return value, nil
}

// Alias registers a redirect from an interface type to an implementation
// type, consulted before factories and inference. Aliases are followed
// recursively; a cycle surfaces as a *RecursiveResolutionError at provide
// time.
func (c *Container) Alias(iface, impl reflect.Type) {
	c.active().aliases.set(iface, impl)
}

// NeverProvide adds a type to the block list. Blocked types short-circuit
// all other resolution paths, including factories and mocks.
func (c *Container) NeverProvide(t reflect.Type) {
	c.active().blocked.add(t)
}

// UseMock installs a prebuilt instance for a type in the current
// goroutine's mock overlay of the active resolver. Mocks take precedence
// over aliases, factories and inference, and are invisible to other
// goroutines.
func (c *Container) UseMock(t reflect.Type, mock any) {
	c.active().mocks.set(t, mock)
}

// ClearMocks removes all mocks installed by the current goroutine on the
// active resolver.
func (c *Container) ClearMocks() {
	c.active().mocks.clear()
}

// Override installs a single scoped mock. See Overrides.
func (c *Container) Override(t reflect.Type, mock any) (restore func()) {
	return c.Overrides(map[reflect.Type]any{t: mock})
}

// Overrides swaps in a temporary resolver seeded with the given mocks for
// the calling goroutine. The temporary resolver shares the outer resolver's
// factories, aliases and block list, and inherits the calling goroutine's
// currently installed mocks, so nested override scopes still observe outer
// entries for types they do not override themselves.
//
// The returned restore function reinstates the previously active resolver
// unconditionally and must be called on every exit path:
//
//	restore := c.Overrides(map[reflect.Type]any{dbType: mockDB})
//	defer restore()
//
// Scopes nest LIFO: release an inner scope before its outer one.
func (c *Container) Overrides(mocks map[reflect.Type]any) (restore func()) {
	c.mutex.Lock()
	previous := c.resolver
	next := previous.fork()
	c.resolver = next
	c.mutex.Unlock()

	seeded := previous.mocks.snapshot()
	for t, mock := range mocks {
		seeded[t] = mock
	}
	next.mocks.replace(seeded)
	c.log("override installed", "types", len(mocks))

	return func() {
		c.mutex.Lock()
		c.resolver = previous
		c.mutex.Unlock()
		c.log("override released")
	}
}

// log emits a debug record when a logger is configured.
func (c *Container) log(msg string, args ...any) {
	c.mutex.RLock()
	logger := c.logger
	c.mutex.RUnlock()
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// Provide is a generic helper resolving a typed instance from the
// container. It is the recommended way to retrieve values:
//
//	db, err := syringe.Provide[*Database](c)
func Provide[T any](c *Container) (T, error) {
	value, err := c.Provide(TypeFor[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, &UnknownDependencyError{Type: TypeFor[T]()}
	}
	return typed, nil
}

// Alias is a generic helper registering an interface to implementation
// redirect:
//
//	syringe.Alias[Storage, *PostgresStorage](c)
func Alias[I any, M any](c *Container) {
	c.Alias(TypeFor[I](), TypeFor[M]())
}

// NeverProvide is a generic helper blocking a type from ever being
// produced.
func NeverProvide[T any](c *Container) {
	c.NeverProvide(TypeFor[T]())
}

// UseMock is a generic helper installing a goroutine-local mock under the
// static type T, which may be an interface implemented by the mock:
//
//	syringe.UseMock[Storage](c, storageStub)
func UseMock[T any](c *Container, mock T) {
	c.UseMock(TypeFor[T](), mock)
}

// Override is a generic helper installing a scoped mock under the static
// type T:
//
//	restore := syringe.Override[*Database](c, mockDB)
//	defer restore()
func Override[T any](c *Container, mock T) (restore func()) {
	return c.Override(TypeFor[T](), mock)
}
