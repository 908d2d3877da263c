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
	"fmt"
	"reflect"
	"sync"
)

// aliasMap redirects an interface type to its implementation type.
// Aliases are followed recursively: an alias may point to another alias.
type aliasMap struct {
	mutex sync.RWMutex
	links map[reflect.Type]reflect.Type
}

// newAliasMap returns an empty alias map.
func newAliasMap() *aliasMap {
	return &aliasMap{links: make(map[reflect.Type]reflect.Type)}
}

// set registers an interface to implementation redirect.
func (m *aliasMap) set(iface, impl reflect.Type) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.links[iface] = impl
}

// lookup returns the redirect target for a type.
func (m *aliasMap) lookup(t reflect.Type) (reflect.Type, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	target, ok := m.links[t]
	return target, ok
}

// blockList is the set of types that must never be produced. It is checked
// before anything else, so a blocked type cannot escape even via a factory
// or a mock.
type blockList struct {
	mutex sync.RWMutex
	types []reflect.Type
}

// newBlockList returns an empty block list.
func newBlockList() *blockList {
	return &blockList{}
}

// add appends a type to the block list.
func (b *blockList) add(t reflect.Type) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.types = append(b.types, t)
}

// blocks reports whether the type matches a blocked entry, either exactly
// or by implementing a blocked interface.
func (b *blockList) blocks(t reflect.Type) bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	for _, blocked := range b.types {
		if t == blocked {
			return true
		}
		if isNonEmptyInterface(blocked) && t.Implements(blocked) {
			return true
		}
	}
	return false
}

// miss is the internal "no value" result of a resolution attempt. It lets
// inference fall through to alternate resolution paths without surfacing an
// error; only Provide and Inject convert a miss into an error.
type miss struct {
	// Requirement path from the outermost type to the missing one.
	chain []ChainEntry
}

// resolver owns the resolution algorithm state. The factory table is
// immutable after construction; aliases and the block list are shared with
// temporary override resolvers; mocks and the resolution chain live in
// goroutine-local storage.
type resolver struct {
	factories *factoryTable
	aliases   *aliasMap
	blocked   *blockList
	mocks     *mockStore
	chain     *resolutionChain
}

// newResolver returns a resolver over the given bindings.
func newResolver(factories *factoryTable, aliases *aliasMap, blocked *blockList) *resolver {
	return &resolver{
		factories: factories,
		aliases:   aliases,
		blocked:   blocked,
		mocks:     newMockStore(),
		chain:     newResolutionChain(),
	}
}

// fork returns a resolver sharing the factory table, aliases and block list
// but with fresh goroutine-local mock and chain storage. Override scopes
// swap a fork in as the container's active resolver.
func (r *resolver) fork() *resolver {
	return newResolver(r.factories, r.aliases, r.blocked)
}

// resolve attempts to produce an instance of t. Precedence: block list,
// then the goroutine's mocks, then alias redirects, then a bound factory,
// then struct inference. A nil miss and nil error means value is valid.
func (r *resolver) resolve(c *Container, t reflect.Type) (any, *miss, error) {
	// Chase alias redirects one hop at a time so the block list and mock
	// overlay are consulted again for every target. Alias chains have no
	// natural base case, so repeats must be detected explicitly.
	var seen map[reflect.Type]bool
	var hops []reflect.Type
	for {
		// Malformed requests are not resolvable, never a crash.
		if t == nil {
			return nil, &miss{}, nil
		}

		if r.blocked.blocks(t) {
			return nil, &miss{}, nil
		}

		if mock, ok := r.mocks.get(t); ok {
			return mock, nil, nil
		}

		target, ok := r.aliases.lookup(t)
		if !ok {
			break
		}
		if seen == nil {
			seen = make(map[reflect.Type]bool)
		}
		seen[t] = true
		hops = append(hops, t)
		if seen[target] {
			return nil, nil, &RecursiveResolutionError{Type: target, Chain: append(hops, target)}
		}
		t = target
	}

	// The container provides itself, so factories and inferred structs can
	// demand it to resolve further dependencies at construction time.
	if t == containerType {
		return c, nil, nil
	}

	// A type requested again while already being constructed is a cycle.
	if r.chain.contains(t) {
		return nil, nil, &RecursiveResolutionError{Type: t, Chain: append(r.chain.snapshot(), t)}
	}

	token := r.chain.push(t)
	defer r.chain.pop(token)

	if value, ok, err := r.fromFactory(c, t); ok || err != nil {
		return value, nil, err
	}

	return r.fromInference(c, t)
}

// fromFactory invokes the factory bound to t, when one exists.
func (r *resolver) fromFactory(c *Container, t reflect.Type) (any, bool, error) {
	factory := r.factories.lookup(t)
	if factory == nil {
		return nil, false, nil
	}

	value, err := factory.call(c)
	if err != nil {
		return nil, false, fmt.Errorf("failed to call factory %s: %w", factory.Name(), err)
	}
	return value, true, nil
}

// fromInference constructs a struct instance by resolving its injectable
// fields. A field that misses and has no default fails inference for the
// whole type; the partial instance is discarded.
func (r *resolver) fromInference(c *Container, t reflect.Type) (any, *miss, error) {
	structType, wantPointer := structTypeOf(t)
	if structType == nil {
		return nil, &miss{}, nil
	}

	descriptors, err := types.describe(structType)
	if err != nil {
		return nil, nil, err
	}

	instance := reflect.New(structType).Elem()
	for _, descriptor := range descriptors {
		value, missed, err := r.resolve(c, descriptor.typ)
		if err != nil {
			return nil, nil, err
		}
		if missed != nil {
			if descriptor.hasDefault {
				continue
			}
			entry := ChainEntry{Owner: structType, Param: descriptor.name, Dep: descriptor.typ}
			return nil, &miss{chain: append([]ChainEntry{entry}, missed.chain...)}, nil
		}

		field := instance.Field(descriptor.index)
		resolved := valueFor(value, descriptor.typ)
		if !resolved.Type().AssignableTo(descriptor.typ) {
			return nil, nil, fmt.Errorf(
				"failed to construct %s: value of type %s is not assignable to field '%s' (%s)",
				typeName(structType), resolved.Type(), descriptor.name, typeName(descriptor.typ),
			)
		}
		if descriptor.optional {
			field.Set(newOptionalValue(field.Type(), resolved))
		} else {
			field.Set(resolved)
		}
	}

	if wantPointer {
		return instance.Addr().Interface(), nil, nil
	}
	return instance.Interface(), nil, nil
}

// valueFor reflects a resolved instance, falling back to the zero value
// for nil mocks.
func valueFor(value any, t reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(value)
}
