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
	"strings"
	"sync"

	"github.com/timandy/routine"
)

// cacheKey identifies a memoized instance by its type and the formatted
// construction arguments.
type cacheKey struct {
	typ  reflect.Type
	args string
}

// buildCacheKey formats a composite memoization key. Each argument is
// length-prefixed so element boundaries survive concatenation: the key for
// ("a", "b") can never equal the key for ("ab").
func buildCacheKey(t reflect.Type, args []any) cacheKey {
	var encoded strings.Builder
	for _, arg := range args {
		element := fmt.Sprintf("%v", arg)
		fmt.Fprintf(&encoded, "%d:%s;", len(element), element)
	}
	return cacheKey{typ: t, args: encoded.String()}
}

// singletonCache is a process-wide memoization table. Reads take the fast
// path under a read lock; writers re-check under the write lock so a racing
// pair of callers constructs exactly once.
type singletonCache struct {
	mutex   sync.RWMutex
	entries map[cacheKey]any
}

// getOrCreate returns the cached instance for key, constructing it once.
func (c *singletonCache) getOrCreate(key cacheKey, build func() any) any {
	c.mutex.RLock()
	if value, ok := c.entries[key]; ok {
		c.mutex.RUnlock()
		return value
	}
	c.mutex.RUnlock()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if value, ok := c.entries[key]; ok {
		return value
	}
	value := build()
	c.entries[key] = value
	return value
}

// singletons is the process-wide singleton cache handle.
var singletons = &singletonCache{entries: make(map[cacheKey]any)}

// threadLocalCache is a per-goroutine memoization table. Each goroutine
// only ever touches its own entries, so no locking is involved.
type threadLocalCache struct {
	local routine.ThreadLocal[map[cacheKey]any]
}

// getOrCreate returns the goroutine's cached instance, constructing it once.
func (c *threadLocalCache) getOrCreate(key cacheKey, build func() any) any {
	entries := c.local.Get()
	if entries == nil {
		entries = make(map[cacheKey]any)
		c.local.Set(entries)
	}
	if value, ok := entries[key]; ok {
		return value
	}
	value := build()
	entries[key] = value
	return value
}

// threadSingletons is the per-goroutine singleton cache handle.
var threadSingletons = &threadLocalCache{local: routine.NewThreadLocal[map[cacheKey]any]()}

// Singleton memoizes ctor process-wide by the type T and the given key
// arguments, so repeated calls return the same instance across goroutines.
// It is meant to be used inside factory bodies:
//
//	syringe.NewFactory(func() *DbClient {
//	    return syringe.Singleton(func() *DbClient {
//	        return NewDbClient("postgres://localhost")
//	    }, "postgres://localhost")
//	})
//
// Different key arguments memoize different instances.
func Singleton[T any](ctor func() T, key ...any) T {
	k := buildCacheKey(TypeFor[T](), key)
	return singletons.getOrCreate(k, func() any { return ctor() }).(T)
}

// ThreadLocalSingleton memoizes ctor per goroutine by the type T and the
// given key arguments. Each goroutine gets its own instance; repeated calls
// within a goroutine return the same one.
func ThreadLocalSingleton[T any](ctor func() T, key ...any) T {
	k := buildCacheKey(TypeFor[T](), key)
	return threadSingletons.getOrCreate(k, func() any { return ctor() }).(T)
}
