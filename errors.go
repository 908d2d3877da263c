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
)

// ChainEntry describes one link of a resolution chain: while constructing
// Owner, the resolver demanded Dep through the field named Param.
type ChainEntry struct {
	Owner reflect.Type
	Param string
	Dep   reflect.Type
}

// String implements the fmt.Stringer interface.
func (e ChainEntry) String() string {
	return fmt.Sprintf("%s requires %s (parameter '%s')", typeName(e.Owner), typeName(e.Dep), e.Param)
}

// UnknownDependencyError is returned by Provide and Inject when a requested
// type could not be produced by any path: it is blocked, has no mock, no
// alias target, no factory, and inference failed.
//
// When the failure happened during nested inference, Chain holds the
// requirement path from the outermost type down to the missing one.
type UnknownDependencyError struct {
	Type  reflect.Type
	Chain []ChainEntry
}

// Error implements the error interface.
func (e *UnknownDependencyError) Error() string {
	msg := fmt.Sprintf("container does not know how to provide %s", typeName(e.Type))
	if len(e.Chain) == 0 {
		return msg
	}
	parts := make([]string, 0, len(e.Chain))
	for _, entry := range e.Chain {
		parts = append(parts, entry.String())
	}
	return msg + ". Resolution chain: " + strings.Join(parts, "; ")
}

// UnresolvableTypeError is returned when a struct field declares a type that
// can never identify a single resolution target, like the empty interface.
// It is raised at introspection time, even when the field carries a default.
type UnresolvableTypeError struct {
	Type  reflect.Type
	Owner reflect.Type
	Field string
}

// Error implements the error interface.
func (e *UnresolvableTypeError) Error() string {
	return fmt.Sprintf(
		"cannot resolve field '%s' of %s: type %s is ambiguous, declare a concrete type or define a factory",
		e.Field, typeName(e.Owner), typeName(e.Type),
	)
}

// RecursiveResolutionError is returned when a type is requested again while
// it is already being constructed, either directly or through a chain of
// factories, or when an alias chain loops back on itself.
//
// Chain holds the full path from the outermost type to the repeated one.
type RecursiveResolutionError struct {
	Type  reflect.Type
	Chain []reflect.Type
}

// Error implements the error interface.
func (e *RecursiveResolutionError) Error() string {
	chain := make([]string, 0, len(e.Chain))
	for _, t := range e.Chain {
		chain = append(chain, typeName(t))
	}
	return fmt.Sprintf(
		"recursive resolution detected for %s: %s",
		typeName(e.Type), strings.Join(chain, " -> "),
	)
}

// typeName formats a possibly nil type for error messages.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
