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
	"reflect"
	"sync"
)

// injectTag is the struct tag controlling field injection.
//
//	Field *Database                    // injectable, required
//	Field *Cache  `inject:"optional"`  // injectable, zero value when missing
//	Field []byte  `inject:"-"`         // never injected
const injectTag = "inject"

// fieldDescriptor describes one injectable struct field.
type fieldDescriptor struct {
	// Field name, used in resolution chain messages.
	name string

	// Field index within the struct.
	index int

	// Type to resolve. For Optional fields this is the element type.
	typ reflect.Type

	// Field is an Optional box and the resolved value needs boxing.
	optional bool

	// Missing resolution leaves the zero value instead of failing.
	hasDefault bool
}

// typeInfo is a memoized introspection result for one struct type.
type typeInfo struct {
	fields []fieldDescriptor
	err    error
}

// typeCache memoizes field descriptors per struct type. Introspection is a
// pure function of the type, so the cost is paid once per process.
type typeCache struct {
	entries sync.Map // reflect.Type -> *typeInfo
}

// types is the process-wide introspection cache handle.
var types = &typeCache{}

// describe returns the ordered injectable field descriptors for a struct
// type. Results, including errors, are memoized.
func (tc *typeCache) describe(t reflect.Type) ([]fieldDescriptor, error) {
	if cached, ok := tc.entries.Load(t); ok {
		info := cached.(*typeInfo)
		return info.fields, info.err
	}

	info := &typeInfo{}
	info.fields, info.err = introspectStruct(t)

	// A concurrent introspection of the same type computes the same result,
	// so keep whichever entry lands first.
	cached, _ := tc.entries.LoadOrStore(t, info)
	info = cached.(*typeInfo)
	return info.fields, info.err
}

// introspectStruct extracts the injectable fields of a struct type.
func introspectStruct(t reflect.Type) ([]fieldDescriptor, error) {
	descriptors := make([]fieldDescriptor, 0, t.NumField())
	for index := 0; index < t.NumField(); index++ {
		field := t.Field(index)

		// Unexported fields are never injected and never fail inference.
		if !field.IsExported() {
			continue
		}

		// Fields opted out of injection are always left as zero values.
		tag := field.Tag.Get(injectTag)
		if tag == "-" {
			continue
		}

		descriptor := fieldDescriptor{
			name:       field.Name,
			index:      index,
			typ:        field.Type,
			hasDefault: tag == "optional",
		}

		// Optional boxes simplify to their element type and always carry
		// a default: the empty box.
		if elem, ok := isOptionalType(field.Type); ok {
			descriptor.typ = elem
			descriptor.optional = true
			descriptor.hasDefault = true
		}

		// The empty interface can never identify a single resolution
		// target. This is a hard error even when a default exists.
		if isEmptyInterface(descriptor.typ) {
			return nil, &UnresolvableTypeError{
				Type:  descriptor.typ,
				Owner: t,
				Field: field.Name,
			}
		}

		descriptors = append(descriptors, descriptor)
	}

	return descriptors, nil
}

// structTypeOf returns the underlying struct type of a constructible type
// and whether the caller asked for a pointer to it.
func structTypeOf(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
		t = t.Elem()
		if _, ok := isOptionalType(t); ok {
			return nil, false
		}
		return t, true
	}
	if t.Kind() == reflect.Struct {
		if _, ok := isOptionalType(t); ok {
			return nil, false
		}
		return t, false
	}
	return nil, false
}

// isNonEmptyInterface returns true when argument is an interface with methods.
func isNonEmptyInterface(typ reflect.Type) bool {
	return typ.Kind() == reflect.Interface && typ.NumMethod() > 0
}

// isEmptyInterface returns true when argument is an `any` interface.
func isEmptyInterface(typ reflect.Type) bool {
	return typ.Kind() == reflect.Interface && typ.NumMethod() == 0
}

// errorType contains reflection type for error variable.
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// containerType contains reflection type for the container pointer.
var containerType = reflect.TypeOf((*Container)(nil))

// TypeFor returns the reflection type handle for T.
//
// It is the bridge between the generic helpers and the reflect-typed
// container methods:
//
//	c.NeverProvide(syringe.TypeFor[*Database]())
func TypeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
