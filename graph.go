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

	"github.com/m1gwings/treedrawer/tree"
)

// GraphString renders the static dependency tree of a type as seen by the
// currently active resolver: alias hops, factory bindings, mock and block
// markers, and the injectable fields discovered by inference.
//
// The rendering is purely informational and never constructs anything; it
// is meant for debugging wiring problems:
//
//	fmt.Println(c.GraphString(syringe.TypeFor[*Service]()))
func (c *Container) GraphString(t reflect.Type) string {
	resolver := c.active()
	root := tree.NewTree(tree.NodeString(resolver.graphLabel(t)))
	resolver.graphChildren(root, t, map[reflect.Type]bool{t: true})
	return root.String()
}

// graphLabel formats the node label for a type under this resolver.
func (r *resolver) graphLabel(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if r.blocked.blocks(t) {
		return typeName(t) + " [blocked]"
	}
	if _, ok := r.mocks.get(t); ok {
		return typeName(t) + " [mocked]"
	}
	if _, ok := r.aliases.lookup(t); ok {
		return typeName(t) + " [alias]"
	}
	if factory := r.factories.lookup(t); factory != nil {
		return typeName(t) + " [" + factory.Name() + "]"
	}
	if structType, _ := structTypeOf(t); structType != nil {
		return typeName(t)
	}
	return typeName(t) + " [unresolvable]"
}

// appendNode adds a labeled child to node and returns its subtree handle.
func appendNode(node *tree.Tree, index int, label string) *tree.Tree {
	node.AddChild(tree.NodeString(label))
	child, err := node.Child(index)
	if err != nil {
		return nil
	}
	return child
}

// graphChildren appends the dependency nodes of a type to its tree node.
func (r *resolver) graphChildren(node *tree.Tree, t reflect.Type, visited map[reflect.Type]bool) {
	if t == nil || r.blocked.blocks(t) {
		return
	}
	if _, ok := r.mocks.get(t); ok {
		return
	}

	// An alias renders its target as the single child.
	if target, ok := r.aliases.lookup(t); ok {
		if visited[target] {
			appendNode(node, 0, typeName(target)+" [cycle]")
			return
		}
		visited[target] = true
		if child := appendNode(node, 0, r.graphLabel(target)); child != nil {
			r.graphChildren(child, target, visited)
		}
		return
	}

	// Factory dependencies are demanded at call time through the
	// container, so there is nothing static to render below them.
	if r.factories.lookup(t) != nil {
		return
	}

	structType, _ := structTypeOf(t)
	if structType == nil {
		return
	}
	descriptors, err := types.describe(structType)
	if err != nil {
		appendNode(node, 0, err.Error())
		return
	}
	for position, descriptor := range descriptors {
		label := descriptor.name + ": " + r.graphLabel(descriptor.typ)
		if descriptor.hasDefault {
			label += " [optional]"
		}
		if visited[descriptor.typ] {
			appendNode(node, position, label+" [cycle]")
			continue
		}
		visited[descriptor.typ] = true
		if child := appendNode(node, position, label); child != nil {
			r.graphChildren(child, descriptor.typ, visited)
		}
	}
}
