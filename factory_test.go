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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFactoryRejectsNonFunction(t *testing.T) {
	_, err := New(NewFactory("not a function"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a function")
}

func TestNewFactoryRejectsNil(t *testing.T) {
	_, err := New(NewFactory(nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no func specified")
}

func TestNewFactoryRejectsForeignArgument(t *testing.T) {
	_, err := New(NewFactory(func(dsn string) *testDatabase {
		return &testDatabase{DSN: dsn}
	}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument must be")
}

func TestNewFactoryRejectsTooManyArguments(t *testing.T) {
	_, err := New(NewFactory(func(c *Container, extra int) *testDatabase {
		return nil
	}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many arguments")
}

func TestNewFactoryRejectsNoResults(t *testing.T) {
	_, err := New(NewFactory(func() {}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must produce one service")
}

func TestNewFactoryRejectsBareError(t *testing.T) {
	_, err := New(NewFactory(func() error { return nil }))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no service produced")
}

func TestNewFactoryRejectsMisplacedError(t *testing.T) {
	_, err := New(NewFactory(func() (error, *testDatabase) {
		return nil, nil
	}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "last result must be an error")
}

func TestDuplicateFactoriesLastWins(t *testing.T) {
	c := newTestContainer(t,
		NewFactory(func() *testDatabase { return &testDatabase{DSN: "first"} }),
		NewFactory(func() *testDatabase { return &testDatabase{DSN: "second"} }),
	)

	db, err := Provide[*testDatabase](c)

	require.NoError(t, err)
	assert.Equal(t, "second", db.DSN)
}

func TestFactoryErrorIsPropagated(t *testing.T) {
	boom := errors.New("connection refused")
	c := newTestContainer(t, NewFactory(func() (*testDatabase, error) {
		return nil, boom
	}))

	_, err := Provide[*testDatabase](c)

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to call factory")
}

func TestFactoryErrorFailsDependentInference(t *testing.T) {
	boom := errors.New("connection refused")
	c := newTestContainer(t, NewFactory(func() (*testDatabase, error) {
		return nil, boom
	}))

	_, err := Provide[*testDatabaseService](c)

	require.ErrorIs(t, err, boom)
}

func TestNewInstance(t *testing.T) {
	db := &testDatabase{DSN: "prebuilt"}
	c := newTestContainer(t, NewInstance(db))

	provided, err := Provide[*testDatabase](c)

	require.NoError(t, err)
	assert.Same(t, db, provided)
}

func TestNewInstanceName(t *testing.T) {
	factory := NewInstance(&testDatabase{})

	assert.Contains(t, factory.Name(), "Instance[")
}

func TestWithFactoryName(t *testing.T) {
	factory := NewFactory(func() *testDatabase { return nil }, WithFactoryName("primary-db"))

	assert.Equal(t, "primary-db", factory.Name())
}

func TestFactorySource(t *testing.T) {
	factory := NewFactory(func() *testDatabase { return nil })

	assert.Contains(t, factory.Source(), "syringe")
}
