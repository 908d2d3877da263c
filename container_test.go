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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Shared fixtures used across test files.

type testLeaf struct{}

type testMid struct {
	Leaf *testLeaf
}

type testTop struct {
	Mid *testMid
}

type testDatabase struct {
	DSN string
}

type testDatabaseService struct {
	Database *testDatabase
}

func newTestDatabaseFactory() *Factory {
	return NewFactory(func() *testDatabase {
		return &testDatabase{DSN: "sqlite://"}
	})
}

func newTestContainer(t *testing.T, factories ...*Factory) *Container {
	t.Helper()
	c, err := New(factories...)
	require.NoError(t, err)
	return c
}

func TestProvideByInference(t *testing.T) {
	c := newTestContainer(t)

	leaf, err := Provide[*testLeaf](c)

	require.NoError(t, err)
	require.NotNil(t, leaf)
}

func TestProvideValueType(t *testing.T) {
	c := newTestContainer(t)

	mid, err := Provide[testMid](c)

	require.NoError(t, err)
	require.NotNil(t, mid.Leaf)
}

func TestProvideNestedInference(t *testing.T) {
	c := newTestContainer(t)

	top, err := Provide[*testTop](c)

	require.NoError(t, err)
	require.NotNil(t, top.Mid)
	require.NotNil(t, top.Mid.Leaf)
}

func TestProvideUnknownDependency(t *testing.T) {
	type person struct {
		Name string
	}
	c := newTestContainer(t)

	_, err := Provide[*person](c)

	var unknownErr *UnknownDependencyError
	require.ErrorAs(t, err, &unknownErr)
	assert.Contains(t, err.Error(), "string")
}

func TestProvideNilTypeDoesNotCrash(t *testing.T) {
	c := newTestContainer(t)

	_, err := c.Provide(nil)

	var unknownErr *UnknownDependencyError
	require.ErrorAs(t, err, &unknownErr)
}

func TestResolutionChainMessage(t *testing.T) {
	type chainC struct {
		Name string
	}
	type chainB struct {
		C *chainC
	}
	type chainService struct {
		B *chainB
	}
	c := newTestContainer(t)

	_, err := Provide[*chainService](c)

	require.Error(t, err)
	message := err.Error()
	assert.Contains(t, message, "Resolution chain:")

	first := strings.Index(message, "chainService requires")
	second := strings.Index(message, "chainB requires")
	third := strings.Index(message, "chainC requires string (parameter 'Name')")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	require.NotEqual(t, -1, third)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestProvideFromFactory(t *testing.T) {
	c := newTestContainer(t, newTestDatabaseFactory())

	db, err := Provide[*testDatabase](c)

	require.NoError(t, err)
	assert.Equal(t, "sqlite://", db.DSN)
}

func TestUseMock(t *testing.T) {
	c := newTestContainer(t, newTestDatabaseFactory())
	mock := &testDatabase{DSN: "mock://"}
	UseMock[*testDatabase](c, mock)

	service, err := Provide[*testDatabaseService](c)

	require.NoError(t, err)
	assert.Same(t, mock, service.Database)
}

func TestClearMocks(t *testing.T) {
	c := newTestContainer(t, newTestDatabaseFactory())
	mock := &testDatabase{DSN: "mock://"}
	UseMock[*testDatabase](c, mock)
	c.ClearMocks()

	service, err := Provide[*testDatabaseService](c)

	require.NoError(t, err)
	require.NotSame(t, mock, service.Database)
	assert.Equal(t, "sqlite://", service.Database.DSN)
}

type testStorage interface {
	Kind() string
}

type testPostgres struct{}

func (p *testPostgres) Kind() string { return "postgres" }

func TestAlias(t *testing.T) {
	c := newTestContainer(t)
	Alias[testStorage, *testPostgres](c)

	storage, err := Provide[testStorage](c)

	require.NoError(t, err)
	assert.IsType(t, &testPostgres{}, storage)
}

func TestAliasRespectsOverrideOnTarget(t *testing.T) {
	c := newTestContainer(t)
	Alias[testStorage, *testPostgres](c)
	mock := &testPostgres{}

	restore := Override[*testPostgres](c, mock)
	storage, err := Provide[testStorage](c)
	restore()

	require.NoError(t, err)
	assert.Same(t, mock, storage)
}

func TestNeverProvide(t *testing.T) {
	type forbidden struct{}
	type guarded struct {
		Dep *forbidden
	}
	c := newTestContainer(t)
	NeverProvide[*forbidden](c)

	_, err := Provide[*guarded](c)

	var unknownErr *UnknownDependencyError
	require.ErrorAs(t, err, &unknownErr)
}

func TestNeverProvideBeatsMock(t *testing.T) {
	type forbidden struct{}
	c := newTestContainer(t)
	NeverProvide[*forbidden](c)
	UseMock[*forbidden](c, &forbidden{})

	_, err := Provide[*forbidden](c)

	var unknownErr *UnknownDependencyError
	require.ErrorAs(t, err, &unknownErr)
}

func TestOverrideScope(t *testing.T) {
	c := newTestContainer(t, newTestDatabaseFactory())
	mock := &testDatabase{DSN: "mock://"}

	restore := Override[*testDatabase](c, mock)
	inside, err := Provide[*testDatabaseService](c)
	require.NoError(t, err)
	restore()

	outside, err := Provide[*testDatabaseService](c)
	require.NoError(t, err)

	assert.Same(t, mock, inside.Database)
	assert.NotSame(t, mock, outside.Database)
}

func TestOverridesMap(t *testing.T) {
	c := newTestContainer(t, newTestDatabaseFactory())
	mock := &testDatabase{DSN: "mock://"}

	restore := c.Overrides(map[reflect.Type]any{TypeFor[*testDatabase](): mock})
	service, err := Provide[*testDatabaseService](c)
	restore()

	require.NoError(t, err)
	assert.Same(t, mock, service.Database)
}

func TestOverrideNesting(t *testing.T) {
	type serviceA struct{}
	type serviceB struct{}
	type composite struct {
		A *serviceA
		B *serviceB
	}
	c := newTestContainer(t)
	mockA := &serviceA{}
	mockB := &serviceB{}

	restoreOuter := Override[*serviceA](c, mockA)

	restoreInner := Override[*serviceB](c, mockB)
	inner, err := Provide[*composite](c)
	require.NoError(t, err)
	assert.Same(t, mockA, inner.A)
	assert.Same(t, mockB, inner.B)
	restoreInner()

	middle, err := Provide[*composite](c)
	require.NoError(t, err)
	assert.Same(t, mockA, middle.A)
	assert.NotSame(t, mockB, middle.B)

	restoreOuter()

	outer, err := Provide[*composite](c)
	require.NoError(t, err)
	assert.NotSame(t, mockA, outer.A)
	assert.NotSame(t, mockB, outer.B)
}

func TestInnerOverrideShadowsOuterForSameType(t *testing.T) {
	type service struct{}
	c := newTestContainer(t)
	outerMock := &service{}
	innerMock := &service{}

	restoreOuter := Override[*service](c, outerMock)
	provided, err := Provide[*service](c)
	require.NoError(t, err)
	assert.Same(t, outerMock, provided)

	restoreInner := Override[*service](c, innerMock)
	provided, err = Provide[*service](c)
	require.NoError(t, err)
	assert.Same(t, innerMock, provided)
	restoreInner()

	provided, err = Provide[*service](c)
	require.NoError(t, err)
	assert.Same(t, outerMock, provided)
	restoreOuter()

	provided, err = Provide[*service](c)
	require.NoError(t, err)
	assert.NotSame(t, outerMock, provided)
	assert.NotSame(t, innerMock, provided)
}

func TestOverridePreservesMocksInstalledBefore(t *testing.T) {
	type notifier struct{ Mocked bool }
	type rotator struct{ Mocked bool }
	type workflow struct {
		Notifier *notifier
		Rotator  *rotator
	}
	c := newTestContainer(t)

	mockNotifier := &notifier{Mocked: true}
	UseMock[*notifier](c, mockNotifier)

	mockRotator := &rotator{Mocked: true}
	restore := Override[*rotator](c, mockRotator)
	flow, err := Provide[*workflow](c)
	restore()

	require.NoError(t, err)
	assert.Same(t, mockNotifier, flow.Notifier)
	assert.Same(t, mockRotator, flow.Rotator)
}

type testReadStorage interface {
	testStorage
}

func TestAliasToAlias(t *testing.T) {
	c := newTestContainer(t)
	Alias[testReadStorage, testStorage](c)
	Alias[testStorage, *testPostgres](c)

	storage, err := Provide[testReadStorage](c)

	require.NoError(t, err)
	assert.IsType(t, &testPostgres{}, storage)
}

func TestOverridePreservesBlockList(t *testing.T) {
	type forbidden struct{}
	type service struct{ Dep *forbidden }
	c := newTestContainer(t)
	NeverProvide[*forbidden](c)

	restore := Override[*service](c, &service{Dep: &forbidden{}})
	_, err := Provide[*forbidden](c)
	restore()

	var unknownErr *UnknownDependencyError
	require.ErrorAs(t, err, &unknownErr)
}

func TestFactoryReceivesContainer(t *testing.T) {
	type config struct{}
	type service struct {
		Config *config
		Built  bool
	}
	c := newTestContainer(t, NewFactory(func(c *Container) (*service, error) {
		cfg, err := Provide[*config](c)
		if err != nil {
			return nil, err
		}
		return &service{Config: cfg, Built: true}, nil
	}))

	provided, err := Provide[*service](c)

	require.NoError(t, err)
	assert.True(t, provided.Built)
	require.NotNil(t, provided.Config)
}

func TestFactoryContainerRespectsOverrides(t *testing.T) {
	type dep struct{ Source string }
	type service struct{ Dep *dep }
	c := newTestContainer(t, NewFactory(func(c *Container) (*service, error) {
		d, err := Provide[*dep](c)
		if err != nil {
			return nil, err
		}
		return &service{Dep: d}, nil
	}))

	mock := &dep{Source: "mocked"}
	restore := Override[*dep](c, mock)
	provided, err := Provide[*service](c)
	restore()

	require.NoError(t, err)
	assert.Same(t, mock, provided.Dep)
}

func TestInferenceInjectsContainerItself(t *testing.T) {
	type holder struct {
		Container *Container
	}
	c := newTestContainer(t)

	provided, err := Provide[*holder](c)

	require.NoError(t, err)
	assert.Same(t, c, provided.Container)
}

func TestMocksAreGoroutineLocal(t *testing.T) {
	c := newTestContainer(t, newTestDatabaseFactory())

	type outcome struct {
		service *testDatabaseService
		err     error
	}

	mock := &testDatabase{DSN: "mock://"}
	withMock := make(chan outcome)
	go func() {
		UseMock[*testDatabase](c, mock)
		service, err := Provide[*testDatabaseService](c)
		withMock <- outcome{service, err}
	}()
	mocked := <-withMock
	require.NoError(t, mocked.err)
	require.Same(t, mock, mocked.service.Database)

	withoutMock := make(chan outcome)
	go func() {
		service, err := Provide[*testDatabaseService](c)
		withoutMock <- outcome{service, err}
	}()
	clean := <-withoutMock
	require.NoError(t, clean.err)
	assert.NotSame(t, mock, clean.service.Database)
	assert.Equal(t, "sqlite://", clean.service.Database.DSN)
}

func TestOverrideMocksAreGoroutineLocal(t *testing.T) {
	c := newTestContainer(t, newTestDatabaseFactory())
	mock := &testDatabase{DSN: "mock://"}

	restore := Override[*testDatabase](c, mock)
	defer restore()

	fromOther := make(chan *testDatabase)
	errs := make(chan error, 1)
	go func() {
		db, err := Provide[*testDatabase](c)
		errs <- err
		fromOther <- db
	}()
	require.NoError(t, <-errs)
	other := <-fromOther

	assert.NotSame(t, mock, other)
	assert.Equal(t, "sqlite://", other.DSN)
}

func TestChainSurvivesSwallowedNestedFailure(t *testing.T) {
	type unresolvable struct {
		Name string
	}
	type dep struct{}
	type service struct {
		Dep *dep
	}
	c := newTestContainer(t, NewFactory(func(c *Container) *dep {
		// The nested provide fails and cleans up its own chain frames.
		// The outer resolution must still pop only its own entries.
		_, _ = Provide[*unresolvable](c)
		return &dep{}
	}))

	provided, err := Provide[*service](c)

	require.NoError(t, err)
	require.NotNil(t, provided.Dep)
}

func TestSetLogger(t *testing.T) {
	c := newTestContainer(t)
	var records strings.Builder
	c.SetLogger(slog.New(slog.NewTextHandler(&records, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_, err := Provide[*testLeaf](c)

	require.NoError(t, err)
	assert.Contains(t, records.String(), "provided")
}
