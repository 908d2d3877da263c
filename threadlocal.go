package syringe

import (
	"reflect"

	"github.com/timandy/routine"
)

// mockStore holds per-goroutine mock instances. An entry installed by one
// goroutine is never observed by resolutions running on another goroutine
// against the same resolver.
type mockStore struct {
	local routine.ThreadLocal[map[reflect.Type]any]
}

// newMockStore returns an empty goroutine-local mock store.
func newMockStore() *mockStore {
	return &mockStore{local: routine.NewThreadLocal[map[reflect.Type]any]()}
}

// get returns the mock installed for the type by the current goroutine.
func (s *mockStore) get(t reflect.Type) (any, bool) {
	mocks := s.local.Get()
	if mocks == nil {
		return nil, false
	}
	mock, ok := mocks[t]
	return mock, ok
}

// set installs a mock for the current goroutine.
func (s *mockStore) set(t reflect.Type, mock any) {
	mocks := s.local.Get()
	if mocks == nil {
		mocks = make(map[reflect.Type]any)
		s.local.Set(mocks)
	}
	mocks[t] = mock
}

// snapshot copies the current goroutine's mocks.
func (s *mockStore) snapshot() map[reflect.Type]any {
	mocks := s.local.Get()
	copied := make(map[reflect.Type]any, len(mocks))
	for t, mock := range mocks {
		copied[t] = mock
	}
	return copied
}

// replace swaps the current goroutine's mocks wholesale.
func (s *mockStore) replace(mocks map[reflect.Type]any) {
	s.local.Set(mocks)
}

// clear removes all mocks installed by the current goroutine.
func (s *mockStore) clear() {
	s.local.Set(make(map[reflect.Type]any))
}

// chainFrame is one in-flight construction owned by the current goroutine.
type chainFrame struct {
	typ   reflect.Type
	token uint64
}

// chainState is the per-goroutine bookkeeping of a resolutionChain.
type chainState struct {
	frames []chainFrame
	tokens uint64
}

// resolutionChain tracks the types currently being constructed by each
// goroutine, for cycle detection and diagnostics. The chain is empty before
// a top-level Provide begins and empty again after it returns or fails.
type resolutionChain struct {
	local routine.ThreadLocal[*chainState]
}

// newResolutionChain returns an empty goroutine-local resolution chain.
func newResolutionChain() *resolutionChain {
	return &resolutionChain{
		local: routine.NewThreadLocalWithInitial(func() *chainState {
			return &chainState{}
		}),
	}
}

// contains reports whether the type is already being constructed.
func (c *resolutionChain) contains(t reflect.Type) bool {
	state := c.local.Get()
	for _, frame := range state.frames {
		if frame.typ == t {
			return true
		}
	}
	return false
}

// push records a construction attempt and returns a token for pop.
func (c *resolutionChain) push(t reflect.Type) uint64 {
	state := c.local.Get()
	state.tokens++
	state.frames = append(state.frames, chainFrame{typ: t, token: state.tokens})
	return state.tokens
}

// pop removes the frame identified by token. Each resolution frame releases
// only its own entry, so cleanup of a failed nested resolution can never
// disturb the bookkeeping of its callers.
func (c *resolutionChain) pop(token uint64) {
	state := c.local.Get()
	for index := len(state.frames) - 1; index >= 0; index-- {
		if state.frames[index].token == token {
			state.frames = append(state.frames[:index], state.frames[index+1:]...)
			return
		}
	}
}

// snapshot returns the in-flight types from outermost to innermost.
func (c *resolutionChain) snapshot() []reflect.Type {
	state := c.local.Get()
	chain := make([]reflect.Type, 0, len(state.frames))
	for _, frame := range state.frames {
		chain = append(chain, frame.typ)
	}
	return chain
}
