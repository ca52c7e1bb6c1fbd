// Copyright 2025 go-variant Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package variant

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
)

// ErrNoImplementation is returned when a Table has no implementation that
// can run for the requested variant.
var ErrNoImplementation = errors.New("no implementation")

// Table maps variants to the implementations of one routine. Implementations
// are registered under the routine's stem and looked up by variant, falling
// back along Variant.Fallbacks.
//
// A Table is safe for concurrent use.
type Table[F any] struct {
	stem  string
	mu    sync.RWMutex
	impls map[Variant]F
}

// NewTable returns an empty table for the routine named stem.
func NewTable[F any](stem string) *Table[F] {
	return &Table[F]{
		stem:  stem,
		impls: make(map[Variant]F),
	}
}

// Stem returns the undecorated routine name.
func (t *Table[F]) Stem() string {
	return t.stem
}

// Name returns the decorated name of the routine's v implementation.
func (t *Table[F]) Name(v Variant) string {
	return v.Decorate(t.stem)
}

// Register adds fn as the implementation for v and returns t so calls can
// be chained. Registering the same variant twice panics.
func (t *Table[F]) Register(v Variant, fn F) *Table[F] {
	if !v.Valid() {
		panic(fmt.Sprintf("variant: %s: register invalid variant %d", t.stem, uint8(v)))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.impls[v]; ok {
		panic(fmt.Sprintf("variant: %s registered twice", t.Name(v)))
	}
	t.impls[v] = fn
	return t
}

// Lookup returns the implementation registered for exactly v.
func (t *Table[F]) Lookup(v Variant) (F, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.impls[v]
	return fn, ok
}

// Registered returns the variants that have an implementation, in priority
// order.
func (t *Table[F]) Registered() []Variant {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lo.Filter(priority, func(v Variant, _ int) bool {
		_, ok := t.impls[v]
		return ok
	})
}

// Resolve returns the best implementation that can run where v was
// selected, along with the variant it was registered under.
func (t *Table[F]) Resolve(v Variant) (F, Variant, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, fb := range v.Fallbacks() {
		if fn, ok := t.impls[fb]; ok {
			return fn, fb, nil
		}
	}
	var zero F
	return zero, X86, fmt.Errorf("%w: %s has no implementation runnable as %s", ErrNoImplementation, t.stem, v)
}

// Select resolves the implementation for Current.
func (t *Table[F]) Select() (F, Variant, error) {
	return t.Resolve(Current())
}

// MustSelect is like Select but panics on error. It is intended for
// package-level variable initialization.
func (t *Table[F]) MustSelect() F {
	fn, _, err := t.Select()
	if err != nil {
		panic("variant: " + err.Error())
	}
	return fn
}
