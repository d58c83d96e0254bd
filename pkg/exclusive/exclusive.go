// Copyright 2026 The StrideOS Authors
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

// Package exclusive provides Cell, a runtime-checked single-owner wrapper
// around shared kernel state.
//
// Cell is not a lock. The kernel runs exactly one task at a time, so there
// is no parallelism to guard against; the only way two borrows of the same
// cell can overlap is a reentrant access on the current execution path,
// which is a logic bug. Cell turns that bug into an immediate panic instead
// of silent aliasing.
package exclusive

import (
	"fmt"
	"sync/atomic"
)

// Cell wraps a value of type T and checks at runtime that at most one
// exclusive borrow of the value is outstanding.
type Cell[T any] struct {
	borrowed atomic.Bool
	value    T
}

// NewCell returns a Cell owning v.
func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

// Borrow grants exclusive access to the wrapped value. It panics if a
// borrow is already outstanding; the caller must pair every Borrow with a
// Release.
func (c *Cell[T]) Borrow() *T {
	if !c.borrowed.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("exclusive.Cell[%T]: already borrowed", c.value))
	}
	return &c.value
}

// Release ends the current borrow. It panics if no borrow is outstanding.
func (c *Cell[T]) Release() {
	if !c.borrowed.CompareAndSwap(true, false) {
		panic(fmt.Sprintf("exclusive.Cell[%T]: release without borrow", c.value))
	}
}

// With runs fn with exclusive access to the wrapped value, releasing the
// borrow when fn returns. fn must not block the calling task and must not
// borrow the same cell again.
func (c *Cell[T]) With(fn func(*T)) {
	v := c.Borrow()
	defer c.Release()
	fn(v)
}
