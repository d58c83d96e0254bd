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

package ksync

// Semaphore is a counting semaphore with a FIFO queue of blocked waiters.
// The count is signed: a negative count records how many waiters are
// queued.
type Semaphore struct {
	count   int64
	waiters waitQueue
}

// NewSemaphore returns a semaphore holding n units.
func NewSemaphore(n int64) *Semaphore {
	return &Semaphore{count: n}
}

// Down consumes one unit, blocking the caller until one is available. A
// waiter woken by Up has already been credited its unit and does not
// decrement again.
func (s *Semaphore) Down(w Waiter) {
	s.count--
	if s.count < 0 {
		s.waiters.pushBack(w)
		w.Block()
	}
}

// Up releases one unit. If a waiter is queued, the unit is transferred to
// it directly and it is returned to the ready set.
func (s *Semaphore) Up(Waiter) {
	s.count++
	if next := s.waiters.popFront(); next != nil {
		next.Wake()
	}
}

// Value returns the current count. Negative values count queued waiters.
func (s *Semaphore) Value() int64 {
	return s.count
}

// Waiters returns the number of tasks blocked on the semaphore.
func (s *Semaphore) Waiters() int {
	return s.waiters.len()
}
