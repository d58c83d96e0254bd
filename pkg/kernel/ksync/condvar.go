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

// Condvar is a Mesa-style condition variable. A woken waiter re-acquires
// the associated mutex itself and must re-validate its condition; Signal
// never transfers the mutex.
type Condvar struct {
	waiters waitQueue
}

// NewCondvar returns a condition variable with no waiters.
func NewCondvar() *Condvar {
	return &Condvar{}
}

// Wait releases m, blocks the caller until a matching Signal, then
// re-acquires m before returning. Unlock, enqueue and block form one
// uninterrupted step: no other task runs between them, so a Signal either
// sees the caller queued or happens entirely before the Wait.
//
// Preconditions: the caller holds m.
func (c *Condvar) Wait(w Waiter, m Mutex) {
	m.Unlock(w)
	c.waiters.pushBack(w)
	w.Block()
	m.Lock(w)
}

// Signal wakes at most one waiter.
func (c *Condvar) Signal() {
	if next := c.waiters.popFront(); next != nil {
		next.Wake()
	}
}

// Waiters returns the number of tasks blocked on the condition variable.
func (c *Condvar) Waiters() int {
	return c.waiters.len()
}
