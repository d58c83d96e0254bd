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

// Mutex is a mutual-exclusion primitive with at most one holder at a time.
// The two implementations differ in how contended callers wait.
type Mutex interface {
	// Lock acquires the mutex, waiting as long as necessary.
	Lock(w Waiter)

	// TryLock acquires the mutex if it is free and reports whether it did.
	TryLock(w Waiter) bool

	// Unlock releases the mutex. Unlocking a mutex that is not held is an
	// unrecoverable invariant violation and panics.
	Unlock(w Waiter)

	// Held reports whether the mutex is currently held.
	Held() bool
}

// SpinMutex waits for a contended mutex by cooperatively yielding the
// processor between attempts. Contended waiters stay in the ready set; no
// ordering among them is guaranteed.
type SpinMutex struct {
	locked bool
}

// NewSpinMutex returns an unlocked SpinMutex.
func NewSpinMutex() *SpinMutex {
	return &SpinMutex{}
}

// Lock implements Mutex.Lock.
func (m *SpinMutex) Lock(w Waiter) {
	for m.locked {
		w.Yield()
	}
	m.locked = true
}

// TryLock implements Mutex.TryLock.
func (m *SpinMutex) TryLock(Waiter) bool {
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock implements Mutex.Unlock.
func (m *SpinMutex) Unlock(Waiter) {
	if !m.locked {
		panic("SpinMutex: unlock of unlocked mutex")
	}
	m.locked = false
}

// Held implements Mutex.Held.
func (m *SpinMutex) Held() bool {
	return m.locked
}

// BlockingMutex removes contended callers from execution and hands the
// mutex directly to the head of the waiter queue on unlock. The woken
// waiter owns the mutex when it resumes; the locked flag never clears in
// between.
type BlockingMutex struct {
	locked  bool
	waiters waitQueue
}

// NewBlockingMutex returns an unlocked BlockingMutex.
func NewBlockingMutex() *BlockingMutex {
	return &BlockingMutex{}
}

// Lock implements Mutex.Lock.
func (m *BlockingMutex) Lock(w Waiter) {
	if !m.locked {
		m.locked = true
		return
	}
	m.waiters.pushBack(w)
	w.Block()
	// Direct handoff: the unlocker left the mutex locked on our behalf.
}

// TryLock implements Mutex.TryLock.
func (m *BlockingMutex) TryLock(Waiter) bool {
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock implements Mutex.Unlock.
func (m *BlockingMutex) Unlock(Waiter) {
	if !m.locked {
		panic("BlockingMutex: unlock of unlocked mutex")
	}
	if next := m.waiters.popFront(); next != nil {
		next.Wake()
		return
	}
	m.locked = false
}

// Held implements Mutex.Held.
func (m *BlockingMutex) Held() bool {
	return m.locked
}

// Waiters returns the number of tasks blocked on the mutex.
func (m *BlockingMutex) Waiters() int {
	return m.waiters.len()
}
