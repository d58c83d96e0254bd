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

// Package ksync implements the synchronization primitives exposed to user
// tasks: spinning and blocking mutexes, counting semaphores, and condition
// variables.
//
// The primitives do not know about the scheduler. They operate on the
// Waiter interface, which kernel.Task implements; blocking a task and
// returning it to the ready set are the waiter's business. Because the
// kernel runs exactly one task at a time, a primitive's check-then-enqueue
// sequence is a single uninterrupted step relative to any wakeup, so no
// additional locking is needed and wakeups cannot be lost.
package ksync

// Waiter is one schedulable task as seen by a primitive.
type Waiter interface {
	// Yield cedes the processor but leaves the waiter in the ready set.
	Yield()

	// Block removes the waiter from execution until Wake is called. The
	// caller must already have registered the waiter wherever the
	// matching Wake will find it.
	Block()

	// Wake returns a blocked waiter to the ready set. It must be called
	// exactly once per Block, and never for a waiter that is not blocked.
	Wake()
}

// waitQueue is a FIFO of blocked waiters.
type waitQueue struct {
	ws []Waiter
}

func (q *waitQueue) pushBack(w Waiter) {
	q.ws = append(q.ws, w)
}

// popFront removes and returns the head waiter, or nil if the queue is
// empty.
func (q *waitQueue) popFront() Waiter {
	if len(q.ws) == 0 {
		return nil
	}
	w := q.ws[0]
	q.ws = q.ws[1:]
	return w
}

func (q *waitQueue) len() int {
	return len(q.ws)
}
