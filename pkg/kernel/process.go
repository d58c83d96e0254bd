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

package kernel

import (
	"github.com/sirupsen/logrus"

	"strideos.dev/strideos/pkg/exclusive"
	"strideos.dev/strideos/pkg/kernel/ksync"
	"strideos.dev/strideos/pkg/kernelerr"
)

// Process owns thread slots, primitive slot tables, and the
// resource-accounting state the deadlock detector consumes. All of it
// lives behind one exclusive cell; the borrow is never held across a
// blocking primitive call, matching the single-context discipline: state
// mutated before a blocking point is committed, and the borrow is
// re-acquired afterwards.
type Process struct {
	k     *Kernel
	pid   PID
	name  string
	inner *exclusive.Cell[processInner]
}

// processInner holds the slot tables and the per-class accounting.
//
// Slot ids are reused: creation takes the first empty slot before
// appending, keeping ids dense and stable for table indexing. For every
// resource class the matrices stay rectangular: each thread row has
// exactly len(available) columns.
//
// Invariant, per class and resource r:
//
//	available[r] + sum over threads of allocation[t][r] == total units of r
type processInner struct {
	threads []*Task

	mutexes         []ksync.Mutex
	availableMutex  []int64
	needMutex       [][]int64
	allocationMutex [][]int64

	semaphores    []*ksync.Semaphore
	availableSem  []int64
	needSem       [][]int64
	allocationSem [][]int64

	condvars []*ksync.Condvar

	deadlockDetect bool
}

// PID returns the process id.
func (p *Process) PID() PID { return p.pid }

// Name returns the process name.
func (p *Process) Name() string { return p.name }

// NewTask spawns a thread at the default priority and adds it to the
// ready queue. The thread slot is reused from the first free entry, and
// both accounting matrices get a (zeroed) row for it.
func (p *Process) NewTask(fn func(*Task)) *Task {
	t := &Task{
		k:        p.k,
		pid:      p.pid,
		status:   TaskReady,
		priority: DefaultPriority,
		fn:       fn,
		resume:   make(chan struct{}, 1),
	}
	p.inner.With(func(in *processInner) {
		t.tid = in.allocThreadSlot(t)
	})
	p.k.live++
	go t.run()
	p.k.enqueue(t)
	return t
}

// reapThread frees the task's thread slot. Any units the thread still has
// on the books are returned to available so the table invariant holds;
// the primitives themselves are not force-released, so exiting while
// holding a mutex leaves it locked forever.
func (p *Process) reapThread(t *Task) {
	p.inner.With(func(in *processInner) {
		tid := t.tid
		if tid >= len(in.threads) || in.threads[tid] != t {
			return
		}
		in.threads[tid] = nil
		leaked := int64(0)
		for r := range in.allocationMutex[tid] {
			leaked += in.allocationMutex[tid][r]
			in.availableMutex[r] += in.allocationMutex[tid][r]
			in.allocationMutex[tid][r] = 0
			in.needMutex[tid][r] = 0
		}
		for r := range in.allocationSem[tid] {
			leaked += in.allocationSem[tid][r]
			in.availableSem[r] += in.allocationSem[tid][r]
			in.allocationSem[tid][r] = 0
			in.needSem[tid][r] = 0
		}
		if leaked > 0 {
			logrus.WithFields(logrus.Fields{
				"pid": p.pid,
				"tid": tid,
			}).Warnf("thread exited still holding %d resource unit(s)", leaked)
		}
	})
}

// SetDeadlockDetection enables or disables the detector for this process.
func (p *Process) SetDeadlockDetection(enabled bool) {
	p.inner.With(func(in *processInner) {
		in.deadlockDetect = enabled
	})
}

// CreateMutex allocates a mutex in the first free slot and returns its id.
func (p *Process) CreateMutex(blocking bool) (int32, error) {
	var m ksync.Mutex
	if blocking {
		m = ksync.NewBlockingMutex()
	} else {
		m = ksync.NewSpinMutex()
	}
	var id int
	p.inner.With(func(in *processInner) {
		id = in.allocMutexSlot(m)
		in.availableMutex[id] = 1
		in.clearMutexColumn(id)
	})
	return int32(id), nil
}

// LockMutex acquires mutex id for task t, recording the request in the
// accounting tables and, when detection is enabled, vetoing unsafe
// acquisitions before any blocking happens.
func (p *Process) LockMutex(t *Task, id int32) error {
	in := p.inner.Borrow()
	m := in.mutex(id)
	if m == nil {
		p.inner.Release()
		return kernelerr.ErrNoSuchID
	}
	tid := t.tid
	in.needMutex[tid][id] = 1
	if in.deadlockDetect {
		snap := snapshotTables(in.availableMutex, in.needMutex, in.allocationMutex)
		if !snap.safe() {
			// Roll back the request; it was never made.
			in.needMutex[tid][id] = 0
			p.inner.Release()
			return kernelerr.ErrWouldDeadlock
		}
	}
	p.inner.Release()

	m.Lock(t)

	in = p.inner.Borrow()
	in.availableMutex[id] = 0
	in.needMutex[tid][id] = 0
	in.allocationMutex[tid][id] = 1
	p.inner.Release()
	return nil
}

// UnlockMutex releases mutex id, then returns the unit to available.
func (p *Process) UnlockMutex(t *Task, id int32) error {
	in := p.inner.Borrow()
	m := in.mutex(id)
	if m == nil {
		p.inner.Release()
		return kernelerr.ErrNoSuchID
	}
	p.inner.Release()

	m.Unlock(t)

	in = p.inner.Borrow()
	in.availableMutex[id] = 1
	in.allocationMutex[t.tid][id] = 0
	p.inner.Release()
	return nil
}

// DestroyMutex clears the mutex slot for reuse. A held mutex cannot be
// destroyed.
func (p *Process) DestroyMutex(id int32) error {
	var err error
	p.inner.With(func(in *processInner) {
		m := in.mutex(id)
		switch {
		case m == nil:
			err = kernelerr.ErrNoSuchID
		case m.Held():
			err = kernelerr.ErrBusy
		default:
			in.mutexes[id] = nil
			in.availableMutex[id] = 0
			in.clearMutexColumn(int(id))
		}
	})
	return err
}

// CreateSemaphore allocates a semaphore with n units in the first free
// slot and returns its id.
func (p *Process) CreateSemaphore(n int64) (int32, error) {
	if n < 0 {
		return 0, kernelerr.ErrInvalidArgument
	}
	var id int
	p.inner.With(func(in *processInner) {
		id = in.allocSemSlot(ksync.NewSemaphore(n))
		in.availableSem[id] = n
		in.clearSemColumn(id)
	})
	return int32(id), nil
}

// SemaphoreDown consumes one unit of semaphore id for task t, with the
// same record/check/acquire/commit sequence as LockMutex. The detector is
// fed the calling thread's id for this class too.
func (p *Process) SemaphoreDown(t *Task, id int32) error {
	in := p.inner.Borrow()
	s := in.semaphore(id)
	if s == nil {
		p.inner.Release()
		return kernelerr.ErrNoSuchID
	}
	tid := t.tid
	in.needSem[tid][id]++
	if in.deadlockDetect {
		snap := snapshotTables(in.availableSem, in.needSem, in.allocationSem)
		if !snap.safe() {
			in.needSem[tid][id]--
			p.inner.Release()
			return kernelerr.ErrWouldDeadlock
		}
	}
	p.inner.Release()

	s.Down(t)

	in = p.inner.Borrow()
	in.availableSem[id]--
	in.needSem[tid][id]--
	in.allocationSem[tid][id]++
	p.inner.Release()
	return nil
}

// SemaphoreUp releases one unit of semaphore id. The accounting is
// symmetric with SemaphoreDown: available grows and the caller's
// allocation shrinks, which may go negative for a thread that only ever
// produces.
func (p *Process) SemaphoreUp(t *Task, id int32) error {
	in := p.inner.Borrow()
	s := in.semaphore(id)
	if s == nil {
		p.inner.Release()
		return kernelerr.ErrNoSuchID
	}
	p.inner.Release()

	s.Up(t)

	in = p.inner.Borrow()
	in.availableSem[id]++
	in.allocationSem[t.tid][id]--
	p.inner.Release()
	return nil
}

// DestroySemaphore clears the semaphore slot for reuse. A semaphore with
// queued waiters cannot be destroyed.
func (p *Process) DestroySemaphore(id int32) error {
	var err error
	p.inner.With(func(in *processInner) {
		s := in.semaphore(id)
		switch {
		case s == nil:
			err = kernelerr.ErrNoSuchID
		case s.Waiters() > 0:
			err = kernelerr.ErrBusy
		default:
			in.semaphores[id] = nil
			in.availableSem[id] = 0
			in.clearSemColumn(int(id))
		}
	})
	return err
}

// CreateCondvar allocates a condition variable in the first free slot and
// returns its id. Condvars carry no accounting: they are not a counted
// resource.
func (p *Process) CreateCondvar() (int32, error) {
	var id int
	p.inner.With(func(in *processInner) {
		id = in.allocCondvarSlot(ksync.NewCondvar())
	})
	return int32(id), nil
}

// CondvarSignal wakes at most one waiter of condvar id.
func (p *Process) CondvarSignal(id int32) error {
	in := p.inner.Borrow()
	cv := in.condvar(id)
	p.inner.Release()
	if cv == nil {
		return kernelerr.ErrNoSuchID
	}
	cv.Signal()
	return nil
}

// CondvarWait atomically releases mutex mid and blocks t on condvar cvid,
// re-acquiring the mutex before returning (monitor discipline).
func (p *Process) CondvarWait(t *Task, cvid, mid int32) error {
	in := p.inner.Borrow()
	cv := in.condvar(cvid)
	m := in.mutex(mid)
	p.inner.Release()
	if cv == nil || m == nil {
		return kernelerr.ErrNoSuchID
	}
	cv.Wait(t, m)
	return nil
}

// DestroyCondvar clears the condvar slot for reuse. A condvar with
// waiters cannot be destroyed.
func (p *Process) DestroyCondvar(id int32) error {
	var err error
	p.inner.With(func(in *processInner) {
		cv := in.condvar(id)
		switch {
		case cv == nil:
			err = kernelerr.ErrNoSuchID
		case cv.Waiters() > 0:
			err = kernelerr.ErrBusy
		default:
			in.condvars[id] = nil
		}
	})
	return err
}

// Slot and matrix management.

// allocThreadSlot places t in the first free thread slot, growing the
// accounting matrices so every class has a zeroed row for it.
func (in *processInner) allocThreadSlot(t *Task) int {
	slot := -1
	for i, existing := range in.threads {
		if existing == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		slot = len(in.threads)
		in.threads = append(in.threads, nil)
		in.needMutex = append(in.needMutex, make([]int64, len(in.availableMutex)))
		in.allocationMutex = append(in.allocationMutex, make([]int64, len(in.availableMutex)))
		in.needSem = append(in.needSem, make([]int64, len(in.availableSem)))
		in.allocationSem = append(in.allocationSem, make([]int64, len(in.availableSem)))
	}
	in.threads[slot] = t
	return slot
}

func (in *processInner) allocMutexSlot(m ksync.Mutex) int {
	for i, existing := range in.mutexes {
		if existing == nil {
			in.mutexes[i] = m
			return i
		}
	}
	in.mutexes = append(in.mutexes, m)
	id := len(in.mutexes) - 1
	in.availableMutex = append(in.availableMutex, 0)
	for t := range in.needMutex {
		in.needMutex[t] = append(in.needMutex[t], 0)
		in.allocationMutex[t] = append(in.allocationMutex[t], 0)
	}
	return id
}

func (in *processInner) allocSemSlot(s *ksync.Semaphore) int {
	for i, existing := range in.semaphores {
		if existing == nil {
			in.semaphores[i] = s
			return i
		}
	}
	in.semaphores = append(in.semaphores, s)
	id := len(in.semaphores) - 1
	in.availableSem = append(in.availableSem, 0)
	for t := range in.needSem {
		in.needSem[t] = append(in.needSem[t], 0)
		in.allocationSem[t] = append(in.allocationSem[t], 0)
	}
	return id
}

func (in *processInner) allocCondvarSlot(cv *ksync.Condvar) int {
	for i, existing := range in.condvars {
		if existing == nil {
			in.condvars[i] = cv
			return i
		}
	}
	in.condvars = append(in.condvars, cv)
	return len(in.condvars) - 1
}

// clearMutexColumn zeroes every thread's need/allocation entries for a
// (re)created or destroyed mutex slot.
func (in *processInner) clearMutexColumn(id int) {
	for t := range in.needMutex {
		in.needMutex[t][id] = 0
		in.allocationMutex[t][id] = 0
	}
}

func (in *processInner) clearSemColumn(id int) {
	for t := range in.needSem {
		in.needSem[t][id] = 0
		in.allocationSem[t][id] = 0
	}
}

func (in *processInner) mutex(id int32) ksync.Mutex {
	if id < 0 || int(id) >= len(in.mutexes) {
		return nil
	}
	return in.mutexes[id]
}

func (in *processInner) semaphore(id int32) *ksync.Semaphore {
	if id < 0 || int(id) >= len(in.semaphores) {
		return nil
	}
	return in.semaphores[id]
}

func (in *processInner) condvar(id int32) *ksync.Condvar {
	if id < 0 || int(id) >= len(in.condvars) {
		return nil
	}
	return in.condvars[id]
}
