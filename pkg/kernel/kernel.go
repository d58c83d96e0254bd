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

// Package kernel implements the scheduling and synchronization core of
// StrideOS: tasks, the stride scheduler, per-process resource accounting
// with online deadlock detection, and the timer collaborator.
//
// The kernel runs a single logical execution context. Task goroutines take
// turns holding the processor: the dispatcher hands the CPU to exactly one
// task and parks until that task cedes it by blocking, yielding or
// exiting. All kernel state is therefore mutated by at most one goroutine
// at a time, which the exclusive.Cell discipline checks at runtime.
package kernel

import (
	"time"

	"github.com/sirupsen/logrus"

	"strideos.dev/strideos/pkg/exclusive"
	"strideos.dev/strideos/pkg/kernelerr"
)

// PID identifies a process.
type PID int32

// Kernel is the scheduling core. Create one with New, populate it with
// processes and tasks, then drive it with Run.
type Kernel struct {
	sched *exclusive.Cell[runQueue]
	procs *exclusive.Cell[procTable]
	tk    *Timekeeper

	// cpu is signalled by the running task when it cedes the processor.
	cpu chan struct{}
	// timerWakes delivers expired sleepers from the timekeeper to the
	// dispatcher.
	timerWakes chan *Task

	// live counts tasks that have not exited. It is only touched by the
	// goroutine holding the processor; the cpu channel orders those
	// accesses.
	live int

	current *Task
	started time.Time
}

// procTable is the process registry.
type procTable struct {
	nextPID PID
	procs   map[PID]*Process
}

// New returns an initialized kernel with an empty ready queue.
func New() *Kernel {
	k := &Kernel{
		sched:      exclusive.NewCell(runQueue{}),
		procs:      exclusive.NewCell(procTable{nextPID: 1, procs: make(map[PID]*Process)}),
		cpu:        make(chan struct{}, 1),
		timerWakes: make(chan *Task, 64),
		started:    time.Now(),
	}
	k.tk = newTimekeeper(k.timerWakes)
	return k
}

// NewProcess registers a new process with empty resource tables.
func (k *Kernel) NewProcess(name string) *Process {
	p := &Process{
		k:     k,
		name:  name,
		inner: exclusive.NewCell(processInner{}),
	}
	k.procs.With(func(tbl *procTable) {
		p.pid = tbl.nextPID
		tbl.nextPID++
		tbl.procs[p.pid] = p
	})
	return p
}

// process resolves a PID, returning nil for unknown ids.
func (k *Kernel) process(pid PID) *Process {
	var p *Process
	k.procs.With(func(tbl *procTable) {
		p = tbl.procs[pid]
	})
	return p
}

// removeProcess drops a process from the registry. Tasks holding the PID
// resolve to nil afterwards.
func (k *Kernel) removeProcess(pid PID) {
	k.procs.With(func(tbl *procTable) {
		delete(tbl.procs, pid)
	})
}

// NowMS returns milliseconds since the kernel was created.
func (k *Kernel) NowMS() int64 {
	return time.Since(k.started).Milliseconds()
}

// Current returns the task holding the processor, or nil while the
// dispatcher runs.
func (k *Kernel) Current() *Task {
	return k.current
}

// enqueue puts a ready task on the run queue.
func (k *Kernel) enqueue(t *Task) {
	k.sched.With(func(q *runQueue) {
		q.add(t)
	})
}

// fetchTask removes and returns the next task to run, or nil when idle.
func (k *Kernel) fetchTask() *Task {
	var t *Task
	k.sched.With(func(q *runQueue) {
		t = q.fetch()
	})
	return t
}

// cede gives the processor back to the dispatcher.
func (k *Kernel) cede() {
	k.cpu <- struct{}{}
}

// taskExited is called by a task goroutine as its final act.
func (k *Kernel) taskExited() {
	k.live--
	k.cpu <- struct{}{}
}

// Sleep registers the task with the timekeeper for an absolute deadline
// and blocks it. The timekeeper returns it to the ready set on expiry.
func (k *Kernel) Sleep(t *Task, d time.Duration) {
	k.tk.addTimer(time.Now().Add(d), t)
	t.Block()
}

// Run drives the dispatcher until every task has exited. It returns
// kernelerr.ErrWedged if live tasks remain but the ready queue is empty
// and no timer can ever wake one of them.
//
// Run owns the processor between dispatches; it must not be called
// concurrently with itself or from a task.
func (k *Kernel) Run() error {
	defer k.tk.stop()
	for k.live > 0 {
		k.drainTimerWakes()
		t := k.fetchTask()
		if t == nil {
			if !k.idle() {
				logrus.WithField("live", k.live).Warn("kernel: wedged, no runnable task and no pending timer")
				return kernelerr.ErrWedged
			}
			continue
		}
		t.status = TaskRunning
		k.current = t
		t.resume <- struct{}{}
		<-k.cpu
		k.current = nil
	}
	k.reapProcesses()
	return nil
}

// reapProcesses drops processes whose threads have all exited from the
// registry. It runs at quiescence; outstanding Task handles resolve to a
// nil process afterwards.
func (k *Kernel) reapProcesses() {
	var done []PID
	k.procs.With(func(tbl *procTable) {
		for pid, p := range tbl.procs {
			finished := true
			p.inner.With(func(in *processInner) {
				for _, t := range in.threads {
					if t != nil {
						finished = false
						return
					}
				}
			})
			if finished {
				done = append(done, pid)
			}
		}
	})
	for _, pid := range done {
		k.removeProcess(pid)
	}
}

// drainTimerWakes moves any already-expired sleepers to the ready queue.
func (k *Kernel) drainTimerWakes() {
	for {
		select {
		case t := <-k.timerWakes:
			t.Wake()
		default:
			return
		}
	}
}

// idle waits for a timer wakeup. It reports false when no wakeup can ever
// arrive (the wedge condition).
func (k *Kernel) idle() bool {
	if k.tk.pendingTimers() == 0 {
		// A timer may have fired between the drain and the pending
		// check; its wakeup is already buffered if so.
		select {
		case t := <-k.timerWakes:
			t.Wake()
			return true
		default:
			return false
		}
	}
	t := <-k.timerWakes
	t.Wake()
	return true
}
