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

// TaskStatus is the lifecycle state of a Task.
type TaskStatus int

const (
	// TaskReady means the task is in the ready queue awaiting dispatch.
	TaskReady TaskStatus = iota

	// TaskRunning means the task holds the processor.
	TaskRunning

	// TaskBlocked means the task left the ready queue and waits for a
	// primitive wakeup or a timer expiry.
	TaskBlocked

	// TaskZombie means the task function returned; the task only awaits
	// reaping by its process.
	TaskZombie
)

// String returns a short name for the status.
func (s TaskStatus) String() string {
	switch s {
	case TaskReady:
		return "Ready"
	case TaskRunning:
		return "Running"
	case TaskBlocked:
		return "Blocked"
	case TaskZombie:
		return "Zombie"
	default:
		return "Unknown"
	}
}

// DefaultPriority is the stride divisor a task starts with.
const DefaultPriority = 16

// MinPriority is the smallest accepted stride divisor.
const MinPriority = 2

// Task is one user-level thread. Task state other than the resume channel
// is only touched by the goroutine currently holding the processor (or by
// the dispatcher while no task runs), so it needs no locking.
//
// A Task refers to its owning process only by PID, resolved through the
// kernel's process registry; it never keeps the process alive.
type Task struct {
	k   *Kernel
	pid PID
	tid int

	status   TaskStatus
	stride   uint64
	priority uint64

	fn     func(*Task)
	resume chan struct{}
}

// PID returns the id of the owning process.
func (t *Task) PID() PID { return t.pid }

// TID returns the task's thread slot within its process.
func (t *Task) TID() int { return t.tid }

// Status returns the task's lifecycle state.
func (t *Task) Status() TaskStatus { return t.status }

// Kernel returns the kernel the task runs under.
func (t *Task) Kernel() *Kernel { return t.k }

// Process resolves the weak back-reference to the owning process. It
// returns nil once the process has been removed from the registry.
func (t *Task) Process() *Process {
	return t.k.process(t.pid)
}

// Priority returns the task's stride divisor.
func (t *Task) Priority() uint64 { return t.priority }

// SetPriority changes the stride divisor. A larger priority means a
// smaller stride increment and therefore more frequent dispatch.
func (t *Task) SetPriority(p uint64) {
	if p < MinPriority {
		panic("Task: priority below minimum")
	}
	t.priority = p
}

// run is the task goroutine body. It waits for its first dispatch, runs
// the task function, and exits.
func (t *Task) run() {
	<-t.resume
	t.fn(t)
	t.exit()
}

// Yield cedes the processor but keeps the task runnable. It implements
// ksync.Waiter.Yield.
//
// Preconditions: the caller holds the processor.
func (t *Task) Yield() {
	t.status = TaskReady
	t.k.enqueue(t)
	t.k.cede()
	<-t.resume
}

// Block removes the task from execution until Wake. The task must already
// be registered wherever the matching Wake will find it (a primitive's
// waiter queue or the timekeeper). It implements ksync.Waiter.Block.
//
// Preconditions: the caller holds the processor.
func (t *Task) Block() {
	t.status = TaskBlocked
	t.k.cede()
	<-t.resume
}

// Wake returns a blocked task to the ready queue. It implements
// ksync.Waiter.Wake.
//
// Preconditions: t.Block was called and no wakeup was delivered since;
// the caller holds the processor or is the dispatcher.
func (t *Task) Wake() {
	if t.status != TaskBlocked {
		panic("Task: wake of a task that is not blocked")
	}
	t.status = TaskReady
	t.k.enqueue(t)
}

// exit marks the task a zombie, tells its process to reap the thread
// slot, and gives the processor back for good.
func (t *Task) exit() {
	t.status = TaskZombie
	if p := t.Process(); p != nil {
		p.reapThread(t)
	}
	t.k.taskExited()
}
