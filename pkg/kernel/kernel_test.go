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
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"strideos.dev/strideos/pkg/kernelerr"
)

// runQuiesce drives the kernel and fails the test if it does not quiesce.
func runQuiesce(t *testing.T, k *Kernel) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- k.Run() }()
	select {
	case err := <-done:
		return err
	case <-time.After(30 * time.Second):
		t.Fatal("kernel did not quiesce")
		return nil
	}
}

func TestRunNoTasks(t *testing.T) {
	k := New()
	if err := runQuiesce(t, k); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestMutualExclusionBlocking(t *testing.T) {
	testMutualExclusion(t, true)
}

func TestMutualExclusionSpin(t *testing.T) {
	testMutualExclusion(t, false)
}

func testMutualExclusion(t *testing.T, blocking bool) {
	k := New()
	p := k.NewProcess("mutex")
	id, err := p.CreateMutex(blocking)
	if err != nil {
		t.Fatalf("CreateMutex: %v", err)
	}

	inCritical := false
	violations := 0
	body := func(task *Task) {
		for i := 0; i < 50; i++ {
			if err := p.LockMutex(task, id); err != nil {
				t.Errorf("LockMutex: %v", err)
				return
			}
			if inCritical {
				violations++
			}
			inCritical = true
			task.Yield() // invite interleaving inside the critical section
			inCritical = false
			if err := p.UnlockMutex(task, id); err != nil {
				t.Errorf("UnlockMutex: %v", err)
				return
			}
			task.Yield()
		}
	}
	p.NewTask(body)
	p.NewTask(body)

	if err := runQuiesce(t, k); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if violations != 0 {
		t.Fatalf("observed %d mutual-exclusion violations", violations)
	}
}

// TestNoLostWakeup blocks the downer before the upper runs; the up must
// resume it without an external nudge. Spawn order matters: of two
// equal-stride tasks the later-indexed one is dispatched first, so the
// downer is spawned second.
func TestNoLostWakeup(t *testing.T) {
	k := New()
	p := k.NewProcess("sem")
	id, _ := p.CreateSemaphore(0)

	resumed := false
	p.NewTask(func(task *Task) { // runs second
		if err := p.SemaphoreUp(task, id); err != nil {
			t.Errorf("SemaphoreUp: %v", err)
		}
	})
	p.NewTask(func(task *Task) { // runs first, blocks in down
		if err := p.SemaphoreDown(task, id); err != nil {
			t.Errorf("SemaphoreDown: %v", err)
		}
		resumed = true
	})

	if err := runQuiesce(t, k); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if !resumed {
		t.Fatal("downer never resumed after up")
	}
}

func TestCondvarMonitor(t *testing.T) {
	k := New()
	p := k.NewProcess("monitor")
	mid, _ := p.CreateMutex(true)
	cvid, _ := p.CreateCondvar()

	value := 0
	consumed := 0
	// Producer is spawned first so the consumer (later index) runs first
	// and is already waiting when the signal arrives.
	p.NewTask(func(task *Task) {
		p.LockMutex(task, mid)
		value = 42
		p.CondvarSignal(cvid)
		p.UnlockMutex(task, mid)
	})
	p.NewTask(func(task *Task) {
		p.LockMutex(task, mid)
		for value == 0 {
			p.CondvarWait(task, cvid, mid)
		}
		consumed = value
		p.UnlockMutex(task, mid)
	})

	if err := runQuiesce(t, k); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if consumed != 42 {
		t.Fatalf("consumed = %d, want 42", consumed)
	}
}

func TestSleepWakes(t *testing.T) {
	k := New()
	p := k.NewProcess("sleep")

	woke := false
	start := time.Now()
	p.NewTask(func(task *Task) {
		k.Sleep(task, 20*time.Millisecond)
		woke = true
	})

	if err := runQuiesce(t, k); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if !woke {
		t.Fatal("sleeper never woke")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("woke after %v, want >= 20ms", elapsed)
	}
}

// TestWedge locks a blocking mutex twice from the same task with
// detection disabled: nothing can ever wake it, which Run must report
// instead of hanging.
func TestWedge(t *testing.T) {
	k := New()
	p := k.NewProcess("wedge")
	id, _ := p.CreateMutex(true)

	p.NewTask(func(task *Task) {
		p.LockMutex(task, id)
		p.LockMutex(task, id) // blocks forever
	})

	if err := runQuiesce(t, k); err != kernelerr.ErrWedged {
		t.Fatalf("Run() = %v, want ErrWedged", err)
	}
}

// TestAccountingInvariant exercises mixed lock/unlock and up/down traffic
// and then checks available[r] + sum(allocation[t][r]) == total units for
// every resource.
func TestAccountingInvariant(t *testing.T) {
	k := New()
	p := k.NewProcess("invariant")
	mid, _ := p.CreateMutex(true)
	sid, _ := p.CreateSemaphore(3)

	body := func(task *Task) {
		for i := 0; i < 20; i++ {
			p.LockMutex(task, mid)
			task.Yield()
			p.UnlockMutex(task, mid)
			p.SemaphoreDown(task, sid)
			task.Yield()
			p.SemaphoreUp(task, sid)
		}
	}
	p.NewTask(body)
	p.NewTask(body)
	p.NewTask(body)

	if err := runQuiesce(t, k); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}

	p.inner.With(func(in *processInner) {
		mutexTotal := in.availableMutex[mid]
		semTotal := in.availableSem[sid]
		for tid := range in.threads {
			mutexTotal += in.allocationMutex[tid][mid]
			semTotal += in.allocationSem[tid][sid]
		}
		if mutexTotal != 1 {
			t.Errorf("mutex units: available + allocations = %d, want 1", mutexTotal)
		}
		if semTotal != 3 {
			t.Errorf("semaphore units: available + allocations = %d, want 3", semTotal)
		}
	})
}

func TestDestroyHeldMutexBusy(t *testing.T) {
	k := New()
	p := k.NewProcess("busy")
	id, _ := p.CreateMutex(true)

	var destroyHeld, destroyFree error
	p.NewTask(func(task *Task) {
		p.LockMutex(task, id)
		destroyHeld = p.DestroyMutex(id)
		p.UnlockMutex(task, id)
		destroyFree = p.DestroyMutex(id)
	})

	if err := runQuiesce(t, k); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if destroyHeld != kernelerr.ErrBusy {
		t.Fatalf("destroy of held mutex = %v, want ErrBusy", destroyHeld)
	}
	if destroyFree != nil {
		t.Fatalf("destroy of free mutex = %v, want nil", destroyFree)
	}
}

// TestCurrentTracksRunningTask checks that Current names the task holding
// the processor while it runs and reverts to nil at quiescence.
func TestCurrentTracksRunningTask(t *testing.T) {
	k := New()
	p := k.NewProcess("current")

	var saw *Task
	task := p.NewTask(func(*Task) {
		saw = k.Current()
	})

	if err := runQuiesce(t, k); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if saw != task {
		t.Fatalf("Current() during run = %v, want the running task", saw)
	}
	if got := k.Current(); got != nil {
		t.Fatalf("Current() after quiescence = %v, want nil", got)
	}
}

// TestProcessReapedAtQuiescence checks that a process whose threads have
// all exited is dropped from the registry when Run returns, and that
// outstanding task handles resolve their process to nil afterwards.
func TestProcessReapedAtQuiescence(t *testing.T) {
	k := New()
	p := k.NewProcess("short")
	task := p.NewTask(func(*Task) {})

	if err := runQuiesce(t, k); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if got := k.process(p.PID()); got != nil {
		t.Fatalf("process(%d) after quiescence = %v, want nil", p.PID(), got)
	}
	if got := task.Process(); got != nil {
		t.Fatalf("task.Process() after reap = %v, want nil", got)
	}
}

// TestManyKernels runs several kernels in parallel, each with its own
// producer/consumer workload; kernels are independent and must all
// quiesce cleanly.
func TestManyKernels(t *testing.T) {
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			k := New()
			p := k.NewProcess("worker")
			sid, _ := p.CreateSemaphore(0)
			for j := 0; j < 4; j++ {
				p.NewTask(func(task *Task) {
					for n := 0; n < 10; n++ {
						p.SemaphoreUp(task, sid)
						task.Yield()
					}
				})
				p.NewTask(func(task *Task) {
					for n := 0; n < 10; n++ {
						p.SemaphoreDown(task, sid)
					}
				})
			}
			return k.Run()
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("parallel kernels: %v", err)
	}
}
