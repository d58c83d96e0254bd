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
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/btree"
)

// Timekeeper is the timer collaborator. It keeps sleeping tasks ordered by
// absolute deadline and hands expired ones back to the dispatcher, which
// returns them to the ready set.
//
// The timekeeper runs on its own goroutine and is the one component
// outside the single execution context, so it uses a real mutex rather
// than an exclusive cell. It never touches scheduler or process state
// directly; expired tasks travel over a channel.
type Timekeeper struct {
	mu     sync.Mutex
	timers *btree.BTreeG[timerEntry]
	seq    uint64

	// pending counts timers that have been registered but whose tasks
	// have not yet been handed to the dispatcher. The dispatcher's wedge
	// check reads it.
	pending atomic.Int64

	wakeCh chan<- *Task
	kick   chan struct{}
	done   chan struct{}
}

// timerEntry orders sleepers by deadline, with a sequence number breaking
// ties so equal deadlines are distinct tree items.
type timerEntry struct {
	when time.Time
	seq  uint64
	task *Task
}

func timerEntryLess(a, b timerEntry) bool {
	if !a.when.Equal(b.when) {
		return a.when.Before(b.when)
	}
	return a.seq < b.seq
}

func newTimekeeper(wakeCh chan<- *Task) *Timekeeper {
	tk := &Timekeeper{
		timers: btree.NewG(8, timerEntryLess),
		wakeCh: wakeCh,
		kick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go tk.loop()
	return tk
}

// addTimer registers a task to be woken at the given deadline.
func (tk *Timekeeper) addTimer(when time.Time, t *Task) {
	tk.mu.Lock()
	tk.seq++
	tk.timers.ReplaceOrInsert(timerEntry{when: when, seq: tk.seq, task: t})
	tk.mu.Unlock()
	tk.pending.Add(1)
	select {
	case tk.kick <- struct{}{}:
	default:
	}
}

// pendingTimers returns the number of registered timers whose wakeups have
// not yet been delivered.
func (tk *Timekeeper) pendingTimers() int64 {
	return tk.pending.Load()
}

func (tk *Timekeeper) stop() {
	close(tk.done)
}

// loop sleeps until the earliest deadline, then delivers expired tasks.
func (tk *Timekeeper) loop() {
	for {
		tk.mu.Lock()
		next, ok := tk.timers.Min()
		tk.mu.Unlock()

		if !ok {
			select {
			case <-tk.kick:
				continue
			case <-tk.done:
				return
			}
		}

		if d := time.Until(next.when); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-timer.C:
			case <-tk.kick:
				timer.Stop()
				continue
			case <-tk.done:
				timer.Stop()
				return
			}
		}

		tk.mu.Lock()
		entry, ok := tk.timers.Min()
		if !ok || entry.when.After(time.Now()) {
			tk.mu.Unlock()
			continue
		}
		tk.timers.DeleteMin()
		tk.mu.Unlock()

		select {
		case tk.wakeCh <- entry.task:
			tk.pending.Add(-1)
		case <-tk.done:
			return
		}
	}
}
