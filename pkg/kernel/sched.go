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

// Stride scheduling. Each dispatch advances the chosen task's stride by
// BigStride divided by its priority, so tasks with larger priorities
// accumulate stride more slowly and are selected proportionally more
// often.

// BigStride is the stride increment numerator.
const BigStride uint64 = 1 << 32

// runQueue holds the ready tasks. It is guarded by the kernel's scheduler
// cell; only the currently-running task or the dispatcher touch it.
type runQueue struct {
	tasks []*Task
}

// add appends a task to the ready set.
func (q *runQueue) add(t *Task) {
	q.tasks = append(q.tasks, t)
}

// fetch removes and returns the task that should run next, or nil if the
// ready set is empty (the idle condition, not an error).
//
// The scan keeps the last index whose stride is <= the minimum seen, so of
// two equal-stride tasks the later-indexed one wins. The winner's stride
// is advanced before it is removed.
//
// Strides wrap at the native integer width; nothing rebases them to the
// minimum on overflow, so a task whose stride wraps compares as small and
// is favored until it catches back up.
func (q *runQueue) fetch() *Task {
	if len(q.tasks) == 0 {
		return nil
	}
	minIdx := 0
	minStride := ^uint64(0)
	for i, t := range q.tasks {
		if t.stride <= minStride {
			minIdx = i
			minStride = t.stride
		}
	}
	t := q.tasks[minIdx]
	t.stride += BigStride / t.priority
	q.tasks = append(q.tasks[:minIdx], q.tasks[minIdx+1:]...)
	return t
}

// len returns the number of ready tasks.
func (q *runQueue) len() int {
	return len(q.tasks)
}
