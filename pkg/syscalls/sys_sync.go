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

// Synchronization syscalls.

package syscalls

import (
	"strideos.dev/strideos/pkg/kernel"
	"strideos.dev/strideos/pkg/kernelerr"
)

// MutexCreate handles: mutex_create(blocking). It returns the new mutex
// id, reusing the first free slot.
func MutexCreate(t *kernel.Task, blocking bool) int64 {
	trace(t, "sys_mutex_create")
	id, err := t.Process().CreateMutex(blocking)
	if err != nil {
		return kernelerr.Status(err)
	}
	return int64(id)
}

// MutexLock handles: mutex_lock(id).
func MutexLock(t *kernel.Task, id int32) int64 {
	trace(t, "sys_mutex_lock")
	return kernelerr.Status(t.Process().LockMutex(t, id))
}

// MutexUnlock handles: mutex_unlock(id).
func MutexUnlock(t *kernel.Task, id int32) int64 {
	trace(t, "sys_mutex_unlock")
	return kernelerr.Status(t.Process().UnlockMutex(t, id))
}

// MutexDestroy handles: mutex_destroy(id). The freed slot is reused by
// the next mutex_create.
func MutexDestroy(t *kernel.Task, id int32) int64 {
	trace(t, "sys_mutex_destroy")
	return kernelerr.Status(t.Process().DestroyMutex(id))
}

// SemaphoreCreate handles: semaphore_create(res_count).
func SemaphoreCreate(t *kernel.Task, resCount int64) int64 {
	trace(t, "sys_semaphore_create")
	id, err := t.Process().CreateSemaphore(resCount)
	if err != nil {
		return kernelerr.Status(err)
	}
	return int64(id)
}

// SemaphoreUp handles: semaphore_up(id).
func SemaphoreUp(t *kernel.Task, id int32) int64 {
	trace(t, "sys_semaphore_up")
	return kernelerr.Status(t.Process().SemaphoreUp(t, id))
}

// SemaphoreDown handles: semaphore_down(id).
func SemaphoreDown(t *kernel.Task, id int32) int64 {
	trace(t, "sys_semaphore_down")
	return kernelerr.Status(t.Process().SemaphoreDown(t, id))
}

// SemaphoreDestroy handles: semaphore_destroy(id).
func SemaphoreDestroy(t *kernel.Task, id int32) int64 {
	trace(t, "sys_semaphore_destroy")
	return kernelerr.Status(t.Process().DestroySemaphore(id))
}

// CondvarCreate handles: condvar_create().
func CondvarCreate(t *kernel.Task) int64 {
	trace(t, "sys_condvar_create")
	id, err := t.Process().CreateCondvar()
	if err != nil {
		return kernelerr.Status(err)
	}
	return int64(id)
}

// CondvarSignal handles: condvar_signal(id). At most one waiter wakes; it
// re-locks the associated mutex itself.
func CondvarSignal(t *kernel.Task, id int32) int64 {
	trace(t, "sys_condvar_signal")
	return kernelerr.Status(t.Process().CondvarSignal(id))
}

// CondvarWait handles: condvar_wait(condvar_id, mutex_id).
func CondvarWait(t *kernel.Task, cvid, mid int32) int64 {
	trace(t, "sys_condvar_wait")
	return kernelerr.Status(t.Process().CondvarWait(t, cvid, mid))
}

// CondvarDestroy handles: condvar_destroy(id).
func CondvarDestroy(t *kernel.Task, id int32) int64 {
	trace(t, "sys_condvar_destroy")
	return kernelerr.Status(t.Process().DestroyCondvar(id))
}

// SetDeadlockDetect handles: enable_deadlock_detect(enabled).
func SetDeadlockDetect(t *kernel.Task, enabled bool) int64 {
	trace(t, "sys_enable_deadlock_detect")
	t.Process().SetDeadlockDetection(enabled)
	return kernelerr.StatusOK
}
