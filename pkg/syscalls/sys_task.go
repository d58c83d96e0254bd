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

// Task management syscalls.

package syscalls

import (
	"time"

	"strideos.dev/strideos/pkg/kernel"
	"strideos.dev/strideos/pkg/kernelerr"
)

// Yield handles: yield(). The task goes back to the ready queue and the
// scheduler picks the next one.
func Yield(t *kernel.Task) int64 {
	trace(t, "sys_yield")
	t.Yield()
	return kernelerr.StatusOK
}

// Sleep handles: sleep(ms). The task registers an absolute deadline with
// the timer collaborator and blocks until expiry.
func Sleep(t *kernel.Task, ms int64) int64 {
	trace(t, "sys_sleep")
	if ms < 0 {
		return kernelerr.StatusError
	}
	t.Kernel().Sleep(t, time.Duration(ms)*time.Millisecond)
	return kernelerr.StatusOK
}

// SetPriority handles: set_priority(prio). Priorities below 2 are
// rejected; on success the new priority is returned.
func SetPriority(t *kernel.Task, prio int64) int64 {
	trace(t, "sys_set_priority")
	if prio <= 1 {
		return kernelerr.StatusError
	}
	t.SetPriority(uint64(prio))
	return prio
}

// GetTime handles: get_time(). It returns milliseconds since kernel
// start.
func GetTime(t *kernel.Task) int64 {
	trace(t, "sys_get_time")
	return t.Kernel().NowMS()
}
