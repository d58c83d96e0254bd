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

// Package syscalls holds the entry points consumed from the trap layer.
// Each takes the calling task first and returns an int64 status: 0 on
// success, -1 on failure, DeadlockCode when the deadlock detector vetoed
// an acquisition. Ids are small non-negative integers scoped to the
// calling task's process.
package syscalls

import (
	"github.com/sirupsen/logrus"

	"strideos.dev/strideos/pkg/kernel"
	"strideos.dev/strideos/pkg/kernelerr"
)

// DeadlockCode is returned by lock_mutex and semaphore_down when the
// acquisition would lead to an unsafe state. It is distinct from the
// generic -1 so callers can tell "would deadlock" apart from misuse.
const DeadlockCode = kernelerr.DeadlockCode

func trace(t *kernel.Task, name string) {
	logrus.WithFields(logrus.Fields{
		"pid": t.PID(),
		"tid": t.TID(),
	}).Trace(name)
}
