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

// Package kernelerr holds the standardized error definitions for StrideOS
// and their translation to the numeric syscall ABI.
package kernelerr

import "errors"

// Syscall status values. Every syscall returns StatusOK or one of the
// negative statuses; DeadlockCode is a distinguished sentinel so callers
// can tell a deadlock veto apart from handle misuse.
const (
	StatusOK     int64 = 0
	StatusError  int64 = -1
	DeadlockCode int64 = -0xdead
)

var (
	// ErrNoSuchID is returned when a primitive id is out of range or its
	// slot is empty.
	ErrNoSuchID = errors.New("no primitive with the given id")

	// ErrWouldDeadlock is returned when the deadlock detector vetoes an
	// acquisition. The request was not performed and no allocation state
	// changed; the caller decides whether to back off and retry.
	ErrWouldDeadlock = errors.New("acquisition would deadlock")

	// ErrInvalidArgument is returned for out-of-range creation or priority
	// arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBusy is returned when destroying a primitive that is held or has
	// queued waiters.
	ErrBusy = errors.New("primitive is in use")

	// ErrWedged is reported by the dispatcher when live tasks remain but
	// none can ever run again: the ready queue is empty and no timer is
	// pending. This is the wedge that deadlock detection exists to
	// prevent.
	ErrWedged = errors.New("all live tasks are blocked with no pending wakeup")
)

// Status translates an error from the kernel into its syscall status.
func Status(err error) int64 {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrWouldDeadlock):
		return DeadlockCode
	default:
		return StatusError
	}
}
