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

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"strideos.dev/strideos/pkg/kernel"
	"strideos.dev/strideos/pkg/syscalls"
)

// Deadlock implements subcommands.Command for the "deadlock" command: two
// threads acquire two mutexes in opposite orders, and the safety check
// vetoes the request that would close the cycle. Zero-count semaphore
// gates pin the interleaving; detection is switched on only for the final
// request so the gates themselves are never vetoed.
type Deadlock struct{}

// Name implements subcommands.Command.Name.
func (*Deadlock) Name() string {
	return "deadlock"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Deadlock) Synopsis() string {
	return "provoke and print a deadlock veto"
}

// Usage implements subcommands.Command.Usage.
func (*Deadlock) Usage() string {
	return `deadlock`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Deadlock) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Deadlock) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	k := kernel.New()
	p := k.NewProcess("deadlock")

	mustMutex := func() int32 {
		id, err := p.CreateMutex(true)
		if err != nil {
			logrus.Fatalf("creating mutex: %v", err)
		}
		return id
	}
	mustSem := func(n int64) int32 {
		id, err := p.CreateSemaphore(n)
		if err != nil {
			logrus.Fatalf("creating semaphore: %v", err)
		}
		return id
	}

	idA, idB := mustMutex(), mustMutex()
	g1, g2 := mustSem(0), mustSem(0)

	p.NewTask(func(t *kernel.Task) { // t1: A then B
		syscalls.SemaphoreDown(t, g1) // wait until t2 holds B
		syscalls.MutexLock(t, idA)
		fmt.Printf("t1: holds A, requesting B\n")
		syscalls.SemaphoreUp(t, g2)
		syscalls.MutexLock(t, idB) // blocks until t2 backs off B
		fmt.Printf("t1: got B, done\n")
		syscalls.MutexUnlock(t, idB)
		syscalls.MutexUnlock(t, idA)
	})
	p.NewTask(func(t *kernel.Task) { // t2: B then A
		syscalls.MutexLock(t, idB)
		syscalls.SemaphoreUp(t, g1)
		syscalls.SemaphoreDown(t, g2) // wait until t1 holds A and wants B
		syscalls.SetDeadlockDetect(t, true)

		fmt.Printf("t2: holds B, requesting A\n")
		if s := syscalls.MutexLock(t, idA); s == syscalls.DeadlockCode {
			fmt.Printf("t2: request for A vetoed (%#x), releasing B\n", -s)
		} else {
			fmt.Printf("t2: unexpected status %d\n", s)
		}
		syscalls.MutexUnlock(t, idB)
	})

	if err := k.Run(); err != nil {
		logrus.Errorf("kernel: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
